package model

import "strings"

// URLSeparator joins URLs in the form shape.
const URLSeparator = "\n"

// FormBundle is the editable shape of a Bundle: URLs are one block of text,
// one URL per line.
type FormBundle struct {
	Name        string
	Description string
	URLs        string
	Pinned      bool
	LastUpdated *int64 // nil when the form never saw a stored bundle
}

// ToForm converts a stored bundle into its form shape.
func ToForm(b Bundle) FormBundle {
	lastUpdated := b.LastUpdated
	return FormBundle{
		Name:        b.Name,
		Description: b.Description,
		URLs:        strings.Join(b.URLs, URLSeparator),
		Pinned:      b.Pinned,
		LastUpdated: &lastUpdated,
	}
}

// FromForm converts a form back into a bundle. Blank lines are kept as empty
// URLs so that validation can reject them. LastUpdated defaults to 0; the
// store overrides it on save.
func FromForm(f FormBundle) Bundle {
	var lastUpdated int64
	if f.LastUpdated != nil {
		lastUpdated = *f.LastUpdated
	}
	return Bundle{
		Name:        f.Name,
		Description: f.Description,
		URLs:        strings.Split(f.URLs, URLSeparator),
		Pinned:      f.Pinned,
		LastUpdated: lastUpdated,
	}
}

// NormalizeForm trims the name and each URL line, and drops the trailing
// newline editors tend to leave behind. Blank lines in the middle stay.
func NormalizeForm(f FormBundle) FormBundle {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)

	text := strings.ReplaceAll(f.URLs, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	lines := strings.Split(text, URLSeparator)
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	f.URLs = strings.Join(lines, URLSeparator)
	return f
}

// ParseForm normalizes and validates user input, returning the bundle to save.
func ParseForm(f FormBundle) (Bundle, error) {
	b := FromForm(NormalizeForm(f))
	if err := ValidateBundle(b); err != nil {
		return Bundle{}, err
	}
	return b, nil
}
