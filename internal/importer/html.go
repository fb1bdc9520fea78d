package importer

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/nikbrunner/bundles/internal/model"
)

// RootBundleName names the bundle collecting links that sit outside any folder.
const RootBundleName = "Imported"

// folderPathSeparator joins nested folder names into one bundle name.
const folderPathSeparator = " / "

// folder accumulates the direct links of one H3 folder.
type folder struct {
	name        string
	description string
	urls        []string
	pinned      bool
	lastUpdated int64
}

// ParseHTML parses Netscape bookmark HTML. Every folder with at least one
// direct link becomes a bundle named after its folder path; links outside any
// folder are gathered into a RootBundleName bundle. Nested folders become
// their own bundles. The toolbar folder comes back pinned. Bundles come back
// in document order.
func ParseHTML(r io.Reader) ([]model.Bundle, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := &folder{name: RootBundleName}
	folders := []*folder{root}
	stack := []*folder{root}
	var pending *folder // H3 waiting for its DL

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				name := getTextContent(n)
				if name == "" {
					return
				}
				parent := stack[len(stack)-1]
				if parent != root {
					name = parent.name + folderPathSeparator + name
				}
				f := &folder{
					name:        name,
					pinned:      strings.EqualFold(getAttr(n, "personal_toolbar_folder"), "true"),
					lastUpdated: folderTimestamp(n),
				}
				folders = append(folders, f)
				pending = f
				return

			case "a":
				href := strings.TrimSpace(getAttr(n, "href"))
				if href == "" {
					return
				}
				current := stack[len(stack)-1]
				current.urls = append(current.urls, href)
				return

			case "dd":
				// A DD right after an H3 describes the folder. The parser
				// may nest the following DL inside it.
				if pending != nil {
					pending.description = textOutside(n, "dl")
				}

			case "dl":
				pushed := false
				if pending != nil {
					stack = append(stack, pending)
					pending = nil
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					stack = stack[:len(stack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)

	var bundles []model.Bundle
	for _, f := range folders {
		if len(f.urls) == 0 {
			continue
		}
		bundles = append(bundles, model.Bundle{
			Name:        f.name,
			Description: f.description,
			URLs:        f.urls,
			Pinned:      f.pinned,
			LastUpdated: f.lastUpdated,
		})
	}
	return bundles, nil
}

// folderTimestamp reads LAST_MODIFIED, falling back to ADD_DATE, as epoch
// milliseconds. Zero when neither is usable.
func folderTimestamp(n *html.Node) int64 {
	for _, attr := range []string{"last_modified", "add_date"} {
		if v := getAttr(n, attr); v != "" {
			if ts, err := strconv.ParseInt(v, 10, 64); err == nil && ts > 0 {
				return ts * 1000
			}
		}
	}
	return 0
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	return textOutside(n, "")
}

// textOutside collects the text of n, skipping subtrees of element skip.
func textOutside(n *html.Node, skip string) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && skip != "" && strings.EqualFold(n.Data, skip) {
			return
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(text.String()), " ")
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
