package model

import (
	"fmt"

	bundleerrors "github.com/nikbrunner/bundles/internal/errors"
)

// Field names used as keys in validation errors.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldURLs        = "urls"
)

// MsgNameTaken is reported on the name field when two bundles share a name.
const MsgNameTaken = "Bundle already exist, please use another name."

// ValidateBundle checks the structural constraints of a single bundle.
// Every offending field is reported in one error.
func ValidateBundle(b Bundle) error {
	fields := bundleFieldErrors(b)
	if len(fields) > 0 {
		return bundleerrors.NewValidation(fields)
	}
	return nil
}

// ValidateCollection validates each bundle and rejects the list when two
// bundles share a name. The uniqueness failure is attributed to the name field.
func ValidateCollection(list []Bundle) error {
	for _, b := range list {
		if err := ValidateBundle(b); err != nil {
			return err
		}
	}

	seen := make(map[string]struct{}, len(list))
	for _, b := range list {
		if _, dup := seen[b.Name]; dup {
			return bundleerrors.NewValidation(map[string]string{FieldName: MsgNameTaken})
		}
		seen[b.Name] = struct{}{}
	}
	return nil
}

func bundleFieldErrors(b Bundle) map[string]string {
	fields := map[string]string{}
	if b.Name == "" {
		fields[FieldName] = "Name is required."
	}
	if len(b.URLs) == 0 || (len(b.URLs) == 1 && b.URLs[0] == "") {
		fields[FieldURLs] = "Add at least one URL."
		return fields
	}
	for i, u := range b.URLs {
		if u == "" {
			fields[FieldURLs] = fmt.Sprintf("URL on line %d is empty.", i+1)
			break
		}
	}
	return fields
}
