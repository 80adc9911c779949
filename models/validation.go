package models

import "toolbank/apperr"

// Validation is the outcome of an entity's structural checks. It collects
// every violation instead of stopping at the first one.
type Validation struct {
	Errors []string
}

func (v *Validation) add(msg string) { v.Errors = append(v.Errors, msg) }

func (v Validation) Valid() bool { return len(v.Errors) == 0 }

// Err converts a failed validation into an apperr.Validation error, nil when
// valid.
func (v Validation) Err() error {
	if v.Valid() {
		return nil
	}
	return apperr.Invalid(v.Errors...)
}
