package common

import "fmt"

// ValidationError carries the per-field reasons a request was rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %+v", e.Fields)
}

type Validator struct {
	Fields map[string]string
}

func NewValidator() *Validator {
	return &Validator{Fields: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Fields) == 0
}

// AddError records the first failure reported for a field; later checks on
// the same field do not overwrite it.
func (v *Validator) AddError(field, message string) {
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

func (v *Validator) CheckStringLength(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max
}

func (v *Validator) ValidationError() error {
	return ValidationError{Fields: v.Fields}
}
