package processor

import "fmt"

// TemplateParseError is returned when template bytes cannot be reduced to a
// well-formed document with an <svg> root.
type TemplateParseError struct {
	Reason string
	Err    error
}

func (e *TemplateParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("template parse error: %s", e.Reason)
}

func (e *TemplateParseError) Unwrap() error {
	return e.Err
}
