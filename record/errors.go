package record

import "fmt"

// DuplicateIdentifierError is fatal: two rows claim the same identifier, so
// no canonical record set exists and the run must abort before any output.
type DuplicateIdentifierError struct {
	ID   string
	Rows []int
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate record identifier %q in source rows %v", e.ID, e.Rows)
}
