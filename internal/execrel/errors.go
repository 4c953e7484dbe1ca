package execrel

import "fmt"

// ExecError reports a relation-path runtime failure: duplicate
// aliases, an unbound qualifier, or a malformed subquery source.
type ExecError struct {
	Code    string
	Message string
}

func (e ExecError) Error() string {
	return fmt.Sprintf("execution error (%s): %s", e.Code, e.Message)
}
