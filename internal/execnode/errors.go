package execnode

import "fmt"

// ExecError reports a runtime failure during node-path execution that
// isn't a Diagnostic (i.e. a genuine internal fault rather than a
// query-authoring mistake already caught by the validator).
type ExecError struct {
	Kind    string
	Message string
}

func (e ExecError) Error() string {
	return fmt.Sprintf("execution error (%v): %v", e.Kind, e.Message)
}
