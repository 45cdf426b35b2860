package contracts

import "fmt"

// ExternalServiceError wraps a failure of an external collaborator
// (feed, notifier, store, Notion, GitHub).
type ExternalServiceError struct {
	Service string // nordpool, slack, store, notion, github
	Op      string
	Err     error
}

// NewExternalServiceError wraps err for service/op
func NewExternalServiceError(service, op string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
