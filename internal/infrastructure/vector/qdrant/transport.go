package qdrant

import (
	"errors"
	"fmt"
)

type httpStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *httpStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("qdrant %s: %s: %s", e.Operation, e.Status, e.Body)
	}
	return fmt.Sprintf("qdrant %s: %s", e.Operation, e.Status)
}

func asStatusError(err error, target **httpStatusError) bool {
	return errors.As(err, target)
}
