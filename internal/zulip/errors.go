package zulip

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a request the Zulip server rejected.
type APIError struct {
	Status int
	Code   string
	Msg    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("zulip api status %d (%s): %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("zulip api status %d: %s", e.Status, e.Msg)
}

// IsUnauthorized reports whether err is a rejected credential.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
