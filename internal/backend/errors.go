package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Postgres error codes the backend forwards verbatim.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Error is the backend's error payload. The message is human-readable and
// is what operators ultimately see, so it is preserved as-is.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: %s (%s)", e.Message, e.Code)
	}
	return "backend: " + e.Message
}

func decodeError(resp *http.Response) error {
	be := &Error{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(body, be); err != nil || be.Message == "" {
		be.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return be
}

// IsUniqueViolation reports whether err is a duplicate-key failure.
func IsUniqueViolation(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a referential-integrity
// failure, e.g. deleting a product still referenced by order items.
func IsForeignKeyViolation(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Code == codeForeignKeyViolation
}

// IsNotFound reports whether err means no row matched a single-row request.
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && (be.StatusCode == http.StatusNotFound || be.Code == "PGRST116")
}

// FriendlyMessage maps common backend failures to operator-facing text.
// Anything unrecognized keeps the backend's own message.
func FriendlyMessage(err error) string {
	switch {
	case IsUniqueViolation(err):
		return "an item with this name already exists"
	case IsForeignKeyViolation(err):
		return "cannot delete: referenced by existing orders"
	}
	var be *Error
	if errors.As(err, &be) {
		if strings.Contains(be.Message, "JWT") {
			return "authentication error, check the configured key"
		}
		return be.Message
	}
	return "unexpected error, try again"
}
