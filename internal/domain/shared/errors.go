package shared

// DomainError is an error carrying a stable machine-readable code. The
// HTTP layer maps codes to status responses; Message is safe to show to
// API clients.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so a detailed copy
// made with WithDetail still satisfies errors.Is against its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithDetail returns a copy with detail appended to the client-visible
// message. The code is unchanged. Used to carry an upstream rejection
// reason, such as the provider's token-exchange error, without losing the
// stable error identity.
func (e *DomainError) WithDetail(detail string) *DomainError {
	if detail == "" {
		return e
	}
	return &DomainError{Code: e.Code, Message: e.Message + ": " + detail}
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")
