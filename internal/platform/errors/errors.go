package errors

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain tags the ErrorInfo detail of every status built here.
const Domain = "github.com/louisbranch/parley"

// Error carries a Code for callers and a Message for logs. Metadata feeds
// the localized templates keyed by Code.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so sentinels built with New
// work with errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

// New returns an error with no metadata.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata returns an error whose localized message is rendered from
// metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	err := New(code, message)
	err.Metadata = metadata
	return err
}

// Wrap returns an error that keeps cause in its chain.
func Wrap(code Code, message string, cause error) *Error {
	err := New(code, message)
	err.Cause = cause
	return err
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeUnknown.
func CodeOf(err error) Code {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Code
	}
	return CodeUnknown
}

// ToGRPCStatus builds a status whose message is the internal one. The
// player-facing text rides along as a LocalizedMessage detail.
func (e *Error) ToGRPCStatus(locale, userMessage string) error {
	code := e.Code.GRPCCode()
	base := status.New(code, e.Message)
	detailed, err := base.WithDetails(
		&errdetails.ErrorInfo{Reason: string(e.Code), Domain: Domain, Metadata: e.Metadata},
		&errdetails.LocalizedMessage{Locale: locale, Message: userMessage},
	)
	if err != nil {
		return base.Err()
	}
	return detailed.Err()
}
