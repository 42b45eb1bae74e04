package app

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/parley/internal/platform/errors"
	errori18n "github.com/louisbranch/parley/internal/platform/errors/i18n"
)

// LocalizeError renders err for players in the service locale. Errors that
// carry no domain code fall back to the generic UNKNOWN message.
func (s *Service) LocalizeError(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return errori18n.GetCatalog(s.locale).Format(string(apperrors.CodeUnknown), nil)
	}
	return errori18n.GetCatalog(s.locale).Format(string(domainErr.Code), domainErr.Metadata)
}

// StatusError converts err into a gRPC status carrying the localized message.
func (s *Service) StatusError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return status.Error(codes.Internal, err.Error())
	}
	return domainErr.ToGRPCStatus(s.locale, s.LocalizeError(err))
}
