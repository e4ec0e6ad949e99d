package http

import (
	"errors"
	"net/http"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

// fail answers a failed operation on a protected route. A rejected
// credential sends the user to the login page, everything else becomes an
// error notification.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, component, op string, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(component)
	fields := log.NewFields().
		WithOperation(op).
		WithError(err).
		WithErrorType(apiclient.ErrorType(err)).
		ToSlice()

	switch {
	case apiclient.IsUnauthorized(err):
		logger.WarnContext(ctx, "Credential rejected by API", fields...)
		s.expireSession(w, r)
	case errors.Is(err, errInvalidID):
		logger.InfoContext(ctx, "Invalid resource identifier", fields...)
		BadRequestError("Invalid identifier").Write(w)
	case core.IsValidationError(err):
		logger.InfoContext(ctx, "Validation failed", fields...)
		UnprocessableEntityError(apiclient.UserMessage(err)).Write(w)
	default:
		logger.ErrorContext(ctx, "Operation failed", fields...)
		status := http.StatusBadGateway
		var se *apiclient.ServerError
		if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
			status = http.StatusUnprocessableEntity
		}
		ErrorResponse(status, apiclient.UserMessage(err)).Write(w)
	}
}

// expireSession clears the credential and sends the user to the login page,
// preserving where they were.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Invalidate(session.ReasonUnauthorized)
	session.Redirect(w, r, withNotice(session.LoginURL(session.ReturnTo(r)), noticeExpired))
}

// listFailure reports whether err must abort rendering a list fragment.
// Other failures are rendered in place as an empty list plus a notification.
func (s *Server) listFailure(w http.ResponseWriter, r *http.Request, component string, err error) bool {
	if apiclient.IsUnauthorized(err) {
		s.fail(w, r, component, log.OpList, err)
		return true
	}
	logFetchError(r, component, log.OpList, err)
	return false
}

func logFetchError(r *http.Request, component, op string, err error) {
	log.FromContext(r.Context()).WithComponent(component).WarnContext(r.Context(), "Fetch failed",
		log.NewFields().WithOperation(op).WithError(err).WithErrorType(apiclient.ErrorType(err)).ToSlice()...)
}
