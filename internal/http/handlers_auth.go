package http

import (
	"errors"
	"net/http"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if s.cookies.Read(r) != "" {
		session.Redirect(w, r, session.SafeNext(next))
		return
	}
	s.render(w, r, nil, "login.html", authPage{
		page: page{Title: "Sign in", Notice: lookupNotice(r)},
		Next: next,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentSession)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.renderAuthError(w, r, "login.html", authPage{page: page{Title: "Sign in"}}, http.StatusBadRequest, "Invalid request format")
		return
	}
	creds := parseCredentials(p)
	view := authPage{page: page{Title: "Sign in"}, Next: p.Get("next"), Email: creds.Email}

	token, err := s.api.Login(ctx, creds)
	if err != nil {
		logger.WarnContext(ctx, "Login failed", log.NewFields().
			WithOperation(log.OpLogin).
			WithError(err).
			WithErrorType(apiclient.ErrorType(err)).
			ToSlice()...)
		s.renderAuthError(w, r, "login.html", view, authStatus(err), authMessage(err))
		return
	}

	s.cookies.Write(w, token)
	logger.InfoContext(ctx, "User logged in", log.NewFields().
		WithOperation(log.OpLogin).
		WithSession(session.New(token).Fingerprint()).
		ToSlice()...)
	session.Redirect(w, r, withNotice(session.SafeNext(view.Next), noticeLogin))
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if s.cookies.Read(r) != "" {
		session.Redirect(w, r, session.DashboardPath)
		return
	}
	s.render(w, r, nil, "register.html", authPage{page: page{Title: "Create account", Notice: lookupNotice(r)}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentSession)
	base := authPage{page: page{Title: "Create account"}}

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.renderAuthError(w, r, "register.html", base, http.StatusBadRequest, "Invalid request format")
		return
	}
	reg := parseRegistration(p)
	view := base
	view.Email, view.FirstName, view.LastName = reg.Email, reg.FirstName, reg.LastName

	if err := s.api.Register(ctx, reg); err != nil {
		logger.WarnContext(ctx, "Registration failed", log.NewFields().
			WithOperation(log.OpRegister).
			WithError(err).
			WithErrorType(apiclient.ErrorType(err)).
			ToSlice()...)
		s.renderAuthError(w, r, "register.html", view, authStatus(err), authMessage(err))
		return
	}

	logger.InfoContext(ctx, "User registered", log.FieldOperation, log.OpRegister)
	session.Redirect(w, r, withNotice(session.LoginPath, noticeRegistered))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.cookies.FromRequest(w, r)
	s.categories.Invalidate(sess)
	log.FromContext(r.Context()).WithComponent(log.ComponentSession).InfoContext(r.Context(), "User logged out",
		log.NewFields().WithOperation(log.OpLogout).WithSession(sess.Fingerprint()).ToSlice()...)
	sess.Invalidate(session.ReasonLogout)
	session.Redirect(w, r, withNotice(session.LoginPath, noticeLogout))
}

func (s *Server) renderAuthError(w http.ResponseWriter, r *http.Request, name string, view authPage, status int, msg string) {
	view.Error = msg
	s.render(w, r, NewHTMXResponse().Status(status).TriggerErrorNotification(msg), name, view)
}

// authMessage is the text shown on the login and registration forms. A
// rejected login shows what the API said instead of the session-expired text.
func authMessage(err error) string {
	var ae *apiclient.AuthError
	if errors.As(err, &ae) && ae.ServerMessage != "" {
		return ae.ServerMessage
	}
	return apiclient.UserMessage(err)
}

func authStatus(err error) int {
	var se *apiclient.ServerError
	switch {
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case apiclient.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500:
		return se.StatusCode
	default:
		return http.StatusBadGateway
	}
}
