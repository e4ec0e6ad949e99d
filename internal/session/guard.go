package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	DashboardPath = "/dashboard"
)

type contextKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request session, or an empty one.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return New("")
}

// IsAuthRoute reports whether path belongs to the login/registration pages.
func IsAuthRoute(path string) bool {
	return strings.HasPrefix(path, LoginPath) || strings.HasPrefix(path, RegisterPath)
}

// LoginURL returns the login entry point preserving the requested location.
func LoginURL(next string) string {
	if next == "" || IsAuthRoute(next) {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a local path, the dashboard otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DashboardPath
	}
	if IsAuthRoute(next) {
		return DashboardPath
	}
	return next
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Redirect sends the browser to target, using HX-Redirect for htmx requests.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ReturnTo is the location a user should come back to after logging in.
// Partial requests return to the page that issued them.
func ReturnTo(r *http.Request) string {
	target := r.URL.RequestURI()
	if IsHTMX(r) {
		if cur := r.Header.Get("HX-Current-URL"); cur != "" {
			if u, err := url.Parse(cur); err == nil {
				target = u.RequestURI()
			}
		}
	}
	return target
}

// Guard only lets requests carrying a credential through. Others are sent
// to the login page with the original location in the next parameter.
func Guard(cookies *Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := cookies.FromRequest(w, r)
			if !s.Authenticated() {
				Redirect(w, r, LoginURL(ReturnTo(r)))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
