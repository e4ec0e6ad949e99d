package apiclient

import (
	"net/http"
	"time"

	"spendtrack/internal/log"
	"spendtrack/internal/middleware/trace"
	"spendtrack/internal/session"
)

// Call is one outgoing API request together with the session it runs for.
type Call struct {
	Request *http.Request
	Session *session.Session
	// Public calls (login, registration) never invalidate the session.
	Public bool
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Handler sends a Call.
type Handler func(*Call) (*Response, error)

// Interceptor wraps a Handler. Interceptors can rewrite the request before
// calling next and inspect or replace the result afterwards.
type Interceptor func(next Handler) Handler

// Chain composes interceptors so that the first one runs outermost.
func Chain(h Handler, interceptors ...Interceptor) Handler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		h = interceptors[i](h)
	}
	return h
}

// AuthInterceptor attaches the session credential using scheme
// ("Bearer" or "Token"). Calls without a credential go out unchanged.
func AuthInterceptor(scheme string) Interceptor {
	return func(next Handler) Handler {
		return func(c *Call) (*Response, error) {
			if tok := c.Session.Token(); tok != "" {
				c.Request.Header.Set("Authorization", scheme+" "+tok)
			}
			return next(c)
		}
	}
}

// RequestIDInterceptor forwards the request ID of the page request that
// triggered the call, so API logs can be matched with ours.
func RequestIDInterceptor() Interceptor {
	return func(next Handler) Handler {
		return func(c *Call) (*Response, error) {
			if id := trace.GetRequestID(c.Request.Context()); id != "" {
				c.Request.Header.Set("X-Request-ID", id)
			}
			return next(c)
		}
	}
}

// ErrorInterceptor turns non-2xx responses into typed errors. A 401 on a
// non-public call invalidates the session, which lets the session owner
// clear the stored credential.
func ErrorInterceptor() Interceptor {
	return func(next Handler) Handler {
		return func(c *Call) (*Response, error) {
			resp, err := next(c)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}
			msg := serverMessage(resp.StatusCode, resp.Body)
			if resp.StatusCode == http.StatusUnauthorized {
				if !c.Public {
					c.Session.Invalidate(session.ReasonUnauthorized)
				}
				return nil, &AuthError{ServerMessage: msg}
			}
			return nil, &ServerError{StatusCode: resp.StatusCode, Message: msg}
		}
	}
}

// LoggingInterceptor logs every call at debug level and failures at warn.
func LoggingInterceptor(logger *log.Logger) Interceptor {
	return func(next Handler) Handler {
		return func(c *Call) (*Response, error) {
			fp := c.Session.Fingerprint()
			start := time.Now()
			resp, err := next(c)

			fields := log.NewFields().WithSession(fp)
			fields[log.FieldMethod] = c.Request.Method
			fields[log.FieldAPIPath] = c.Request.URL.Path
			fields[log.FieldDuration] = time.Since(start).Milliseconds()
			if resp != nil {
				fields[log.FieldStatusCode] = resp.StatusCode
			}

			ctx := c.Request.Context()
			if err != nil {
				logger.WarnContext(ctx, "API call failed", fields.WithError(err).WithErrorType(ErrorType(err)).ToSlice()...)
				return nil, err
			}
			logger.DebugContext(ctx, "API call", fields.ToSlice()...)
			return resp, nil
		}
	}
}
