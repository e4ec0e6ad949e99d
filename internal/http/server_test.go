package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/events"
	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

const testToken = "tok-123"

type apiCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
	Auth   string
}

// fakeAPI stands in for the expenses REST API. Routes are keyed by
// "METHOD /path/"; unknown routes answer 404.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	routes map[string]http.HandlerFunc
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{routes: map[string]http.HandlerFunc{}}
	f.on("GET /", jsonReply(http.StatusOK, `{}`))
	f.on("GET /categories/", jsonReply(http.StatusOK, `[{"id":1,"name":"Food"},{"id":2,"name":"Travel"}]`))
	f.on("GET /expenses/", jsonReply(http.StatusOK, `{"results":[
		{"id":7,"amount":"12.50","category":"Food","description":null,"date":"2024-01-15"}
	]}`))
	return f
}

func (f *fakeAPI) on(route string, h http.HandlerFunc) { f.routes[route] = h }

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   string(body),
		Auth:   r.Header.Get("Authorization"),
	})
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// callsTo returns the recorded calls for method and path, excluding pings.
func (f *fakeAPI) callsTo(method, path string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []events.ActivityMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg events.ActivityMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) messages() []events.ActivityMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ActivityMessage(nil), p.msgs...)
}

type testEnv struct {
	api    *fakeAPI
	remote *httptest.Server
	server *Server
	pub    *recordingPublisher
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	fake := newFakeAPI()
	remote := httptest.NewServer(fake)
	t.Cleanup(remote.Close)

	client, err := apiclient.New(remote.URL, apiclient.WithLogger(log.Discard()))
	require.NoError(t, err)

	pub := &recordingPublisher{}
	opts := Options{
		API:              client,
		Cookies:          session.DefaultCookieConfig(),
		CategoryCacheTTL: time.Minute,
		Events:           events.NewDispatcher(pub, 16, log.Discard()),
		Logger:           log.Discard(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	srv, err := NewServer(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &testEnv{api: fake, remote: remote, server: srv, pub: pub}
}

// do sends a request through the full middleware stack.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: testToken})
	return req
}

func htmx(req *http.Request, current string) *http.Request {
	req.Header.Set("HX-Request", "true")
	if current != "" {
		req.Header.Set("HX-Current-URL", current)
	}
	return req
}

func form(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func triggerPayload(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	require.NotEmpty(t, raw, "expected HX-Trigger header")
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func notification(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	n, ok := triggerPayload(t, rec)[EventShowNotification].(map[string]any)
	require.True(t, ok, "expected a notification")
	return n
}

func TestNewServerRequiresAPI(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	env.remote.Close()
	rec = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requests_total")
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/static/app.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
	assert.Contains(t, rec.Body.String(), "show-notification")
}

func TestRootRedirectsToDashboard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.DashboardPath, rec.Header().Get("Location"))

	rec = env.do(authed(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/expenses", rec.Header().Get("Location"))
}

func TestGuardRedirectsWithoutCredential(t *testing.T) {
	env := newTestEnv(t)

	t.Run("full page", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/dashboard/expenses?category=Food", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?next="+url.QueryEscape("/dashboard/expenses?category=Food"), rec.Header().Get("Location"))
	})

	t.Run("htmx partial returns to the issuing page", func(t *testing.T) {
		req := htmx(httptest.NewRequest(http.MethodGet, "/ui/expenses", nil), "http://example.com/dashboard/categories")
		rec := env.do(req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/login?next="+url.QueryEscape("/dashboard/categories"), rec.Header().Get("HX-Redirect"))
	})

	t.Run("mutations are guarded too", func(t *testing.T) {
		rec := env.do(form(http.MethodPost, "/categories", url.Values{"name": {"Food"}}))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Empty(t, env.api.callsTo(http.MethodPost, "/categories/"))
	})
}

func TestExpensesPageRenders(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(authed(httptest.NewRequest(http.MethodGet, "/dashboard/expenses", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "15 Jan 2024")
	assert.Contains(t, body, "$12.50")
	assert.Contains(t, body, "No description")
	assert.Contains(t, body, `<option value="Travel"`)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")

	calls := env.api.callsTo(http.MethodGet, "/expenses/")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer "+testToken, calls[0].Auth)
}

func TestCategoriesPageRenders(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(authed(httptest.NewRequest(http.MethodGet, "/dashboard/categories", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Travel")
	assert.Contains(t, rec.Body.String(), `hx-delete="/categories/2"`)
}

func TestExpenseListAcceptsBothListShapes(t *testing.T) {
	for name, body := range map[string]string{
		"paginated": `{"results":[{"id":3,"amount":4,"category":{"id":1,"name":"Food"},"description":"Lunch","date":"2024-02-01"}]}`,
		"bare":      `[{"id":3,"amount":4,"category":1,"category_detail":{"id":1,"name":"Food"},"description":"Lunch","date":"2024-02-01"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.api.on("GET /expenses/", jsonReply(http.StatusOK, body))

			rec := env.do(authed(htmx(httptest.NewRequest(http.MethodGet, "/ui/expenses", nil), "")))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Lunch")
			assert.Contains(t, rec.Body.String(), "Food")
			assert.Contains(t, rec.Body.String(), "$4.00")
		})
	}
}

func TestExpenseListUnexpectedShape(t *testing.T) {
	env := newTestEnv(t)
	env.api.on("GET /expenses/", jsonReply(http.StatusOK, `{"count":1}`))

	rec := env.do(authed(htmx(httptest.NewRequest(http.MethodGet, "/ui/expenses", nil), "")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No expenses found.")
	n := notification(t, rec)
	assert.Equal(t, "error", n["type"])
	assert.Equal(t, "Received unexpected data format from server", n["message"])
	assert.Nil(t, responseCookie(rec, session.CookieName), "a shape error must not touch the credential")
}

func TestExpenseListForwardsFilters(t *testing.T) {
	env := newTestEnv(t)
	env.api.on("GET /expenses/", jsonReply(http.StatusOK, `[]`))

	target := "/ui/expenses?category=Food&start_date=2024-01-01&end_date=2024-01-31&page=3"
	rec := env.do(authed(htmx(httptest.NewRequest(http.MethodGet, target, nil), "")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Try changing the filters")

	calls := env.api.callsTo(http.MethodGet, "/expenses/")
	require.Len(t, calls, 1)
	assert.Equal(t, url.Values{
		"category":   {"Food"},
		"start_date": {"2024-01-01"},
		"end_date":   {"2024-01-31"},
	}, calls[0].Query)
}

func TestRejectedCredentialExpiresSession(t *testing.T) {
	unauthorized := jsonReply(http.StatusUnauthorized, `{"detail":"Invalid token."}`)

	t.Run("full page", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("GET /expenses/", unauthorized)
		env.api.on("GET /categories/", unauthorized)

		rec := env.do(authed(httptest.NewRequest(http.MethodGet, "/dashboard/expenses", nil)))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		loc := rec.Header().Get("Location")
		assert.True(t, strings.HasPrefix(loc, "/login?next="+url.QueryEscape("/dashboard/expenses")), loc)
		assert.Contains(t, loc, "notice=expired")

		ck := responseCookie(rec, session.CookieName)
		require.NotNil(t, ck)
		assert.Empty(t, ck.Value)
		assert.Less(t, ck.MaxAge, 0)
	})

	t.Run("htmx mutation", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("DELETE /categories/4/", unauthorized)

		req := authed(htmx(httptest.NewRequest(http.MethodDelete, "/categories/4?confirm=yes", nil), "http://example.com/dashboard/categories"))
		rec := env.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("HX-Redirect"), "/login?next="+url.QueryEscape("/dashboard/categories"))
		require.NotNil(t, responseCookie(rec, session.CookieName))
	})
}

func TestLogin(t *testing.T) {
	t.Run("success stores the credential and honors next", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("POST /auth/login", jsonReply(http.StatusOK, `{"access":"fresh-token"}`))

		rec := env.do(form(http.MethodPost, "/login", url.Values{
			"email":    {"ana@example.com"},
			"password": {"secret"},
			"next":     {"/dashboard/categories"},
		}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard/categories?notice=login", rec.Header().Get("Location"))
		ck := responseCookie(rec, session.CookieName)
		require.NotNil(t, ck)
		assert.Equal(t, "fresh-token", ck.Value)
		assert.True(t, ck.HttpOnly)

		calls := env.api.callsTo(http.MethodPost, "/auth/login")
		require.Len(t, calls, 1)
		assert.Empty(t, calls[0].Auth)
		assert.JSONEq(t, `{"email":"ana@example.com","password":"secret"}`, calls[0].Body)
	})

	t.Run("off-site next falls back to the dashboard", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("POST /auth/login", jsonReply(http.StatusOK, `{"token":"t"}`))

		rec := env.do(form(http.MethodPost, "/login", url.Values{
			"email":    {"ana@example.com"},
			"password": {"secret"},
			"next":     {"//evil.example.com"},
		}))
		assert.Equal(t, "/dashboard?notice=login", rec.Header().Get("Location"))
	})

	t.Run("rejected credentials show the server message", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("POST /auth/login", jsonReply(http.StatusUnauthorized, `{"detail":"Invalid credentials"}`))

		rec := env.do(form(http.MethodPost, "/login", url.Values{
			"email":    {"ana@example.com"},
			"password": {"wrong"},
		}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
		assert.Contains(t, rec.Body.String(), `value="ana@example.com"`)
		assert.Nil(t, responseCookie(rec, session.CookieName))
	})

	t.Run("missing fields never reach the API", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(form(http.MethodPost, "/login", url.Values{"email": {"ana@example.com"}}))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email and password are required")
		assert.Empty(t, env.api.callsTo(http.MethodPost, "/auth/login"))
	})
}

func TestLoginPageRedirectsWhenAuthenticated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(authed(httptest.NewRequest(http.MethodGet, "/login?next=/dashboard/categories", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/categories", rec.Header().Get("Location"))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/login?notice=expired", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your session has expired. Please login again.")
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.RateLimitPerMinute = 2 })
	env.api.on("POST /auth/login", jsonReply(http.StatusUnauthorized, `{"detail":"nope"}`))

	creds := url.Values{"email": {"ana@example.com"}, "password": {"x"}}
	for i := 0; i < 2; i++ {
		rec := env.do(form(http.MethodPost, "/login", creds))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := env.do(form(http.MethodPost, "/login", creds))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Len(t, env.api.callsTo(http.MethodPost, "/auth/login"), 2)
}

func TestRegister(t *testing.T) {
	valid := url.Values{
		"email":      {"ana@example.com"},
		"password1":  {"pw"},
		"password2":  {"pw"},
		"first_name": {"Ana"},
		"last_name":  {"Lima"},
	}

	t.Run("success sends the user to login", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("POST /auth/register", jsonReply(http.StatusCreated, `{}`))

		rec := env.do(form(http.MethodPost, "/register", valid))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?notice=registered", rec.Header().Get("Location"))
		require.Len(t, env.api.callsTo(http.MethodPost, "/auth/register"), 1)
	})

	t.Run("mismatched passwords", func(t *testing.T) {
		env := newTestEnv(t)
		bad := url.Values{}
		for k, v := range valid {
			bad[k] = v
		}
		bad.Set("password2", "other")

		rec := env.do(form(http.MethodPost, "/register", bad))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Passwords do not match")
		assert.Empty(t, env.api.callsTo(http.MethodPost, "/auth/register"))
	})

	t.Run("server validation message is shown", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("POST /auth/register", jsonReply(http.StatusBadRequest, `{"non_field_errors":["Email already registered"]}`))

		rec := env.do(form(http.MethodPost, "/register", valid))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email already registered")
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(authed(httptest.NewRequest(http.MethodPost, "/logout", nil)))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?notice=logout", rec.Header().Get("Location"))
	ck := responseCookie(rec, session.CookieName)
	require.NotNil(t, ck)
	assert.Less(t, ck.MaxAge, 0)
}

func TestCreateExpense(t *testing.T) {
	env := newTestEnv(t)
	env.api.on("POST /expenses/", jsonReply(http.StatusCreated,
		`{"id":11,"amount":"12.50","category":"Food","description":"Lunch","date":"2024-01-15"}`))

	rec := env.do(authed(htmx(form(http.MethodPost, "/expenses", url.Values{
		"amount":      {"12.5"},
		"category":    {"Food"},
		"description": {"  Lunch  "},
		"date":        {"2024-01-15"},
	}), "")))

	require.Equal(t, http.StatusOK, rec.Code)
	payload := triggerPayload(t, rec)
	assert.Contains(t, payload, EventExpensesRefresh)
	assert.Contains(t, payload, EventModalClose)
	n := notification(t, rec)
	assert.Equal(t, "success", n["type"])
	assert.Equal(t, "Expense added successfully", n["message"])

	calls := env.api.callsTo(http.MethodPost, "/expenses/")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"amount":12.50,"category":"Food","description":"Lunch","date":"2024-01-15"}`, calls[0].Body)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, env.server.events.Close(ctx))
	msgs := env.pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "expense.created", msgs[0].RoutingKey())
	assert.Equal(t, int64(11), msgs[0].ID)
	assert.Equal(t, session.New(testToken).Fingerprint(), msgs[0].Session)
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name   string
		values url.Values
		want   string
	}{
		{"missing amount", url.Values{"category": {"Food"}, "date": {"2024-01-15"}}, "Amount, category, and date are required"},
		{"negative amount", url.Values{"amount": {"-3"}, "category": {"Food"}, "date": {"2024-01-15"}}, "Amount must be a positive number"},
		{"bad date", url.Values{"amount": {"3"}, "category": {"Food"}, "date": {"15/01/2024"}}, "Date must be in YYYY-MM-DD format"},
		{"exponent amount", url.Values{"amount": {"1e9999999"}, "category": {"Food"}, "date": {"2024-01-15"}}, "Amount must be a positive number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(authed(htmx(form(http.MethodPost, "/expenses", tt.values), "")))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.want, notification(t, rec)["message"])
		})
	}
	assert.Empty(t, env.api.callsTo(http.MethodPost, "/expenses/"))
}

func TestUpdateExpenseServerError(t *testing.T) {
	env := newTestEnv(t)
	env.api.on("PUT /expenses/7/", jsonReply(http.StatusBadRequest, `{"detail":"Category does not exist"}`))

	rec := env.do(authed(htmx(form(http.MethodPut, "/expenses/7", url.Values{
		"amount": {"3"}, "category": {"Nope"}, "date": {"2024-01-15"},
	}), "")))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Category does not exist", notification(t, rec)["message"])
	assert.NotContains(t, triggerPayload(t, rec), EventModalClose)
}

func TestDeleteExpenseRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.api.on("DELETE /expenses/5/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := env.do(authed(htmx(httptest.NewRequest(http.MethodDelete, "/expenses/5", nil), "")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete this expense?")
	assert.Contains(t, rec.Body.String(), `hx-delete="/expenses/5?confirm=yes"`)
	assert.Empty(t, env.api.callsTo(http.MethodDelete, "/expenses/5/"))

	rec = env.do(authed(htmx(httptest.NewRequest(http.MethodDelete, "/expenses/5?confirm=yes", nil), "")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, triggerPayload(t, rec), EventExpensesRefresh)
	assert.Equal(t, "Expense deleted successfully", notification(t, rec)["message"])
	assert.Len(t, env.api.callsTo(http.MethodDelete, "/expenses/5/"), 1)
}

func TestDeleteCategoryRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.api.on("DELETE /categories/4/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	before := env.api.count()

	rec := env.do(authed(htmx(httptest.NewRequest(http.MethodDelete, "/categories/4", nil), "")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete this category?")
	assert.Contains(t, rec.Body.String(), `hx-delete="/categories/4?confirm=yes"`)
	assert.Equal(t, before, env.api.count())

	rec = env.do(authed(htmx(httptest.NewRequest(http.MethodDelete, "/categories/4?confirm=yes", nil), "")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, triggerPayload(t, rec), EventCategoriesRefresh)
	assert.Equal(t, "Category deleted successfully", notification(t, rec)["message"])
	assert.Len(t, env.api.callsTo(http.MethodDelete, "/categories/4/"), 1)
	assert.Equal(t, before+1, env.api.count())
}

func TestDeleteWithInvalidID(t *testing.T) {
	env := newTestEnv(t)
	before := env.api.count()

	rec := env.do(authed(htmx(httptest.NewRequest(http.MethodDelete, "/categories/abc?confirm=yes", nil), "")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, before, env.api.count())
}

func TestCreateCategoryRejectsEmptyName(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(authed(htmx(form(http.MethodPost, "/categories", url.Values{"name": {"   "}}), "")))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Category name is required", notification(t, rec)["message"])
	assert.Empty(t, env.api.callsTo(http.MethodPost, "/categories/"))
}

func TestCategoryMutationRefreshesCachedOptions(t *testing.T) {
	env := newTestEnv(t)
	env.api.on("POST /categories/", jsonReply(http.StatusCreated, `{"id":3,"name":"Rent"}`))

	newForm := func() *httptest.ResponseRecorder {
		return env.do(authed(htmx(httptest.NewRequest(http.MethodGet, "/ui/expenses/new", nil), "")))
	}

	rec := newForm()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="`+todayISO()+`"`)
	newForm()
	assert.Len(t, env.api.callsTo(http.MethodGet, "/categories/"), 1, "second form served from cache")

	rec = env.do(authed(htmx(form(http.MethodPost, "/categories", url.Values{"name": {"Rent"}}), "")))
	require.Equal(t, http.StatusOK, rec.Code)
	payload := triggerPayload(t, rec)
	assert.Contains(t, payload, EventCategoriesRefresh)
	assert.Contains(t, payload, EventModalClose)
	assert.Equal(t, "Category created successfully", notification(t, rec)["message"])

	newForm()
	assert.Len(t, env.api.callsTo(http.MethodGet, "/categories/"), 2)
}

func TestEditExpenseFormPrefill(t *testing.T) {
	env := newTestEnv(t)
	target := "/ui/expenses/3/edit?" + url.Values{
		"amount":      {"12.50"},
		"category":    {"Travel"},
		"description": {"Train"},
		"date":        {"2024-01-15"},
	}.Encode()

	rec := env.do(authed(htmx(httptest.NewRequest(http.MethodGet, target, nil), "")))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hx-put="/expenses/3"`)
	assert.Contains(t, body, `value="12.50"`)
	assert.Contains(t, body, "Train")
	assert.Contains(t, body, `<option value="Travel" selected>`)
}

func TestMonthlyReport(t *testing.T) {
	t.Run("loaded", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("GET /expenses/monthly_report/", jsonReply(http.StatusOK, `{"month":"2024-01","total_expenses":123.45}`))

		rec := env.do(authed(htmx(httptest.NewRequest(http.MethodGet, "/ui/monthly-report", nil), "")))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "$123.45")
		assert.Equal(t, "Monthly report loaded", notification(t, rec)["message"])
	})

	t.Run("bad shape", func(t *testing.T) {
		env := newTestEnv(t)
		env.api.on("GET /expenses/monthly_report/", jsonReply(http.StatusOK, `{"month":"2024-01"}`))

		rec := env.do(authed(htmx(httptest.NewRequest(http.MethodGet, "/ui/monthly-report", nil), "")))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Could not load monthly report due to data format issues")
		assert.Equal(t, "error", notification(t, rec)["type"])
	})
}
