package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/core"
	"spendtrack/internal/events"
	"spendtrack/internal/log"
	"spendtrack/internal/middleware/ratelimit"
	"spendtrack/internal/middleware/security"
	"spendtrack/internal/middleware/trace"
	"spendtrack/internal/session"
	appweb "spendtrack/web"
)

// API is the part of the expenses API client the web front end uses.
type API interface {
	Login(ctx context.Context, creds core.Credentials) (string, error)
	Register(ctx context.Context, reg core.Registration) error

	ListCategories(ctx context.Context, s *session.Session) ([]core.Category, error)
	CreateCategory(ctx context.Context, s *session.Session, in core.CategoryInput) (core.Category, error)
	UpdateCategory(ctx context.Context, s *session.Session, id int64, in core.CategoryInput) (core.Category, error)
	DeleteCategory(ctx context.Context, s *session.Session, id int64) error

	ListExpenses(ctx context.Context, s *session.Session, f core.FilterParams) ([]core.Expense, error)
	CreateExpense(ctx context.Context, s *session.Session, d core.ExpenseDraft) (core.Expense, error)
	UpdateExpense(ctx context.Context, s *session.Session, id int64, d core.ExpenseDraft) (core.Expense, error)
	DeleteExpense(ctx context.Context, s *session.Session, id int64) error

	MonthlyReport(ctx context.Context, s *session.Session) (core.MonthlyReport, error)
	Ping(ctx context.Context) error
}

// Options configures NewServer.
type Options struct {
	Addr string
	API  API

	Cookies            session.CookieConfig
	RateLimitPerMinute int
	CategoryCacheTTL   time.Duration
	TrustedProxies     []string

	// Events receives activity messages for successful mutations. Optional.
	Events *events.Dispatcher
	Logger *log.Logger
}

const (
	maxCachedSessions    = 500
	cacheCleanupInterval = 5 * time.Minute
	readyTimeout         = 3 * time.Second
)

type Server struct {
	http.Server
	api        API
	templates  *template.Template
	cookies    *session.Cookies
	categories *cache.CategoryOptions
	caches     *cache.Manager
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	events     *events.Dispatcher
	logger     *log.Logger
	started    time.Time

	shutdownOnce sync.Once
}

// NewServer parses the templates, wires middleware and routes, and returns
// a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.API == nil {
		return nil, errors.New("http: API client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	rl := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		api:       opts.API,
		templates: t,
		cookies:   session.NewCookies(opts.Cookies),
		limiter:   ratelimit.NewLimiter(rl),
		detector:  detector,
		events:    opts.Events,
		logger:    logger,
		started:   time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, detector.ExtractClientIP)
	s.categories = cache.NewCategoryOptions(opts.API.ListCategories, maxCachedSessions, opts.CategoryCacheTTL)

	cacheLog := logger.WithComponent(log.ComponentCache)
	s.caches = cache.NewManager(func(removed int) {
		cacheLog.Debug("Cache cleanup completed", "entries_removed", removed)
	})
	s.caches.Register(s.categories)
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = headers.Middleware(h)
	h = detector.Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	guard := session.Guard(s.cookies)
	protected := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(guard(h))
	}
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", limited(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.Handle("POST /register", limited(http.HandlerFunc(s.handleRegister)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", redirectTo(session.DashboardPath))
	mux.Handle("GET /dashboard", protected(redirectTo("/dashboard/expenses")))
	mux.Handle("GET /dashboard/expenses", protected(s.handleExpensesPage))
	mux.Handle("GET /dashboard/categories", protected(s.handleCategoriesPage))

	mux.Handle("GET /ui/expenses", protected(s.handleExpenseList))
	mux.Handle("GET /ui/expenses/new", protected(s.handleNewExpenseForm))
	mux.Handle("GET /ui/expenses/{id}/edit", protected(s.handleEditExpenseForm))
	mux.Handle("GET /ui/filters", protected(s.handleFilters))
	mux.Handle("GET /ui/monthly-report", protected(s.handleMonthlyReport))
	mux.Handle("GET /ui/categories", protected(s.handleCategoryList))
	mux.Handle("GET /ui/categories/new", protected(s.handleNewCategoryForm))
	mux.Handle("GET /ui/categories/{id}/edit", protected(s.handleEditCategoryForm))

	mux.Handle("POST /expenses", protected(s.handleCreateExpense))
	mux.Handle("PUT /expenses/{id}", protected(s.handleUpdateExpense))
	mux.Handle("DELETE /expenses/{id}", protected(s.handleDeleteExpense))
	mux.Handle("POST /categories", protected(s.handleCreateCategory))
	mux.Handle("PUT /categories/{id}", protected(s.handleUpdateCategory))
	mux.Handle("DELETE /categories/{id}", protected(s.handleDeleteCategory))
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session.Redirect(w, r, target)
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many attempts. Please try again later.").Write(w)
}

// Shutdown stops background work, drains connections and flushes pending
// activity messages.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		if s.events != nil {
			if err := s.events.Close(ctx); err != nil {
				s.logger.Warn("Failed to close activity publisher", log.FieldError, err.Error())
			}
		}
	})
	return shutdownErr
}
