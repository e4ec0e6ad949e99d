package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/log"
	appweb "spendtrack/web"
)

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"today": todayISO,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func todayISO() string {
	return time.Now().Format(core.DateLayout)
}

// notice is a notification shown when a full page loads, used where the
// previous response was a redirect and could not carry an HX-Trigger.
type notice struct {
	Type     NotificationType
	Message  string
	Duration int
}

const (
	noticeLogin      = "login"
	noticeRegistered = "registered"
	noticeLogout     = "logout"
	noticeExpired    = "expired"
)

var notices = map[string]notice{
	noticeLogin:      {NotificationSuccess, "Login successful!", successDuration},
	noticeRegistered: {NotificationSuccess, "Registration successful! Please login.", successDuration},
	noticeLogout:     {NotificationSuccess, "Logged out successfully", successDuration},
	noticeExpired:    {NotificationError, "Your session has expired. Please login again.", errorDuration},
}

func errorNotice(msg string) *notice {
	return &notice{Type: NotificationError, Message: msg, Duration: errorDuration}
}

func lookupNotice(r *http.Request) *notice {
	if n, ok := notices[r.URL.Query().Get("notice")]; ok {
		return &n
	}
	return nil
}

// withNotice appends notice=code to a local URL.
func withNotice(target, code string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("notice", code)
	u.RawQuery = q.Encode()
	return u.RequestURI()
}

type page struct {
	Title  string
	Active string
	Notice *notice
}

type authPage struct {
	page
	Next      string
	Email     string
	FirstName string
	LastName  string
	Error     string
}

type expensesPage struct {
	page
	List    expenseListView
	Filters filterView
}

type categoriesPage struct {
	page
	List categoryListView
}

type expenseRow struct {
	core.Expense
	EditURL string
}

type expenseListView struct {
	Rows         []expenseRow
	FilterActive bool
	Error        string
}

func newExpenseListView(items []core.Expense, f core.FilterParams) expenseListView {
	rows := make([]expenseRow, 0, len(items))
	for _, e := range items {
		in := core.InputFromExpense(e)
		q := url.Values{
			"amount":      {in.Amount},
			"category":    {in.Category},
			"description": {in.Description},
			"date":        {in.Date},
		}
		rows = append(rows, expenseRow{
			Expense: e,
			EditURL: "/ui/expenses/" + strconv.FormatInt(e.ID, 10) + "/edit?" + q.Encode(),
		})
	}
	return expenseListView{Rows: rows, FilterActive: f.Active()}
}

type filterView struct {
	Filter     core.FilterParams
	Categories []core.Category
}

type expenseFormView struct {
	ID         int64
	Input      core.ExpenseInput
	Categories []core.Category
	Error      string
}

func (v expenseFormView) Editing() bool { return v.ID != 0 }

type categoryRow struct {
	core.Category
	EditURL string
}

type categoryListView struct {
	Rows  []categoryRow
	Error string
}

func newCategoryListView(items []core.Category) categoryListView {
	rows := make([]categoryRow, 0, len(items))
	for _, c := range items {
		rows = append(rows, categoryRow{
			Category: c,
			EditURL:  "/ui/categories/" + strconv.FormatInt(c.ID, 10) + "/edit?" + url.Values{"name": {c.Name}}.Encode(),
		})
	}
	return categoryListView{Rows: rows}
}

type categoryFormView struct {
	ID    int64
	Input core.CategoryInput
	Error string
}

func (v categoryFormView) Editing() bool { return v.ID != 0 }

// confirmView asks before a destructive request. Action is repeated with
// confirm=yes when the user accepts.
type confirmView struct {
	Title   string
	Message string
	Action  string
}

type reportView struct {
	Report core.MonthlyReport
	Error  string
}

func (s *Server) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// render writes a full page or fragment. Templates are executed into a
// buffer first so a failure never leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	body, err := s.execute(name, data)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpRender,
			"template", name)
		InternalServerError("Template error").Write(w)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.BodyHTML(body).Write(w)
}
