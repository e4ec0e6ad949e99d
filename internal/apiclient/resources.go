package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"spendtrack/internal/core"
	"spendtrack/internal/session"
)

const (
	pathLogin         = "/auth/login"
	pathRegister      = "/auth/register"
	pathCategories    = "/categories/"
	pathExpenses      = "/expenses/"
	pathMonthlyReport = "/expenses/monthly_report/"
)

// Login exchanges credentials for a token. A 401 comes back as *AuthError
// carrying the server message; the session is left untouched.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	resp, err := c.do(ctx, nil, request{
		method: http.MethodPost,
		path:   pathLogin,
		body:   loginPayload{Email: strings.TrimSpace(creds.Email), Password: creds.Password},
		public: true,
	})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	var lr loginResponse
	if err := decodeInto("login", resp.Body, &lr); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	tok := lr.credential()
	if tok == "" {
		return "", fmt.Errorf("login: %w", &ShapeError{Resource: "login", Err: ErrMissingToken})
	}
	return tok, nil
}

func (c *Client) Register(ctx context.Context, reg core.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	_, err := c.do(ctx, nil, request{
		method: http.MethodPost,
		path:   pathRegister,
		body: registerPayload{
			Email:     strings.TrimSpace(reg.Email),
			Password1: reg.Password1,
			Password2: reg.Password2,
			FirstName: strings.TrimSpace(reg.FirstName),
			LastName:  strings.TrimSpace(reg.LastName),
		},
		public: true,
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (c *Client) ListCategories(ctx context.Context, s *session.Session) ([]core.Category, error) {
	resp, err := c.do(ctx, s, request{method: http.MethodGet, path: pathCategories})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	dtos, err := decodeList[categoryDTO]("categories", resp.Body)
	if err != nil {
		return []core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, s *session.Session, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	resp, err := c.do(ctx, s, request{
		method: http.MethodPost,
		path:   pathCategories,
		body:   categoryPayload{Name: strings.TrimSpace(in.Name)},
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return decodeCategory(resp.Body, in.Name), nil
}

func (c *Client) UpdateCategory(ctx context.Context, s *session.Session, id int64, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	resp, err := c.do(ctx, s, request{
		method: http.MethodPut,
		path:   idPath(pathCategories, id),
		body:   categoryPayload{Name: strings.TrimSpace(in.Name)},
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	cat := decodeCategory(resp.Body, in.Name)
	if cat.ID == 0 {
		cat.ID = id
	}
	return cat, nil
}

func (c *Client) DeleteCategory(ctx context.Context, s *session.Session, id int64) error {
	if _, err := c.do(ctx, s, request{method: http.MethodDelete, path: idPath(pathCategories, id)}); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

// decodeCategory reads the echoed category, falling back to the submitted
// name when the API answers with an empty or unexpected body.
func decodeCategory(body []byte, name string) core.Category {
	var d categoryDTO
	if decodeInto("category", body, &d) != nil || d.Name == "" {
		d.Name = strings.TrimSpace(name)
	}
	return d.toCore()
}

// ListExpenses fetches expenses matching f. Only the non-empty filter
// fields are sent as query parameters.
func (c *Client) ListExpenses(ctx context.Context, s *session.Session, f core.FilterParams) ([]core.Expense, error) {
	resp, err := c.do(ctx, s, request{method: http.MethodGet, path: pathExpenses, query: f.Query()})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	dtos, err := decodeList[expenseDTO]("expenses", resp.Body)
	if err != nil {
		return []core.Expense{}, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, s *session.Session, d core.ExpenseDraft) (core.Expense, error) {
	resp, err := c.do(ctx, s, request{method: http.MethodPost, path: pathExpenses, body: newExpensePayload(d)})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return decodeExpense(resp.Body, 0, d), nil
}

func (c *Client) UpdateExpense(ctx context.Context, s *session.Session, id int64, d core.ExpenseDraft) (core.Expense, error) {
	resp, err := c.do(ctx, s, request{method: http.MethodPut, path: idPath(pathExpenses, id), body: newExpensePayload(d)})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	return decodeExpense(resp.Body, id, d), nil
}

func (c *Client) DeleteExpense(ctx context.Context, s *session.Session, id int64) error {
	if _, err := c.do(ctx, s, request{method: http.MethodDelete, path: idPath(pathExpenses, id)}); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

// decodeExpense reads the echoed expense, falling back to the submitted
// draft. Callers re-fetch the list, so this is informational.
func decodeExpense(body []byte, id int64, d core.ExpenseDraft) core.Expense {
	var dto expenseDTO
	if decodeInto("expense", body, &dto) == nil && dto.ID != 0 {
		return dto.toCore()
	}
	return core.Expense{
		ID:          id,
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date,
	}
}

// MonthlyReport fetches the server-computed total for the current month.
func (c *Client) MonthlyReport(ctx context.Context, s *session.Session) (core.MonthlyReport, error) {
	resp, err := c.do(ctx, s, request{method: http.MethodGet, path: pathMonthlyReport})
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("monthly report: %w", err)
	}
	var dto monthlyReportDTO
	if err := decodeInto("monthly report", resp.Body, &dto); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("monthly report: %w", &ShapeError{Resource: "monthly report", Message: msgBadReport, Err: err})
	}
	r, err := dto.toCore()
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("monthly report: %w", err)
	}
	return r, nil
}
