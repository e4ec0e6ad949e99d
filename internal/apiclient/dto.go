package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"spendtrack/internal/core"
)

const unknownCategory = "Unknown"

type categoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (d categoryDTO) toCore() core.Category {
	return core.Category{ID: d.ID, Name: d.Name}
}

// expenseDTO is an expense as the API returns it. The category field comes
// as a name, an {id, name} object, or a bare id with the details under
// category_detail.
type expenseDTO struct {
	ID             int64           `json:"id"`
	Amount         core.Money      `json:"amount"`
	Category       json.RawMessage `json:"category"`
	CategoryDetail *categoryDTO    `json:"category_detail"`
	Description    *string         `json:"description"`
	Date           string          `json:"date"`
}

func (d expenseDTO) toCore() core.Expense {
	name, id := normalizeCategory(d.Category, d.CategoryDetail)
	e := core.Expense{
		ID:         d.ID,
		Amount:     d.Amount,
		Category:   name,
		CategoryID: id,
	}
	if d.Description != nil {
		e.Description = *d.Description
	}
	// an unparseable date stays zero and renders as "Invalid date"
	e.Date, _ = core.ParseDate(d.Date)
	return e
}

// normalizeCategory resolves the polymorphic category field into a display
// name and, when known, the category id.
func normalizeCategory(raw json.RawMessage, detail *categoryDTO) (string, int64) {
	if detail != nil && strings.TrimSpace(detail.Name) != "" {
		return detail.Name, detail.ID
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return unknownCategory, 0
	}

	switch raw[0] {
	case '"':
		var name string
		if json.Unmarshal(raw, &name) == nil && strings.TrimSpace(name) != "" {
			return name, 0
		}
	case '{':
		var obj categoryDTO
		if json.Unmarshal(raw, &obj) == nil && strings.TrimSpace(obj.Name) != "" {
			return obj.Name, obj.ID
		}
	default:
		var id int64
		if json.Unmarshal(raw, &id) == nil {
			return unknownCategory, id
		}
	}
	return unknownCategory, 0
}

// expensePayload is the body sent on create and update. The category is
// sent by name.
type expensePayload struct {
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
}

func newExpensePayload(d core.ExpenseDraft) expensePayload {
	return expensePayload{
		Amount:      d.Amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date.ISO(),
	}
}

type categoryPayload struct {
	Name string `json:"name"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse accepts the token under the JWT key (access) or the
// DRF token keys (token, key).
type loginResponse struct {
	Access string `json:"access"`
	Token  string `json:"token"`
	Key    string `json:"key"`
}

func (r loginResponse) credential() string {
	for _, v := range []string{r.Access, r.Token, r.Key} {
		if v != "" {
			return v
		}
	}
	return ""
}

type registerPayload struct {
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type monthlyReportDTO struct {
	Month         any         `json:"month"`
	TotalExpenses *core.Money `json:"total_expenses"`
}

func (d monthlyReportDTO) toCore() (core.MonthlyReport, error) {
	if d.TotalExpenses == nil {
		return core.MonthlyReport{}, &ShapeError{Resource: "monthly report", Message: msgBadReport}
	}
	r := core.MonthlyReport{Total: *d.TotalExpenses}
	switch m := d.Month.(type) {
	case nil:
	case string:
		r.Month = m
	case float64:
		r.Month = fmt.Sprintf("%.0f", m)
	default:
		r.Month = fmt.Sprint(m)
	}
	return r, nil
}
