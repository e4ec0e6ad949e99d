package core

import (
	"errors"
	"strings"
)

// ValidationError blocks a submission before any request is sent.
// Message is shown to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserMessage returns the notification text for the error.
func (e *ValidationError) UserMessage() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type (
	Credentials struct {
		Email    string
		Password string
	}

	Registration struct {
		Email     string
		Password1 string
		Password2 string
		FirstName string
		LastName  string
	}

	CategoryInput struct {
		Name string
	}

	// ExpenseInput is the raw expense form as submitted.
	ExpenseInput struct {
		Amount      string
		Category    string
		Description string
		Date        string
	}

	// ExpenseDraft is a checked ExpenseInput ready to be sent.
	ExpenseDraft struct {
		Amount      Money
		Category    string
		Description string
		Date        Date
	}
)

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return invalid("Email and password are required")
	}
	return nil
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password1 == "" || r.Password2 == "" ||
		strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return invalid("All fields are required")
	}
	if r.Password1 != r.Password2 {
		return invalid("Passwords do not match")
	}
	return nil
}

func (c CategoryInput) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("Category name is required")
	}
	return nil
}

// Draft validates the form and converts it into an ExpenseDraft.
func (in ExpenseInput) Draft() (ExpenseDraft, error) {
	if strings.TrimSpace(in.Amount) == "" || strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Date) == "" {
		return ExpenseDraft{}, invalid("Amount, category, and date are required")
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return ExpenseDraft{}, invalid("Amount must be a positive number")
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return ExpenseDraft{}, invalid("Date must be in YYYY-MM-DD format")
	}
	return ExpenseDraft{
		Amount:      amount,
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		Date:        date,
	}, nil
}

// InputFromExpense pre-fills the edit form with an existing expense.
func InputFromExpense(e Expense) ExpenseInput {
	return ExpenseInput{
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.ISO(),
	}
}
