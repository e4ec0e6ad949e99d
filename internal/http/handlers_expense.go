package http

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/core"
	"spendtrack/internal/events"
	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

// onlyUnauthorized lets errgroup cancel sibling fetches when the credential
// is rejected. Any other failure is rendered in place by the caller.
func onlyUnauthorized(err error) error {
	if apiclient.IsUnauthorized(err) {
		return err
	}
	return nil
}

func (s *Server) handleExpensesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	filter := core.ParseFilterParams(r.URL.Query())

	var (
		items           []core.Expense
		cats            []core.Category
		listErr, catErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, listErr = s.api.ListExpenses(gctx, sess, filter)
		return onlyUnauthorized(listErr)
	})
	g.Go(func() error {
		cats, catErr = s.categories.Get(gctx, sess)
		return onlyUnauthorized(catErr)
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpList, err)
		return
	}

	view := expensesPage{
		page:    page{Title: "Expenses", Active: "expenses", Notice: lookupNotice(r)},
		List:    newExpenseListView(items, filter),
		Filters: filterView{Filter: filter, Categories: cats},
	}
	if listErr != nil {
		logFetchError(r, log.ComponentExpense, log.OpList, listErr)
		view.List.Error = apiclient.UserMessage(listErr)
		view.Notice = errorNotice(view.List.Error)
	}
	if catErr != nil {
		logFetchError(r, log.ComponentCategory, log.OpList, catErr)
		view.Notice = errorNotice(apiclient.UserMessage(catErr))
	}
	s.render(w, r, nil, "expenses.html", view)
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := core.ParseFilterParams(r.URL.Query())

	items, err := s.api.ListExpenses(ctx, session.FromContext(ctx), filter)
	b := NewHTMXResponse()
	if err != nil {
		if s.listFailure(w, r, log.ComponentExpense, err) {
			return
		}
		b.TriggerErrorNotification(apiclient.UserMessage(err))
	}

	view := newExpenseListView(items, filter)
	if err != nil {
		view.Error = apiclient.UserMessage(err)
	}
	log.FromContext(ctx).WithComponent(log.ComponentExpense).DebugContext(ctx, "Expenses listed",
		log.FieldFilterActive, filter.Active(),
		"count", len(view.Rows))
	s.render(w, r, b, "expense_list", view)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	cats, b, ok := s.categoryOptions(w, r)
	if !ok {
		return
	}
	s.render(w, r, b, "filters", filterView{
		Filter:     core.ParseFilterParams(r.URL.Query()),
		Categories: cats,
	})
}

func (s *Server) handleNewExpenseForm(w http.ResponseWriter, r *http.Request) {
	cats, b, ok := s.categoryOptions(w, r)
	if !ok {
		return
	}
	s.render(w, r, b, "expense_form", expenseFormView{
		Input:      core.ExpenseInput{Date: todayISO()},
		Categories: cats,
	})
}

// handleEditExpenseForm pre-fills the form from the query string the list
// row put in its edit link, so no extra API call is needed.
func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpRead, err)
		return
	}
	cats, b, ok := s.categoryOptions(w, r)
	if !ok {
		return
	}
	s.render(w, r, b, "expense_form", expenseFormView{
		ID:         id,
		Input:      parseExpenseInput(queryValues(r.URL.Query())),
		Categories: cats,
	})
}

// categoryOptions loads the category picker. A failure other than a
// rejected credential yields an empty picker and an error notification.
func (s *Server) categoryOptions(w http.ResponseWriter, r *http.Request) ([]core.Category, *HTMXResponseBuilder, bool) {
	b := NewHTMXResponse()
	cats, err := s.categories.Get(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		if s.listFailure(w, r, log.ComponentCategory, err) {
			return nil, nil, false
		}
		b.TriggerErrorNotification(apiclient.UserMessage(err))
	}
	return cats, b, true
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	draft, ok := s.expenseDraft(w, r)
	if !ok {
		return
	}
	exp, err := s.api.CreateExpense(ctx, sess, draft)
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpCreate, err)
		return
	}

	s.recordMutation(ctx, log.ComponentExpense, log.OpCreate, events.ActionCreated, events.ResourceExpense, exp.ID, sess)
	NewHTMXResponse().
		TriggerExpensesRefresh().
		TriggerModalClose().
		TriggerSuccessNotification("Expense added successfully").
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpUpdate, err)
		return
	}
	draft, ok := s.expenseDraft(w, r)
	if !ok {
		return
	}
	if _, err := s.api.UpdateExpense(ctx, sess, id, draft); err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpUpdate, err)
		return
	}

	s.recordMutation(ctx, log.ComponentExpense, log.OpUpdate, events.ActionUpdated, events.ResourceExpense, id, sess)
	NewHTMXResponse().
		TriggerExpensesRefresh().
		TriggerModalClose().
		TriggerSuccessNotification("Expense updated successfully").
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpDelete, err)
		return
	}
	if !confirmed(r) {
		s.render(w, r, nil, "confirm_dialog", confirmView{
			Title:   "Delete expense",
			Message: "Are you sure you want to delete this expense?",
			Action:  "/expenses/" + strconv.FormatInt(id, 10) + "?confirm=yes",
		})
		return
	}

	if err := s.api.DeleteExpense(ctx, sess, id); err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpDelete, err)
		return
	}

	s.recordMutation(ctx, log.ComponentExpense, log.OpDelete, events.ActionDeleted, events.ResourceExpense, id, sess)
	NewHTMXResponse().
		TriggerExpensesRefresh().
		TriggerModalClose().
		TriggerSuccessNotification("Expense deleted successfully").
		Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := s.api.MonthlyReport(ctx, session.FromContext(ctx))
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.fail(w, r, log.ComponentExpense, log.OpReport, err)
			return
		}
		logFetchError(r, log.ComponentExpense, log.OpReport, err)
		msg := apiclient.UserMessage(err)
		s.render(w, r, NewHTMXResponse().TriggerErrorNotification(msg), "monthly_report", reportView{Error: msg})
		return
	}

	s.render(w, r, NewHTMXResponse().TriggerSuccessNotification("Monthly report loaded"), "monthly_report", reportView{Report: report})
}

// expenseDraft parses and validates the submitted expense form. Invalid
// input is answered here and never reaches the API.
func (s *Server) expenseDraft(w http.ResponseWriter, r *http.Request) (core.ExpenseDraft, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return core.ExpenseDraft{}, false
	}
	draft, err := parseExpenseInput(p).Draft()
	if err != nil {
		s.fail(w, r, log.ComponentExpense, log.OpValidate, err)
		return core.ExpenseDraft{}, false
	}
	return draft, true
}

// recordMutation logs a successful change and publishes its activity message.
func (s *Server) recordMutation(ctx context.Context, component, op string, action events.Action, resource events.Resource, id int64, sess *session.Session) {
	log.NewStructuredLogger(log.FromContext(ctx).WithComponent(component)).LogMutation(ctx, op, string(resource), id)
	s.events.Emit(events.NewActivityMessage(action, resource, id, sess.Fingerprint()))
}
