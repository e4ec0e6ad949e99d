package http

import (
	"net/http"
	"strconv"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/core"
	"spendtrack/internal/events"
	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

func (s *Server) handleCategoriesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cats, err := s.api.ListCategories(ctx, session.FromContext(ctx))
	view := categoriesPage{
		page: page{Title: "Categories", Active: "categories", Notice: lookupNotice(r)},
		List: newCategoryListView(cats),
	}
	if err != nil {
		if s.listFailure(w, r, log.ComponentCategory, err) {
			return
		}
		view.List.Error = apiclient.UserMessage(err)
		view.Notice = errorNotice(view.List.Error)
	}
	s.render(w, r, nil, "categories.html", view)
}

// handleCategoryList always reads through to the API so the list reflects
// changes made elsewhere. The picker cache is refreshed on the way.
func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	s.categories.Invalidate(sess)
	cats, err := s.categories.Get(ctx, sess)
	b := NewHTMXResponse()
	view := newCategoryListView(cats)
	if err != nil {
		if s.listFailure(w, r, log.ComponentCategory, err) {
			return
		}
		view.Error = apiclient.UserMessage(err)
		b.TriggerErrorNotification(view.Error)
	}
	s.render(w, r, b, "category_list", view)
}

func (s *Server) handleNewCategoryForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, nil, "category_form", categoryFormView{})
}

func (s *Server) handleEditCategoryForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.ComponentCategory, log.OpRead, err)
		return
	}
	s.render(w, r, nil, "category_form", categoryFormView{
		ID:    id,
		Input: parseCategoryInput(queryValues(r.URL.Query())),
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	in, ok := s.categoryInput(w, r)
	if !ok {
		return
	}
	cat, err := s.api.CreateCategory(ctx, sess, in)
	if err != nil {
		s.fail(w, r, log.ComponentCategory, log.OpCreate, err)
		return
	}

	s.categories.Invalidate(sess)
	s.recordMutation(ctx, log.ComponentCategory, log.OpCreate, events.ActionCreated, events.ResourceCategory, cat.ID, sess)
	NewHTMXResponse().
		TriggerCategoriesRefresh().
		TriggerModalClose().
		TriggerSuccessNotification("Category created successfully").
		Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.ComponentCategory, log.OpUpdate, err)
		return
	}
	in, ok := s.categoryInput(w, r)
	if !ok {
		return
	}
	if _, err := s.api.UpdateCategory(ctx, sess, id, in); err != nil {
		s.fail(w, r, log.ComponentCategory, log.OpUpdate, err)
		return
	}

	s.categories.Invalidate(sess)
	s.recordMutation(ctx, log.ComponentCategory, log.OpUpdate, events.ActionUpdated, events.ResourceCategory, id, sess)
	NewHTMXResponse().
		TriggerCategoriesRefresh().
		TriggerModalClose().
		TriggerSuccessNotification("Category updated successfully").
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, log.ComponentCategory, log.OpDelete, err)
		return
	}
	if !confirmed(r) {
		s.render(w, r, nil, "confirm_dialog", confirmView{
			Title:   "Delete category",
			Message: "Are you sure you want to delete this category?",
			Action:  "/categories/" + strconv.FormatInt(id, 10) + "?confirm=yes",
		})
		return
	}

	if err := s.api.DeleteCategory(ctx, sess, id); err != nil {
		s.fail(w, r, log.ComponentCategory, log.OpDelete, err)
		return
	}

	s.categories.Invalidate(sess)
	s.recordMutation(ctx, log.ComponentCategory, log.OpDelete, events.ActionDeleted, events.ResourceCategory, id, sess)
	NewHTMXResponse().
		TriggerCategoriesRefresh().
		TriggerModalClose().
		TriggerSuccessNotification("Category deleted successfully").
		Write(w)
}

func (s *Server) categoryInput(w http.ResponseWriter, r *http.Request) (core.CategoryInput, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return core.CategoryInput{}, false
	}
	in := parseCategoryInput(p)
	if err := in.Validate(); err != nil {
		s.fail(w, r, log.ComponentCategory, log.OpValidate, err)
		return core.CategoryInput{}, false
	}
	return in, true
}
