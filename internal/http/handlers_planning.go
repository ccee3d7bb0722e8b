package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Planning.ListCategories(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(cats, newCategoryView)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c, err := s.svc.Planning.CreateCategory(r.Context(), mustUserID(r), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newCategoryView(c)).Write(w)
}

func (s *Server) handleCreateMainCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	m, err := s.svc.Planning.CreateMainCategory(r.Context(), mustUserID(r), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(categoryView{ID: m.ID, Name: m.Name}).Write(w)
}

func (s *Server) handleListMainCategories(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.Planning.ListMainCategories(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(groups, func(m core.MainCategory) mainCategoryView {
		return mainCategoryView{ID: m.ID, Name: m.Name}
	})).Write(w)
}

// handleGetMainCategory returns a group with its member categories
func (s *Server) handleGetMainCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	group, members, err := s.svc.Planning.GetMainCategory(r.Context(), mustUserID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mainCategoryView{
		ID:         group.ID,
		Name:       group.Name,
		Categories: mapSlice(members, newCategoryView),
	}).Write(w)
}

func nestedIDs(r *http.Request) (mainCategoryID, categoryID int64, err error) {
	if mainCategoryID, err = pathID(r, "id"); err != nil {
		return 0, 0, err
	}
	if categoryID, err = pathID(r, "categoryID"); err != nil {
		return 0, 0, err
	}
	return mainCategoryID, categoryID, nil
}

func (s *Server) handleAddToMainCategory(w http.ResponseWriter, r *http.Request) {
	groupID, categoryID, err := nestedIDs(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Planning.AddCategoryToMainCategory(r.Context(), mustUserID(r), groupID, categoryID); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleRemoveFromMainCategory(w http.ResponseWriter, r *http.Request) {
	groupID, categoryID, err := nestedIDs(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Planning.RemoveCategoryFromMainCategory(r.Context(), mustUserID(r), groupID, categoryID); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type planRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// handleEnsurePlan returns the plan for a month, creating it on first use
func (s *Server) handleEnsurePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, err := s.svc.Planning.EnsurePlan(r.Context(), mustUserID(r), req.Year, req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newPlanView(p)).Write(w)
}

// handleListPlans lists plans of the year query parameter, or all plans
func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	plans, err := s.svc.Planning.ListPlans(r.Context(), mustUserID(r), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(plans, newPlanView)).Write(w)
}

type categoryLimitRequest struct {
	CategoryID int64            `json:"category_id"`
	Limit      *decimal.Decimal `json:"limit"`
}

func (s *Server) handleSetCategoryLimit(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req categoryLimitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.Limit == nil {
		ErrorResponse(http.StatusUnprocessableEntity, "limit is required").Write(w)
		return
	}

	l, err := s.svc.Planning.SetCategoryLimit(r.Context(), mustUserID(r), planID, req.CategoryID, *req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newCategoryLimitView(l)).Write(w)
}

func (s *Server) handleListCategoryLimits(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	limits, err := s.svc.Planning.ListCategoryLimits(r.Context(), mustUserID(r), planID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(limits, newCategoryLimitView)).Write(w)
}

func (s *Server) handleDeleteCategoryLimit(w http.ResponseWriter, r *http.Request) {
	planID, categoryID, err := nestedIDs(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Planning.DeleteCategoryLimit(r.Context(), mustUserID(r), planID, categoryID); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleRareExpensesSummary projects rare expenses over the twelve months starting at as_of
func (s *Server) handleRareExpensesSummary(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	summary, err := s.svc.Rare.Summary(r.Context(), mustUserID(r), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newRareSummaryView(summary)).Write(w)
}
