package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

func (s *Server) handleListFilterRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.Filters.ListRules(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(rules, newFilterRuleView)).Write(w)
}

type filterRuleRequest struct {
	DescriptionPattern *string          `json:"description_pattern"`
	MerchantName       *string          `json:"merchant_name"`
	MinAmount          *decimal.Decimal `json:"min_amount"`
	MaxAmount          *decimal.Decimal `json:"max_amount"`
}

func (s *Server) handleCreateFilterRule(w http.ResponseWriter, r *http.Request) {
	var req filterRuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	created, err := s.svc.Filters.CreateRule(r.Context(), mustUserID(r), core.FilterRule{
		DescriptionPattern: req.DescriptionPattern,
		MerchantName:       req.MerchantName,
		MinAmount:          req.MinAmount,
		MaxAmount:          req.MaxAmount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newFilterRuleView(created)).Write(w)
}

type filterRulePatchRequest struct {
	DescriptionPattern *string          `json:"description_pattern"`
	MerchantName       *string          `json:"merchant_name"`
	MinAmount          *decimal.Decimal `json:"min_amount"`
	MaxAmount          *decimal.Decimal `json:"max_amount"`
	IsActive           *bool            `json:"is_active"`
}

// handleUpdateFilterRule applies a partial update. Omitted fields are kept;
// an empty string clears a text criterion.
func (s *Server) handleUpdateFilterRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req filterRulePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	updated, err := s.svc.Filters.UpdateRule(r.Context(), mustUserID(r), id, core.FilterRulePatch(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newFilterRuleView(updated)).Write(w)
}

func (s *Server) handleDeleteFilterRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Filters.DeleteRule(r.Context(), mustUserID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type filterCheckRequest struct {
	Description  *string          `json:"description"`
	MerchantName *string          `json:"merchant_name"`
	Amount       *decimal.Decimal `json:"amount"`
}

// handleCheckFilter reports whether an incoming transaction would be skipped
func (s *Server) handleCheckFilter(w http.ResponseWriter, r *http.Request) {
	var req filterCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	skip, err := s.svc.Filters.ShouldSkip(r.Context(), mustUserID(r), core.FilterCandidate(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]bool{"skip": skip}).Write(w)
}
