package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

type learnRequest struct {
	CategoryID int64 `json:"category_id"`
}

// handleLearnCategory assigns a category to a stored transaction and learns a rule from it
func (s *Server) handleLearnCategory(w http.ResponseWriter, r *http.Request) {
	userID := mustUserID(r)
	txID, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var req learnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.svc.Learner.Learn(r.Context(), txID, req.CategoryID, userID); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type draftRequest struct {
	Description  string           `json:"description"`
	MerchantName *string          `json:"merchant_name"`
	Amount       *decimal.Decimal `json:"amount"`
}

// handleCategorizePreview runs the matcher on a posted draft without storing anything
func (s *Server) handleCategorizePreview(w http.ResponseWriter, r *http.Request) {
	userID := mustUserID(r)
	var req draftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	draft := core.Transaction{
		UserID:       userID,
		Description:  req.Description,
		MerchantName: req.MerchantName,
	}
	if req.Amount != nil {
		draft.Amount = *req.Amount
	}

	result, err := s.svc.Matcher.Match(r.Context(), s.svc.Store, &draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newMatchView(result)).Write(w)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.Store.ListRules(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(rules, newRuleView)).Write(w)
}

type upsertRuleRequest struct {
	MerchantName       *string `json:"merchant_name"`
	DescriptionPattern *string `json:"description_pattern"`
	CategoryID         int64   `json:"category_id"`
}

// handleUpsertRule points the rule for a merchant or description at a category
func (s *Server) handleUpsertRule(w http.ResponseWriter, r *http.Request) {
	userID := mustUserID(r)
	var req upsertRuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	rule, err := s.svc.Rules.Upsert(r.Context(), s.svc.Store, userID, req.CategoryID, req.MerchantName, req.DescriptionPattern)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newRuleView(rule)).Write(w)
}
