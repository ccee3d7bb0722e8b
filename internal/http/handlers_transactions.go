package http

import (
	"net/http"

	"budget/internal/core"
)

// handleListTransactions lists the caller's newest transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), mustUserID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(txs, newTransactionView)).Write(w)
}

// handleTransactionSummary totals spending per category for the month or year
// containing as_of
func (s *Server) handleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	period, err := core.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := parseAsOf(r, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	top, err := queryInt(r, "top")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	summary, err := s.svc.Transactions.Summary(r.Context(), mustUserID(r), period, asOf, top)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newSpendingSummaryView(summary)).Write(w)
}
