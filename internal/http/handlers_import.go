package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/csvimport"
)

const maxStatementSize = 10 << 20

// statementBody returns the uploaded statement: the "file" part of a
// multipart form or the raw request body
func statementBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStatementSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(maxStatementSize); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %v", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New(`multipart form needs a "file" part`)
	}
	return file, nil
}

// handleImportCSV imports a bank statement export for the caller
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	body, err := statementBody(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	defer body.Close()

	records, malformed, err := csvimport.Read(body)
	if err != nil {
		if errors.Is(err, csvimport.ErrNoHeader) {
			writeError(w, r, fmt.Errorf("%w: %v", core.ErrValidation, err))
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}

	result, err := s.svc.Importer.Import(r.Context(), mustUserID(r), nil, records)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result.Malformed += malformed
	NewJSONResponse().Body(result).Write(w)
}

type connectRequest struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) handleConnectBank(w http.ResponseWriter, r *http.Request) {
	if s.svc.BankSync == nil {
		ErrorResponse(http.StatusServiceUnavailable, "bank access is not configured").Write(w)
		return
	}
	var req connectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	conn, err := s.svc.BankSync.Connect(r.Context(), mustUserID(r), req.AccessToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newBankConnectionView(conn)).Write(w)
}

func (s *Server) handleListBankConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.svc.Store.ListBankConnections(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(mapSlice(conns, newBankConnectionView)).Write(w)
}

// handleRefreshConnection queues an import for the worker when a queue is
// configured and syncs inline otherwise
func (s *Server) handleRefreshConnection(w http.ResponseWriter, r *http.Request) {
	userID := mustUserID(r)
	connID, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	switch {
	case s.svc.Queue != nil:
		if _, err := s.svc.Store.GetBankConnection(r.Context(), userID, connID); err != nil {
			writeError(w, r, err)
			return
		}
		msg := amqp.NewImportRequestMessage(userID, connID)
		if err := s.svc.Queue.PublishImportRequest(r.Context(), msg); err != nil {
			writeError(w, r, fmt.Errorf("enqueue import: %w", err))
			return
		}
		NewJSONResponse().Status(http.StatusAccepted).Body(map[string]string{"message_id": msg.MessageID}).Write(w)

	case s.svc.BankSync != nil:
		result, err := s.svc.BankSync.SyncConnection(r.Context(), userID, connID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		NewJSONResponse().Body(result).Write(w)

	default:
		ErrorResponse(http.StatusServiceUnavailable, "bank access is not configured").Write(w)
	}
}
