package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/services"
)

// Syncer pulls and imports bank transactions for a set of connections
type Syncer interface {
	SyncConnections(ctx context.Context, userID int64, connectionIDs []int64) (services.ImportResult, error)
}

// ImportWorker runs bank imports requested through the queue
type ImportWorker struct {
	syncer  Syncer
	timeout time.Duration
}

func NewImportWorker(syncer Syncer, timeout time.Duration) *ImportWorker {
	return &ImportWorker{syncer: syncer, timeout: timeout}
}

// HandleImportRequest processes one import request from AMQP. Requests for
// connections that no longer exist are dropped instead of retried forever.
func (w *ImportWorker) HandleImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := w.syncer.SyncConnections(ctx, msg.UserID, msg.ConnectionIDs)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Dropping import request for unknown connection",
			"message_id", msg.MessageID,
			"user_id", msg.UserID,
			"error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync connections for user %d: %w", msg.UserID, err)
	}

	slog.InfoContext(ctx, "Import request completed",
		"message_id", msg.MessageID,
		"user_id", msg.UserID,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"filtered", result.Filtered,
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}
