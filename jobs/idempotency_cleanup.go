package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockline/stockline/internal/shared"
)

const defaultIdempotencyRetention = 7 * 24 * time.Hour

// IdempotencyCleaner prunes stale idempotency keys.
type IdempotencyCleaner struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

// NewIdempotencyCleaner constructs the cleaner.
func NewIdempotencyCleaner(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleaner {
	return &IdempotencyCleaner{store: store, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (c *IdempotencyCleaner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.OlderThan
	if retention <= 0 {
		retention = defaultIdempotencyRetention
	}

	removed, err := c.store.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	c.logger.Info("idempotency cleanup", slog.Int64("removed", removed))
	return nil
}
