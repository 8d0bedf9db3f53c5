package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockline/stockline/internal/inventory"
)

// LowStockScanner sweeps the ledger for products under the threshold and
// enqueues a restock notification mail.
type LowStockScanner struct {
	inventory *inventory.Service
	client    *Client
	logger    *slog.Logger
	notifyTo  string
}

// NewLowStockScanner constructs the scanner. client and notifyTo may be
// empty when notifications are not configured.
func NewLowStockScanner(svc *inventory.Service, client *Client, logger *slog.Logger, notifyTo string) *LowStockScanner {
	return &LowStockScanner{inventory: svc, client: client, logger: logger, notifyTo: notifyTo}
}

// Handle processes TaskLowStockScan tasks.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	stocks, err := s.inventory.ListLowStock(ctx, payload.Threshold)
	if err != nil {
		return err
	}
	if len(stocks) == 0 {
		return nil
	}

	s.logger.Warn("low stock detected", slog.Int("products", len(stocks)))
	for _, stock := range stocks {
		s.logger.Warn("low stock",
			slog.Int64("product_id", stock.ProductID),
			slog.Int64("quantity", stock.Quantity))
	}

	if s.client != nil && s.notifyTo != "" {
		body, _ := json.Marshal(stocks)
		_, err = s.client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      s.notifyTo,
			Subject: "Low stock report " + time.Now().UTC().Format("2006-01-02"),
			Body:    string(body),
		})
		return err
	}
	return nil
}
