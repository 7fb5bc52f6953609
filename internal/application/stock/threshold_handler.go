package stock

import (
	"context"
	"fmt"

	"github.com/bakehouse/backend/internal/domain/catalog"
	"github.com/bakehouse/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockAlert represents a stock level alert
type StockAlert struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	CurrentQuantity string `json:"current_quantity"`
	MinimumQuantity string `json:"minimum_quantity"`
	AlertType       string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// StockAlertNotifier is the interface for sending stock alerts.
// Implementations can support different channels (in-app, email, ...)
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockBelowThresholdHandler turns threshold events into alerts
type StockBelowThresholdHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewStockBelowThresholdHandler creates a new handler for stock below threshold events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{catalog.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*catalog.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", catalog.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			catalog.EventTypeStockBelowThreshold, event.EventType())
	}

	h.logger.Warn("stock below threshold detected",
		zap.String("product_id", thresholdEvent.ProductID),
		zap.String("product_name", thresholdEvent.Name),
		zap.String("current_quantity", thresholdEvent.CurrentQuantity.String()),
		zap.String("minimum_quantity", thresholdEvent.MinimumQuantity.String()),
	)

	alertType := "low_stock"
	if thresholdEvent.CurrentQuantity.LessThanOrEqual(decimal.Zero) {
		alertType = "out_of_stock"
	}

	alert := StockAlert{
		ProductID:       thresholdEvent.ProductID,
		ProductName:     thresholdEvent.Name,
		CurrentQuantity: thresholdEvent.CurrentQuantity.String(),
		MinimumQuantity: thresholdEvent.MinimumQuantity.String(),
		AlertType:       alertType,
	}

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// Notification failure must not fail the event handling
			h.logger.Error("failed to send stock alert notification",
				zap.String("product_id", alert.ProductID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// LoggingStockAlertNotifier is a notifier that only logs alerts, useful
// for development and as the default wiring
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("product_name", alert.ProductName),
		zap.String("current_qty", alert.CurrentQuantity),
		zap.String("minimum_qty", alert.MinimumQuantity),
	)
	return nil
}

// Interface guards
var (
	_ shared.EventHandler = (*StockBelowThresholdHandler)(nil)
	_ StockAlertNotifier  = (*LoggingStockAlertNotifier)(nil)
)
