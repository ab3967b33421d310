package inventory

import (
	"context"
	"fmt"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockBelowThresholdHandler handles StockBelowThreshold events
// and hands a low-stock alert to the notifier. It runs after commit: a
// notifier failure is logged and never reaches the caller of the movement.
type StockBelowThresholdHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// StockAlertNotifier is the interface for sending stock alerts.
// The production implementation enqueues a background task.
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	EventID      string `json:"event_id"`
	TenantID     string `json:"tenant_id"`
	StockItemID  string `json:"stock_item_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	CurrentLevel int    `json:"current_level"`
	MinThreshold int    `json:"min_threshold"`
	AlertType    string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// Subject is the notification subject line
func (a StockAlert) Subject() string {
	return "ALERTE STOCK : " + a.Name
}

// Message is the notification body
func (a StockAlert) Message() string {
	return fmt.Sprintf("Le produit %q vient de franchir son seuil d'alerte. Niveau actuel : %d unités. "+
		"Veuillez prévoir un réapprovisionnement immédiat.", a.Name, a.CurrentLevel)
}

// NewStockBelowThresholdHandler creates a new handler for stock below threshold events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	h.logger.Warn("stock below threshold detected",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("stock_item_id", thresholdEvent.StockItemID.String()),
		zap.String("sku", thresholdEvent.SKU),
		zap.Int("current_level", thresholdEvent.CurrentLevel),
		zap.Int("min_threshold", thresholdEvent.MinThreshold),
	)

	alertType := "low_stock"
	if thresholdEvent.CurrentLevel == 0 {
		alertType = "out_of_stock"
	}

	alert := StockAlert{
		EventID:      event.EventID().String(),
		TenantID:     event.TenantID().String(),
		StockItemID:  thresholdEvent.StockItemID.String(),
		SKU:          thresholdEvent.SKU,
		Name:         thresholdEvent.Name,
		CurrentLevel: thresholdEvent.CurrentLevel,
		MinThreshold: thresholdEvent.MinThreshold,
		AlertType:    alertType,
	}

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			h.logger.Error("failed to send stock alert notification",
				zap.String("stock_item_id", alert.StockItemID),
				zap.Error(err),
			)
		} else {
			h.logger.Info("stock alert notification queued",
				zap.String("stock_item_id", alert.StockItemID),
				zap.String("alert_type", alertType),
			)
		}
	}

	return nil
}

// Ensure StockBelowThresholdHandler implements shared.EventHandler
var _ shared.EventHandler = (*StockBelowThresholdHandler)(nil)

// LoggingStockAlertNotifier is a simple notifier that logs alerts.
// It is used when no queue is configured.
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("sku", alert.SKU),
		zap.String("subject", alert.Subject()),
		zap.Int("current_level", alert.CurrentLevel),
		zap.Int("min_threshold", alert.MinThreshold),
	)
	return nil
}

// Ensure LoggingStockAlertNotifier implements StockAlertNotifier
var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
