package streaming

import (
	"context"

	"safesphere/internal/domain/models"
)

// EventBusPublisher turns recorded scans into bus events
type EventBusPublisher struct {
	eventBus *EventBus
}

// NewEventBusPublisher creates a new publisher adapter
func NewEventBusPublisher(eventBus *EventBus) *EventBusPublisher {
	return &EventBusPublisher{eventBus: eventBus}
}

// PublishScan publishes scan_completed, plus high_risk_detected for high-risk scans
func (p *EventBusPublisher) PublishScan(ctx context.Context, rec models.ScanRecord, source string) error {
	if err := p.eventBus.Publish(ctx, NewScanEvent(EventTypeScanCompleted, rec, source)); err != nil {
		return err
	}
	if rec.RiskLevel == models.RiskLevelHigh {
		return p.eventBus.Publish(ctx, NewScanEvent(EventTypeHighRisk, rec, source))
	}
	return nil
}

// PublishHistoryCleared publishes a history reset
func (p *EventBusPublisher) PublishHistoryCleared(ctx context.Context) error {
	return p.eventBus.Publish(ctx, NewHistoryClearedEvent())
}
