package providers

import (
	"context"

	"github.com/radworks/reportassist/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to report events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ReportEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelReportUpdates is the channel for all report updates
	EventChannelReportUpdates = "report:updates"

	// EventChannelReportPrefix is the prefix for report-specific channels
	EventChannelReportPrefix = "report:"
)

// GetReportChannel returns the channel name for a specific report
func GetReportChannel(reportID string) string {
	return EventChannelReportPrefix + reportID
}
