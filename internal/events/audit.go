package events

import (
	"context"

	"go.uber.org/zap"
)

var auditedTypes = []EventType{
	EventRequestCreated,
	EventRequestUpdated,
	EventRequestForwarded,
	EventRequestRemoved,
	EventDuplicateMarked,
	EventDuplicateCleared,
}

// RegisterAuditLog subscribes a structured-log sink for every workflow event.
func RegisterAuditLog(dispatcher Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}
	handler := func(_ context.Context, event Event) error {
		logger.Info("workflow event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.String("person_id", event.PersonID),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
		return nil
	}
	for _, eventType := range auditedTypes {
		dispatcher.Subscribe(eventType, handler)
	}
}
