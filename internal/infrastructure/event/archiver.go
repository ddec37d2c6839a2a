package event

import (
	"context"
	"fmt"
	"path"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"go.uber.org/zap"
)

const archiveTimeLayout = "20060102T150405.000000000Z"

// ObjectUploader is the object storage operation the archiver needs
type ObjectUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// ObjectStoreArchiver writes every sale event to object storage as a JSON document
type ObjectStoreArchiver struct {
	store      ObjectUploader
	prefix     string
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewObjectStoreArchiver creates an archiver storing events under prefix
func NewObjectStoreArchiver(store ObjectUploader, prefix string, serializer *EventSerializer, logger *zap.Logger) *ObjectStoreArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectStoreArchiver{
		store:      store,
		prefix:     prefix,
		serializer: serializer,
		logger:     logger.Named("event_archiver"),
	}
}

// EventTypes returns the sale event types that are archived
func (a *ObjectStoreArchiver) EventTypes() []string {
	return sales.SaleEventTypes
}

// ArchiveKey returns <prefix>/<saleID>/<occurredAt>_<eventType>_<eventID>.json.
// Keys of one sale sort chronologically.
func (a *ObjectStoreArchiver) ArchiveKey(event shared.DomainEvent) string {
	name := fmt.Sprintf("%s_%s_%s.json",
		event.OccurredAt().UTC().Format(archiveTimeLayout),
		event.EventType(),
		event.EventID(),
	)
	return path.Join(a.prefix, event.AggregateID().String(), name)
}

// Handle serializes and uploads the event
func (a *ObjectStoreArchiver) Handle(ctx context.Context, event shared.DomainEvent) error {
	data, err := a.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
	}

	key := a.ArchiveKey(event)
	if err := a.store.Upload(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("failed to archive %s: %w", event.EventType(), err)
	}

	a.logger.Debug("event archived",
		zap.String("key", key),
		zap.String("event_type", event.EventType()),
	)
	return nil
}

// Ensure ObjectStoreArchiver implements shared.EventHandler
var _ shared.EventHandler = (*ObjectStoreArchiver)(nil)
