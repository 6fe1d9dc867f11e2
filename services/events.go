package services

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vardhan998997/visual-product-matcer/models"
	aws_pkg "github.com/vardhan998997/visual-product-matcer/pkg/aws"
)

const (
	EventProductCreated = "product.created"
	EventProductDeleted = "product.deleted"
)

type CatalogEvent struct {
	EventType    string    `json:"event_type"`
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name,omitempty"`
	Category     string    `json:"category,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	RelatedCount int       `json:"related_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher announces catalog changes on SNS. A publisher without a client or topic
// skips every event.
type EventPublisher struct {
	sns      aws_pkg.SNSPublisher
	topicArn string
}

func NewEventPublisher(sns aws_pkg.SNSPublisher, topicArn string) *EventPublisher {
	return &EventPublisher{sns: sns, topicArn: topicArn}
}

func (e *EventPublisher) ProductCreated(ctx context.Context, p *models.Product) SideEffectOutcome {
	return e.publish(ctx, CatalogEvent{
		EventType:    EventProductCreated,
		ProductID:    p.ID.Hex(),
		Name:         p.Name,
		Category:     p.Category,
		ImageURL:     p.ImageURL,
		RelatedCount: len(p.RelatedProducts),
		OccurredAt:   time.Now().UTC(),
	})
}

// ProductDeleted reports the deletion and how many products lost a link to it.
func (e *EventPublisher) ProductDeleted(ctx context.Context, id primitive.ObjectID, unlinked int64) SideEffectOutcome {
	return e.publish(ctx, CatalogEvent{
		EventType:    EventProductDeleted,
		ProductID:    id.Hex(),
		RelatedCount: int(unlinked),
		OccurredAt:   time.Now().UTC(),
	})
}

func (e *EventPublisher) publish(ctx context.Context, event CatalogEvent) SideEffectOutcome {
	outcome := SideEffectOutcome{Name: "publish_" + event.EventType}
	if e == nil || e.sns == nil || e.topicArn == "" {
		outcome.Skipped = true
		return outcome
	}

	payload, err := json.Marshal(event)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if err := e.sns.Publish(ctx, e.topicArn, event.EventType, payload); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Affected = 1
	return outcome
}
