package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const defaultBatch = 100

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// InventoryApplier retries a parked inventory adjustment.
type InventoryApplier interface {
	Apply(ctx context.Context, adj domain.InventoryAdjustment) error
}

// OutboxPoller drains the outbox: parked inventory adjustments are retried
// in-process, order announcements are published to Kafka.
type OutboxPoller struct {
	timeout     time.Duration
	eventTick   time.Duration
	batch       int
	maxAttempts int
	repo        repository.OutboxRepository
	inventory   InventoryApplier
	writer      messageWriter
	log         logrus.FieldLogger
}

func NewOutboxPoller(repo repository.OutboxRepository, inventory InventoryApplier, topic string, tick time.Duration, maxAttempts int, log logrus.FieldLogger, brokers ...string) *OutboxPoller {
	var w messageWriter
	if len(brokers) > 0 {
		w = &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
	}
	return &OutboxPoller{
		timeout:     5 * time.Second,
		eventTick:   tick,
		batch:       defaultBatch,
		maxAttempts: maxAttempts,
		repo:        repo,
		inventory:   inventory,
		writer:      w,
		log:         log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processPendingEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *OutboxPoller) processPendingEvents(ctx context.Context) {
	events, err := p.repo.GetPendingEvents(ctx, p.batch, p.maxAttempts)
	if err != nil {
		p.log.WithError(err).Error("failed to fetch outbox events")
		return
	}

	for _, event := range events {
		l := p.log.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.EventType,
			"aggregate":  event.AggregateId,
			"attempt":    event.Attempts + 1,
		})

		if errHandle := p.handle(ctx, event); errHandle != nil {
			l.WithError(errHandle).Warn("outbox event failed")
			if errMark := p.repo.MarkEventAsFailed(ctx, event.ID, errHandle.Error()); errMark != nil {
				l.WithError(errMark).Error("failed to record outbox failure")
			}
			continue
		}

		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			l.WithError(errMark).Error("failed to mark event as processed")
		}
	}
}

func (p *OutboxPoller) handle(ctx context.Context, event *repository.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	switch event.EventType {
	case repository.EventInventoryAdjustment:
		var adj domain.InventoryAdjustment
		if err := json.Unmarshal(event.Payload, &adj); err != nil {
			return fmt.Errorf("decode adjustment: %w", err)
		}
		return p.inventory.Apply(ctx, adj)
	case repository.EventOrderPlaced:
		return p.publishToKafka(ctx, event)
	default:
		return fmt.Errorf("unknown event type %q", event.EventType)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	if p.writer == nil {
		return fmt.Errorf("no kafka brokers configured")
	}
	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // order id keeps one order on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
