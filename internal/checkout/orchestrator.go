package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/handoff"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Cart is the part of the cart store checkout needs. *cart.Store satisfies it.
type Cart interface {
	Snapshot() domain.CartSnapshot
	RemoveOrdered(ctx context.Context, ordered []domain.CartLine) error
}

type InventoryAdjuster interface {
	ApplyAll(ctx context.Context, adjs []domain.InventoryAdjustment) int
}

type Handoff interface {
	Deliver(ctx context.Context, text string) handoff.Result
}

type Config struct {
	DeliveryCost int64
	Currency     string
}

// Confirmation is what the shopper sees after a placed order.
type Confirmation struct {
	OrderID uuid.UUID      `json:"order_id"`
	Totals  Totals         `json:"totals"`
	Summary string         `json:"summary"`
	Handoff handoff.Result `json:"handoff"`
}

type Orchestrator struct {
	orders    repository.OrderRepository
	events    repository.OutboxRepository
	inventory InventoryAdjuster
	handoff   Handoff
	validator *Validator
	sanitizer *Sanitizer
	cfg       Config
	log       logrus.FieldLogger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewOrchestrator(
	orders repository.OrderRepository,
	events repository.OutboxRepository,
	inventory InventoryAdjuster,
	h Handoff,
	cfg Config,
	log logrus.FieldLogger,
) *Orchestrator {
	return &Orchestrator{
		orders:    orders,
		events:    events,
		inventory: inventory,
		handoff:   h,
		validator: NewValidator(),
		sanitizer: NewSanitizer(),
		cfg:       cfg,
		log:       log,
		tracer:    otel.Tracer("storefront/checkout"),
		now:       time.Now,
	}
}

// Validate checks the form as it would be stored, so text that sanitizes to
// nothing fails the same rules as empty input.
func (o *Orchestrator) Validate(form domain.CheckoutForm) ValidationErrors {
	return o.validator.Validate(o.sanitizer.Form(form))
}

// Totals prices a snapshot for the given delivery method without placing
// anything.
func (o *Orchestrator) Totals(snapshot domain.CartSnapshot, method domain.DeliveryMethod) Totals {
	return ComputeTotals(snapshot.Lines, method, o.cfg.DeliveryCost)
}

// PlaceOrder turns the cart into a pending order. Only the order header and
// line inserts can fail it; inventory bookkeeping and the messenger hand-off
// are best effort. ownerID is empty for guest orders.
//
// A failed line insert leaves the header in place as a pending order with no
// lines. That state is logged with the order id for manual follow-up.
func (o *Orchestrator) PlaceOrder(ctx context.Context, cart Cart, form domain.CheckoutForm, ownerID string) (*Confirmation, error) {
	ctx, span := o.tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()

	snapshot := cart.Snapshot()
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}
	form = o.sanitizer.Form(form)
	if errs := o.validator.Validate(form); errs != nil {
		return nil, errs
	}

	totals := ComputeTotals(snapshot.Lines, form.DeliveryMethod, o.cfg.DeliveryCost)
	order := o.newOrder(form, totals, ownerID)

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Int("order.lines", len(snapshot.Lines)),
		attribute.Int64("order.total", totals.Total),
	)
	log := logger.FromContext(ctx, o.log).WithField("order_id", order.ID.String())

	if err := o.orders.InsertOrder(ctx, order); err != nil {
		log.WithError(err).Error("insert order failed")
		return nil, o.fail(span, orderError(order.ID.String(), "insert_order", err))
	}

	lines := make([]domain.OrderLine, 0, len(snapshot.Lines))
	for _, l := range snapshot.Lines {
		lines = append(lines, domain.NewOrderLine(order.ID, l))
	}
	if err := o.orders.InsertOrderLines(ctx, lines); err != nil {
		log.WithError(err).Error("insert order lines failed, order left pending without lines")
		return nil, o.fail(span, orderError(order.ID.String(), "insert_order_lines", err))
	}
	order.Lines = lines
	span.AddEvent("order persisted")

	if deferred := o.inventory.ApplyAll(ctx, domain.AdjustmentsFor(order.ID.String(), snapshot.Lines)); deferred > 0 {
		span.AddEvent("inventory adjustments deferred", trace.WithAttributes(attribute.Int("count", deferred)))
	}
	o.announce(ctx, log, order)

	summary := Summary(order, o.cfg.Currency)
	result := o.handoff.Deliver(ctx, summary)
	span.SetAttributes(attribute.String("handoff.channel", string(result.Channel)))

	if err := cart.RemoveOrdered(ctx, snapshot.Lines); err != nil {
		log.WithError(err).Warn("clear cart after order failed")
	}

	log.WithFields(logrus.Fields{
		"total":   totals.Total,
		"lines":   len(lines),
		"handoff": result.Channel,
	}).Info("order placed")

	return &Confirmation{
		OrderID: order.ID,
		Totals:  totals,
		Summary: summary,
		Handoff: result,
	}, nil
}

func (o *Orchestrator) newOrder(form domain.CheckoutForm, totals Totals, ownerID string) *domain.Order {
	order := &domain.Order{
		ID:             uuid.New(),
		CustomerName:   form.Name,
		Phone:          form.Phone,
		DeliveryMethod: form.DeliveryMethod,
		PaymentMethod:  form.PaymentMethod,
		Comment:        form.Comment,
		Subtotal:       totals.Subtotal,
		DeliveryCost:   totals.DeliveryCost,
		Total:          totals.Total,
		Status:         domain.OrderStatusPending,
		CreatedAt:      o.now().UTC(),
	}
	if ownerID != "" {
		order.OwnerID = &ownerID
	}
	if form.IsDelivery() {
		order.Address = &form.Address
		order.DeliveryTime = &form.DeliveryTime
	}
	return order
}

// announce queues the order_placed event for the order-management side. A
// failure here does not affect the shopper.
func (o *Orchestrator) announce(ctx context.Context, log logrus.FieldLogger, order *domain.Order) {
	if o.events == nil {
		return
	}
	payload, err := json.Marshal(order)
	if err != nil {
		log.WithError(err).Error("marshal order_placed event failed")
		return
	}
	event := &repository.OutboxEvent{
		AggregateId: order.ID.String(),
		EventType:   repository.EventOrderPlaced,
		Payload:     payload,
	}
	if err := o.events.EnqueueEvent(ctx, event); err != nil {
		log.WithError(err).Error("enqueue order_placed event failed")
	}
}

func (o *Orchestrator) fail(span trace.Span, err *OrderError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Kind))
	return err
}
