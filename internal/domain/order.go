package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// clientTransitions lists the only moves the storefront itself may make.
// Everything else belongs to the order-management side.
var clientTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusCancelled},
}

func CanTransitionTo(from, to OrderStatus) bool {
	for _, next := range clientTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

type Order struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OwnerID        *string        `json:"owner_id,omitempty" db:"owner_id"`
	CustomerName   string         `json:"customer_name" db:"customer_name"`
	Phone          string         `json:"phone" db:"phone"`
	Address        *string        `json:"address,omitempty" db:"address"`
	DeliveryMethod DeliveryMethod `json:"delivery_method" db:"delivery_method"`
	PaymentMethod  PaymentMethod  `json:"payment_method" db:"payment_method"`
	Comment        string         `json:"comment" db:"comment"`
	DeliveryTime   *string        `json:"delivery_time,omitempty" db:"delivery_time"`
	Subtotal       int64          `json:"subtotal" db:"subtotal"`
	DeliveryCost   int64          `json:"delivery_cost" db:"delivery_cost"`
	Total          int64          `json:"total" db:"total"`
	Status         OrderStatus    `json:"status" db:"status"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	Lines          []OrderLine    `json:"lines,omitempty" db:"-"`
}

// OrderLine freezes a cart line at purchase time so later catalog changes
// never rewrite order history.
type OrderLine struct {
	OrderID         uuid.UUID `json:"order_id" db:"order_id"`
	RefKind         RefKind   `json:"ref_kind" db:"ref_kind"`
	RefID           int64     `json:"ref_id" db:"ref_id"`
	Name            string    `json:"name" db:"name"`
	Image           string    `json:"image" db:"image"`
	Size            *string   `json:"size,omitempty" db:"size"`
	Quantity        int       `json:"quantity" db:"quantity"`
	PriceAtPurchase int64     `json:"price_at_purchase" db:"price_at_purchase"`
}

func (l OrderLine) LineTotal() int64 {
	return l.PriceAtPurchase * int64(l.Quantity)
}

// NewOrderLine snapshots a cart line for the given order.
func NewOrderLine(orderID uuid.UUID, line CartLine) OrderLine {
	var size *string
	if line.Meta.Size != "" {
		s := line.Meta.Size
		size = &s
	}
	return OrderLine{
		OrderID:         orderID,
		RefKind:         line.Ref.Kind,
		RefID:           line.Ref.ID,
		Name:            line.Meta.Name,
		Image:           line.Meta.Image,
		Size:            size,
		Quantity:        line.Quantity,
		PriceAtPurchase: line.UnitPrice,
	}
}

// CheckoutForm is what the shopper fills in before placing an order.
type CheckoutForm struct {
	Name           string         `json:"name" validate:"required,min=2,max=100"`
	Phone          string         `json:"phone" validate:"required,phone"`
	Address        string         `json:"address"`
	DeliveryMethod DeliveryMethod `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	PaymentMethod  PaymentMethod  `json:"payment_method" validate:"required,oneof=cash card"`
	Comment        string         `json:"comment" validate:"max=500"`
	DeliveryTime   string         `json:"delivery_time"`
}

func (f CheckoutForm) IsDelivery() bool {
	return f.DeliveryMethod == DeliveryMethodDelivery
}
