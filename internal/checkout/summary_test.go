package checkout

import (
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "50.00 ₽", FormatMoney(5000, "₽"))
	assert.Equal(t, "0.05 ₽", FormatMoney(5, "₽"))
	assert.Equal(t, "-1.50 $", FormatMoney(-150, "$"))
}

func TestSummary(t *testing.T) {
	id := uuid.MustParse("1a2b3c4d-0000-4000-8000-000000000000")
	size := "M"
	address := "Lenina 1"
	slot := "12:00-14:00"
	order := &domain.Order{
		ID:             id,
		CustomerName:   "Anna",
		Phone:          "79991234567",
		Address:        &address,
		DeliveryMethod: domain.DeliveryMethodDelivery,
		PaymentMethod:  domain.PaymentMethodCard,
		Comment:        "ring twice",
		DeliveryTime:   &slot,
		Subtotal:       4500,
		DeliveryCost:   500,
		Total:          5000,
		CreatedAt:      time.Now(),
		Lines: []domain.OrderLine{
			{OrderID: id, RefKind: domain.RefVariant, RefID: 1, Name: "Tulip", Size: &size, Quantity: 1, PriceAtPurchase: 500},
			{OrderID: id, RefKind: domain.RefCombo, RefID: 2, Name: "Spring box", Quantity: 2, PriceAtPurchase: 2000},
			{OrderID: id, RefKind: domain.RefVariant, RefID: 3, Name: "Card", Quantity: 1, PriceAtPurchase: 0},
		},
	}

	want := "New order #1a2b3c4d\n" +
		"Name: Anna\n" +
		"Phone: +79991234567\n" +
		"Method: Delivery\n" +
		"Address: Lenina 1\n" +
		"Delivery time: 12:00-14:00\n" +
		"Payment: Card\n" +
		"Comment: ring twice\n" +
		"\nItems:\n" +
		"1. Tulip (M) x1 = 5.00 ₽\n" +
		"2. Spring box (combo) x2 = 40.00 ₽\n" +
		"3. Card x1 = 0.00 ₽\n" +
		"\nSubtotal: 45.00 ₽\n" +
		"Delivery fee: 5.00 ₽\n" +
		"Total: 50.00 ₽"

	got := Summary(order, "₽")
	assert.Equal(t, want, got)
	assert.Equal(t, got, Summary(order, "₽"), "same order, same text")
}

func TestSummary_PickupOmitsAddress(t *testing.T) {
	order := &domain.Order{
		ID:             uuid.New(),
		CustomerName:   "Anna",
		Phone:          "79991234567",
		DeliveryMethod: domain.DeliveryMethodPickup,
		PaymentMethod:  domain.PaymentMethodCash,
	}

	got := Summary(order, "₽")
	assert.NotContains(t, got, "Address:")
	assert.NotContains(t, got, "Comment:")
	assert.Contains(t, got, "Method: Pickup\n")
	assert.Contains(t, got, "Delivery fee: 0.00 ₽\n")
}
