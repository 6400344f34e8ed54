package checkout

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/handoff"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeliveryCost = 500

type fixture struct {
	orders    *MockOrders
	outbox    *MockOutbox
	inventory *MockAdjuster
	handoff   *MockHandoff
	sut       *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		orders:    NewMockOrders(),
		outbox:    &MockOutbox{},
		inventory: &MockAdjuster{},
		handoff:   &MockHandoff{Result: handoff.Result{Channel: handoff.ChannelMessenger, URL: "https://wa.me/1"}},
	}
	f.sut = NewOrchestrator(f.orders, f.outbox, f.inventory, f.handoff,
		Config{DeliveryCost: testDeliveryCost, Currency: "₽"}, logger.Discard())
	return f
}

// scenarioCart is variant X (qty 1, price 500) and combo Y (qty 2, price 2000).
func scenarioCart() *fakeCart {
	lines := []domain.CartLine{
		{ID: "l1", Ref: domain.Variant(10), Quantity: 1, UnitPrice: 500, Meta: domain.LineMeta{Name: "Tulip", Size: "S"}},
		{ID: "l2", Ref: domain.Combo(20), Quantity: 2, UnitPrice: 2000, Meta: domain.LineMeta{Name: "Spring box"}},
	}
	return &fakeCart{snapshot: domain.CartSnapshot{Lines: lines, Subtotal: domain.Subtotal(lines)}}
}

func deliveryForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		Name:           "Anna",
		Phone:          "+7 (999) 123-45-67",
		Address:        "Lenina 1, apt 5",
		DeliveryMethod: domain.DeliveryMethodDelivery,
		PaymentMethod:  domain.PaymentMethodCash,
		DeliveryTime:   "12:00-14:00",
	}
}

func pickupForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		Name:           "Anna",
		Phone:          "89991234567",
		DeliveryMethod: domain.DeliveryMethodPickup,
		PaymentMethod:  domain.PaymentMethodCard,
	}
}

func TestPlaceOrder_ScenarioA_Totals(t *testing.T) {
	f := newFixture()
	c := scenarioCart()

	conf, err := f.sut.PlaceOrder(context.Background(), c, deliveryForm(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, Totals{Subtotal: 4500, DeliveryCost: 500, Total: 5000}, conf.Totals)

	order, lines, ok := f.orders.get(conf.OrderID)
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(5000), order.Total)
	require.NotNil(t, order.OwnerID)
	assert.Equal(t, "user-1", *order.OwnerID)
	assert.Equal(t, "79991234567", order.Phone)
	require.NotNil(t, order.Address)
	require.NotNil(t, order.DeliveryTime)

	require.Len(t, lines, 2)
	assert.Equal(t, domain.RefVariant, lines[0].RefKind)
	assert.Equal(t, int64(10), lines[0].RefID)
	require.NotNil(t, lines[0].Size)
	assert.Equal(t, "S", *lines[0].Size)
	assert.Equal(t, domain.RefCombo, lines[1].RefKind)
	assert.Equal(t, int64(20), lines[1].RefID)
	assert.Nil(t, lines[1].Size)
	assert.Equal(t, int64(2000), lines[1].PriceAtPurchase)

	assert.Equal(t, 1, c.cleared)
	assert.Equal(t, scenarioCart().snapshot.Lines, c.removed, "only the ordered lines leave the cart")
	assert.Equal(t, handoff.ChannelMessenger, conf.Handoff.Channel)
	require.Len(t, f.handoff.Texts, 1)
	assert.Equal(t, conf.Summary, f.handoff.Texts[0])
}

func TestPlaceOrder_PickupHasNoDeliveryCost(t *testing.T) {
	f := newFixture()

	conf, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), pickupForm(), "")
	require.NoError(t, err)

	assert.Equal(t, Totals{Subtotal: 4500, Total: 4500}, conf.Totals)
	order, _, _ := f.orders.get(conf.OrderID)
	assert.Nil(t, order.OwnerID)
	assert.Nil(t, order.Address)
	assert.Nil(t, order.DeliveryTime)
}

func TestPlaceOrder_ScenarioC_EmptyCart(t *testing.T) {
	f := newFixture()
	c := &fakeCart{}

	conf, err := f.sut.PlaceOrder(context.Background(), c, deliveryForm(), "user-1")

	assert.Nil(t, conf)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.orders.InsertOrderCalls)
	assert.Zero(t, f.orders.InsertLineCalls)
	assert.Empty(t, f.inventory.Applied)
	assert.Empty(t, f.handoff.Texts)
	assert.Zero(t, c.cleared)
}

func TestPlaceOrder_ScenarioD_LineInsertFails(t *testing.T) {
	f := newFixture()
	f.orders.InsertLinesErr = &repository.Error{Op: "insert order lines", Code: repository.CodeUnknown, Err: errors.New("boom")}
	c := scenarioCart()

	conf, err := f.sut.PlaceOrder(context.Background(), c, deliveryForm(), "user-1")

	assert.Nil(t, conf)
	var orderErr *OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, KindGeneric, orderErr.Kind)
	assert.Equal(t, "insert_order_lines", orderErr.Step)
	assert.NotContains(t, orderErr.Message(), "boom")

	// the header stays: pending with zero lines, no rollback
	assert.Equal(t, 1, f.orders.count())
	for id := range f.orders.orders {
		order, lines, _ := f.orders.get(id)
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Empty(t, lines)
		assert.Equal(t, orderErr.OrderID, id.String())
	}

	assert.Empty(t, f.inventory.Applied)
	assert.Empty(t, f.handoff.Texts)
	assert.Zero(t, c.cleared, "cart kept so the shopper can retry")
}

func TestPlaceOrder_HeaderInsertFails(t *testing.T) {
	tests := []struct {
		name string
		code repository.ErrorCode
		kind ErrorKind
	}{
		{"network", repository.CodeUnavailable, KindNetwork},
		{"duplicate", repository.CodeDuplicate, KindDuplicate},
		{"stock", repository.CodeInsufficientStock, KindInsufficientStock},
		{"other", repository.CodeUnknown, KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.orders.InsertOrderErr = &repository.Error{Op: "insert order", Code: tt.code, Err: errors.New("pq: raw driver text")}

			_, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), deliveryForm(), "")

			var orderErr *OrderError
			require.ErrorAs(t, err, &orderErr)
			assert.Equal(t, tt.kind, orderErr.Kind)
			assert.NotEmpty(t, orderErr.Message())
			assert.NotContains(t, orderErr.Message(), "pq:")
			assert.Zero(t, f.orders.InsertLineCalls)
		})
	}
}

func TestPlaceOrder_InventoryFailureDoesNotBlock(t *testing.T) {
	f := newFixture()
	f.inventory.Deferred = 3
	c := scenarioCart()

	conf, err := f.sut.PlaceOrder(context.Background(), c, deliveryForm(), "")
	require.NoError(t, err)
	assert.NotNil(t, conf)
	assert.Equal(t, 1, c.cleared)

	require.Len(t, f.inventory.Applied, 1)
	adjs := f.inventory.Applied[0]
	require.Len(t, adjs, 3)
	assert.Equal(t, domain.AdjustVariantStock, adjs[0].Kind)
	assert.Equal(t, domain.AdjustPurchaseCounts, adjs[1].Kind)
	assert.Equal(t, domain.AdjustComboStock, adjs[2].Kind)
	assert.Equal(t, []domain.StockDelta{{ID: 20, Quantity: 2}}, adjs[2].Deltas)
}

func TestPlaceOrder_HandoffFallbackStillCompletes(t *testing.T) {
	f := newFixture()
	f.handoff.Result = handoff.Result{Channel: handoff.ChannelPhone, URL: "tel:+79990000000"}

	conf, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), pickupForm(), "")
	require.NoError(t, err)
	assert.Equal(t, handoff.ChannelPhone, conf.Handoff.Channel)
}

func TestPlaceOrder_AnnouncesOrder(t *testing.T) {
	f := newFixture()

	conf, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), pickupForm(), "")
	require.NoError(t, err)

	require.Len(t, f.outbox.Events, 1)
	assert.Equal(t, repository.EventOrderPlaced, f.outbox.Events[0].EventType)
	assert.Equal(t, conf.OrderID.String(), f.outbox.Events[0].AggregateId)
}

func TestPlaceOrder_OutboxFailureIgnored(t *testing.T) {
	f := newFixture()
	f.outbox.Err = errors.New("db down")

	_, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), pickupForm(), "")
	assert.NoError(t, err)
}

func TestPlaceOrder_InvalidForm(t *testing.T) {
	f := newFixture()
	form := deliveryForm()
	form.Phone = "123"

	_, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), form, "")

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "phone")
	assert.Zero(t, f.orders.InsertOrderCalls)
}

func TestPlaceOrder_SanitizesFreeText(t *testing.T) {
	f := newFixture()
	form := deliveryForm()
	form.Name = "<b>Anna</b>"
	form.Comment = "ring twice<script>alert(1)</script>\x07"

	conf, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), form, "")
	require.NoError(t, err)

	order, _, _ := f.orders.get(conf.OrderID)
	assert.Equal(t, "Anna", order.CustomerName)
	assert.Equal(t, "ring twice", order.Comment)
}

func TestPlaceOrder_MarkupOnlyFieldsFailValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *domain.CheckoutForm)
		field  string
	}{
		{"name of empty tags", func(f *domain.CheckoutForm) { f.Name = "<b></b>" }, "name"},
		{"name of an img tag", func(f *domain.CheckoutForm) { f.Name = "<img src=x onerror=alert(1)>" }, "name"},
		{"name of encoded script", func(f *domain.CheckoutForm) { f.Name = "&lt;script&gt;x&lt;/script&gt;" }, "name"},
		{"address of tags", func(f *domain.CheckoutForm) { f.Address = "<i></i><b></b>" }, "address"},
		{"slot of tags", func(f *domain.CheckoutForm) { f.DeliveryTime = "<span></span>" }, "delivery_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			form := deliveryForm()
			tt.mutate(&form)

			assert.Contains(t, f.sut.Validate(form), tt.field)

			_, err := f.sut.PlaceOrder(context.Background(), scenarioCart(), form, "")
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs, tt.field)
			assert.Zero(t, f.orders.InsertOrderCalls)
		})
	}
}

func TestComputeTotals_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := rng.Intn(6)
		lines := make([]domain.CartLine, n)
		var want int64
		for j := range lines {
			lines[j] = domain.CartLine{Quantity: 1 + rng.Intn(5), UnitPrice: int64(rng.Intn(100000))}
			want += lines[j].UnitPrice * int64(lines[j].Quantity)
		}
		cost := int64(rng.Intn(1000))

		d := ComputeTotals(lines, domain.DeliveryMethodDelivery, cost)
		assert.Equal(t, want, d.Subtotal)
		assert.Equal(t, d.Subtotal+cost, d.Total)

		p := ComputeTotals(lines, domain.DeliveryMethodPickup, cost)
		assert.Equal(t, p.Subtotal, p.Total)
		assert.Zero(t, p.DeliveryCost)
	}
}
