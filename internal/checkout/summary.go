package checkout

import (
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	orderIDPrefixLen = 8
	comboLabel       = "combo"
)

var deliveryLabels = map[domain.DeliveryMethod]string{
	domain.DeliveryMethodDelivery: "Delivery",
	domain.DeliveryMethodPickup:   "Pickup",
}

var paymentLabels = map[domain.PaymentMethod]string{
	domain.PaymentMethodCash: "Cash",
	domain.PaymentMethodCard: "Card",
}

// FormatMoney renders minor units as "1234.50 ₽".
func FormatMoney(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}

// Summary composes the hand-off text for an order. The same order always
// yields the same text.
func Summary(order *domain.Order, currency string) string {
	var b strings.Builder

	id := order.ID.String()
	fmt.Fprintf(&b, "New order #%s\n", id[:orderIDPrefixLen])
	fmt.Fprintf(&b, "Name: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Phone: +%s\n", order.Phone)
	fmt.Fprintf(&b, "Method: %s\n", deliveryLabels[order.DeliveryMethod])
	if order.Address != nil {
		fmt.Fprintf(&b, "Address: %s\n", *order.Address)
	}
	if order.DeliveryTime != nil {
		fmt.Fprintf(&b, "Delivery time: %s\n", *order.DeliveryTime)
	}
	fmt.Fprintf(&b, "Payment: %s\n", paymentLabels[order.PaymentMethod])
	if order.Comment != "" {
		fmt.Fprintf(&b, "Comment: %s\n", order.Comment)
	}

	b.WriteString("\nItems:\n")
	for i, l := range order.Lines {
		label := comboLabel
		if l.RefKind != domain.RefCombo {
			label = ""
			if l.Size != nil {
				label = *l.Size
			}
		}
		name := l.Name
		if label != "" {
			name = fmt.Sprintf("%s (%s)", l.Name, label)
		}
		fmt.Fprintf(&b, "%d. %s x%d = %s\n", i+1, name, l.Quantity, FormatMoney(l.LineTotal(), currency))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", FormatMoney(order.Subtotal, currency))
	fmt.Fprintf(&b, "Delivery fee: %s\n", FormatMoney(order.DeliveryCost, currency))
	fmt.Fprintf(&b, "Total: %s", FormatMoney(order.Total, currency))
	return b.String()
}
