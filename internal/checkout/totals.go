package checkout

import "github.com/fjod/go_cart/storefront/internal/domain"

type Totals struct {
	Subtotal     int64 `json:"subtotal"`
	DeliveryCost int64 `json:"delivery_cost"`
	Total        int64 `json:"total"`
}

// ComputeTotals prices lines at their snapshot price. The delivery cost only
// applies to the delivery method.
func ComputeTotals(lines []domain.CartLine, method domain.DeliveryMethod, deliveryCost int64) Totals {
	t := Totals{Subtotal: domain.Subtotal(lines)}
	if method == domain.DeliveryMethodDelivery {
		t.DeliveryCost = deliveryCost
	}
	t.Total = t.Subtotal + t.DeliveryCost
	return t
}
