package handoff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/sirupsen/logrus"
)

var ErrUnavailable = errors.New("messaging hand-off unavailable")

type Channel string

const (
	ChannelMessenger Channel = "messenger"
	ChannelPhone     Channel = "phone"
)

// Result tells the client which deep link to open. FallbackURL is the phone
// link offered when the messenger link was chosen.
type Result struct {
	Channel     Channel `json:"channel"`
	URL         string  `json:"url"`
	FallbackURL string  `json:"fallback_url,omitempty"`
}

// Prober reports whether the messaging channel can currently take a message.
type Prober interface {
	Probe(ctx context.Context) error
}

func MessengerLink(baseURL, phone, text string) string {
	return fmt.Sprintf("%s/%s?text=%s", strings.TrimRight(baseURL, "/"), phone, url.QueryEscape(text))
}

func PhoneLink(phone string) string {
	return "tel:+" + phone
}

type Service struct {
	baseURL   string
	shopPhone string
	prober    Prober
	log       logrus.FieldLogger
}

// NewService builds the hand-off. A nil prober treats the messenger as always
// available.
func NewService(baseURL, shopPhone string, prober Prober, log logrus.FieldLogger) *Service {
	return &Service{
		baseURL:   baseURL,
		shopPhone: shopPhone,
		prober:    prober,
		log:       log,
	}
}

// Deliver never fails: an unavailable messenger falls back to the phone link.
func (s *Service) Deliver(ctx context.Context, text string) Result {
	phone := PhoneLink(s.shopPhone)
	if s.prober != nil {
		if err := s.prober.Probe(ctx); err != nil {
			logger.FromContext(ctx, s.log).WithError(err).Warn("messenger hand-off unavailable, offering phone call")
			return Result{Channel: ChannelPhone, URL: phone}
		}
	}
	return Result{
		Channel:     ChannelMessenger,
		URL:         MessengerLink(s.baseURL, s.shopPhone, text),
		FallbackURL: phone,
	}
}
