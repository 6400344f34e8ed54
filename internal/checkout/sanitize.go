package checkout

import (
	"html"
	"strings"
	"unicode"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup and control characters from shopper free text
// before it is persisted or forwarded.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// plainEntities undoes the policy's escaping for characters that cannot open
// a tag. Angle brackets stay escaped.
var plainEntities = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`)

// Text decodes entities once so encoded tags are seen as tags, removes all
// markup, and keeps "Tom & Jerry" as typed. The result never contains a raw
// angle bracket.
func (s *Sanitizer) Text(in string) string {
	out := plainEntities.Replace(s.policy.Sanitize(html.UnescapeString(in)))
	out = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, out)
	return strings.TrimSpace(out)
}

// Form returns a copy of form with every free-text field sanitized. The phone
// is reduced to its digits.
func (s *Sanitizer) Form(form domain.CheckoutForm) domain.CheckoutForm {
	form.Name = s.Text(form.Name)
	form.Address = s.Text(form.Address)
	form.Comment = s.Text(form.Comment)
	form.DeliveryTime = s.Text(form.DeliveryTime)
	form.Phone = DigitsOnly(form.Phone)
	return form
}
