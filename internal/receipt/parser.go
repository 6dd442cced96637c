// Package receipt extracts vendor, amount, currency and date from
// receipt-labeled messages. Extraction is conservative: when no amount
// pattern matches, amount and currency stay unset rather than guessed.
package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"inbox-triage-go/internal/address"
	"inbox-triage-go/internal/model"
)

// symbolCurrencies maps the three common currency symbols to ISO codes.
var symbolCurrencies = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

var (
	symbolAmountPattern = regexp.MustCompile(`([$€£])\s?(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	isoAmountPattern    = regexp.MustCompile(`\b(USD|EUR|GBP|JPY|CAD|AUD)\s?(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
)

// Extraction holds the parsed financial fields of one receipt message.
// Amount is nil and Currency empty when no pattern matched.
type Extraction struct {
	Vendor     string
	Amount     *float64
	Currency   string
	RecordDate time.Time
}

// Parse extracts the financial record fields from a receipt message.
func Parse(msg model.InboundMessage) Extraction {
	sender := address.Parse(msg.Sender)

	vendor := sender.Local
	if vendor == "" {
		vendor = sender.Name
	}

	extraction := Extraction{
		Vendor:     vendor,
		RecordDate: recordDate(msg),
	}

	text := msg.Subject + " " + msg.Snippet
	if currency, amount, ok := matchAmount(text); ok {
		extraction.Currency = currency
		extraction.Amount = &amount
	}
	return extraction
}

// matchAmount tries the symbol-prefixed pattern first, then the
// ISO-code-prefixed one. The first successful pattern wins.
func matchAmount(text string) (string, float64, bool) {
	if m := symbolAmountPattern.FindStringSubmatch(text); m != nil {
		if amount, err := parseAmount(m[2]); err == nil {
			return symbolCurrencies[m[1]], amount, true
		}
	}
	if m := isoAmountPattern.FindStringSubmatch(strings.ToUpper(text)); m != nil {
		if amount, err := parseAmount(m[2]); err == nil {
			return m[1], amount, true
		}
	}
	return "", 0, false
}

func parseAmount(token string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
}

func recordDate(msg model.InboundMessage) time.Time {
	if millis, ok := msg.EpochMillis(); ok {
		return time.UnixMilli(millis).UTC()
	}
	return time.Time{}
}
