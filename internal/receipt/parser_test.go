package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-triage-go/internal/model"
)

func TestParseSymbolAmount(t *testing.T) {
	extraction := Parse(model.InboundMessage{
		Sender:  "billing@vendor.com",
		Subject: "Invoice #1029",
		Snippet: "Your payment of $240.00 has been charged",
	})

	assert.Equal(t, "billing", extraction.Vendor)
	require.NotNil(t, extraction.Amount)
	assert.Equal(t, 240.00, *extraction.Amount)
	assert.Equal(t, "USD", extraction.Currency)
}

func TestParseSymbolCurrencies(t *testing.T) {
	cases := []struct {
		snippet  string
		currency string
		amount   float64
	}{
		{"charged $1,299.50 to your card", "USD", 1299.50},
		{"total €89.99 due", "EUR", 89.99},
		{"you paid £15", "GBP", 15},
	}
	for _, tc := range cases {
		extraction := Parse(model.InboundMessage{Sender: "shop@store.com", Snippet: tc.snippet})
		require.NotNil(t, extraction.Amount, tc.snippet)
		assert.Equal(t, tc.amount, *extraction.Amount, tc.snippet)
		assert.Equal(t, tc.currency, extraction.Currency, tc.snippet)
	}
}

func TestParseISOCodeAmount(t *testing.T) {
	extraction := Parse(model.InboundMessage{
		Sender:  "invoices@supplier.io",
		Snippet: "Amount due: USD 512.40 by Friday",
	})

	require.NotNil(t, extraction.Amount)
	assert.Equal(t, 512.40, *extraction.Amount)
	assert.Equal(t, "USD", extraction.Currency)
}

func TestParseSymbolWinsOverISOCode(t *testing.T) {
	extraction := Parse(model.InboundMessage{
		Sender:  "billing@vendor.com",
		Snippet: "charged $10.00 (EUR 9.20 equivalent)",
	})

	require.NotNil(t, extraction.Amount)
	assert.Equal(t, 10.00, *extraction.Amount)
	assert.Equal(t, "USD", extraction.Currency)
}

func TestParseNoAmountLeavesFieldsUnset(t *testing.T) {
	extraction := Parse(model.InboundMessage{
		Sender:  "billing@vendor.com",
		Snippet: "Your subscription renews next month",
	})

	assert.Nil(t, extraction.Amount)
	assert.Empty(t, extraction.Currency)
}

func TestParseVendorFallsBackToDisplayName(t *testing.T) {
	extraction := Parse(model.InboundMessage{Sender: "Acme Billing"})
	assert.Equal(t, "Acme Billing", extraction.Vendor)
}

func TestParseRecordDateFromEpochString(t *testing.T) {
	extraction := Parse(model.InboundMessage{
		Sender:     "billing@vendor.com",
		ReceivedAt: "1700000000000",
	})
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), extraction.RecordDate)
}

func TestParseRecordDateFromInternalEpoch(t *testing.T) {
	extraction := Parse(model.InboundMessage{
		Sender:        "billing@vendor.com",
		ReceivedAt:    "not-a-number",
		InternalEpoch: 1700000000000,
	})
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), extraction.RecordDate)
}
