package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Sender
	}{
		{
			name: "display name with angle brackets",
			raw:  "Jane Doe <jane@acmeco.com>",
			want: Sender{Name: "Jane Doe", Email: "jane@acmeco.com", Local: "jane", Domain: "acmeco.com"},
		},
		{
			name: "bare address",
			raw:  "billing@vendor.com",
			want: Sender{Email: "billing@vendor.com", Local: "billing", Domain: "vendor.com"},
		},
		{
			name: "quoted display name",
			raw:  `"Doe, Jane" <jane@acmeco.com>`,
			want: Sender{Name: "Doe, Jane", Email: "jane@acmeco.com", Local: "jane", Domain: "acmeco.com"},
		},
		{
			name: "uppercase address is lowered",
			raw:  "Jane Doe <Jane@AcmeCo.COM>",
			want: Sender{Name: "Jane Doe", Email: "jane@acmeco.com", Local: "jane", Domain: "acmeco.com"},
		},
		{
			name: "unclosed angle bracket",
			raw:  "Jane Doe <jane@acmeco.com",
			want: Sender{Name: "Jane Doe", Email: "jane@acmeco.com", Local: "jane", Domain: "acmeco.com"},
		},
		{
			name: "no address at all",
			raw:  "Acme Billing",
			want: Sender{Name: "Acme Billing"},
		},
		{
			name: "empty input",
			raw:  "   ",
			want: Sender{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Jane", Parse("Jane Doe <jane@acmeco.com>").FirstName())
	assert.Equal(t, "Jane", Sender{Name: `"Jane"`}.FirstName())
	assert.Equal(t, "", Parse("billing@vendor.com").FirstName())
	assert.Equal(t, "", Sender{}.FirstName())
}
