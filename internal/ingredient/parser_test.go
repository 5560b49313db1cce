package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantQty  *string
		wantUnit *string
	}{
		{"quantity unit name", "200 g de farine", "farine", strp("200"), strp("g")},
		{"fraction quantity", "1/2 tasse de lait", "lait", strp("1/2"), strp("tasse")},
		{"decimal quantity", "2.5 kg de pommes de terre", "pommes de terre", strp("2.5"), strp("kg")},
		{"multi word unit", "2 cuillères à soupe de sucre", "sucre", strp("2"), strp("cuillères à soupe")},
		{"quantity only", "2 oeufs", "oeufs", strp("2"), nil},
		{"fraction quantity only", "1/2 citron", "citron", strp("1/2"), nil},
		{"name only", "sel et poivre", "sel et poivre", nil, nil},
		{"empty line", "", "", nil, nil},
		{"whitespace only", "   \t ", "", nil, nil},
		{"leading spaces trimmed", "  3 carottes  ", "carottes", strp("3"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.line)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantQty, got.Quantity)
			assert.Equal(t, tt.wantUnit, got.Unit)
		})
	}
}

func TestParseAllPreservesOrder(t *testing.T) {
	lines := []string{"200 g de farine", "2 oeufs", "une pincée de sel"}
	parsed := ParseAll(lines)

	assert.Len(t, parsed, 3)
	assert.Equal(t, "farine", parsed[0].Name)
	assert.Equal(t, "oeufs", parsed[1].Name)
	// "une" is not a numeric quantity, so the whole line stays the name.
	assert.Equal(t, "une pincée de sel", parsed[2].Name)
	assert.Nil(t, parsed[2].Quantity)
}
