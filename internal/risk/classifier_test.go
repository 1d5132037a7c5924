package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"microfin/internal/risk"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		dpd  int
		want string
	}{
		{name: "negative dpd is current", dpd: -5, want: risk.TierCurrent},
		{name: "zero dpd is current", dpd: 0, want: risk.TierCurrent},
		{name: "one day late is watch", dpd: 1, want: risk.TierWatch},
		{name: "upper watch boundary", dpd: 30, want: risk.TierWatch},
		{name: "lower substandard boundary", dpd: 31, want: risk.TierSubstandard},
		{name: "upper substandard boundary", dpd: 60, want: risk.TierSubstandard},
		{name: "lower doubtful boundary", dpd: 61, want: risk.TierDoubtful},
		{name: "upper doubtful boundary", dpd: 90, want: risk.TierDoubtful},
		{name: "lower loss boundary", dpd: 91, want: risk.TierLoss},
		{name: "deep loss", dpd: 400, want: risk.TierLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, risk.Classify(tt.dpd))
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// Every integer in a wide range lands in exactly one known tier.
	known := map[string]bool{
		risk.TierCurrent:     true,
		risk.TierWatch:       true,
		risk.TierSubstandard: true,
		risk.TierDoubtful:    true,
		risk.TierLoss:        true,
	}
	for dpd := -10; dpd <= 200; dpd++ {
		assert.True(t, known[risk.Classify(dpd)], "dpd=%d", dpd)
	}
}
