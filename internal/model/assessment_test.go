package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int
		want  RiskTier
	}{
		{0, RiskLow},
		{29, RiskLow},
		{30, RiskModerate},
		{49, RiskModerate},
		{50, RiskHigh},
		{69, RiskHigh},
		{70, RiskCritical},
		{100, RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score %d", tt.score)
	}
}

func TestRiskTierValid(t *testing.T) {
	assert.True(t, RiskCritical.Valid())
	assert.True(t, RiskLow.Valid())
	assert.False(t, RiskTier("Severe").Valid())
	assert.False(t, RiskTier("").Valid())
}
