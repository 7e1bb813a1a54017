package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestPriceCents(t *testing.T) {
	// 成本 450 + 运费 350，毛利 30%：ceil(800 * 1.3) = 1040
	assert.Equal(t, int64(1040), SuggestPriceCents(450, 350, 30))

	// 不整除时向上取整
	assert.Equal(t, int64(134), SuggestPriceCents(103, 0, 30))

	// 零基数与负毛利率
	assert.Equal(t, int64(0), SuggestPriceCents(0, 0, 30))
	assert.Equal(t, int64(100), SuggestPriceCents(100, 0, -5))
}

func TestMarginPercent(t *testing.T) {
	assert.InDelta(t, 30.0, MarginPercent(1040, 450, 350), 0.01)
	assert.InDelta(t, -50.0, MarginPercent(500, 1000, 0), 0.01)
	assert.Equal(t, 0.0, MarginPercent(500, 0, 0))
}

func TestMeetsMinMargin(t *testing.T) {
	assert.True(t, MeetsMinMargin(1300, 1000, 0, 30))
	assert.False(t, MeetsMinMargin(1299, 1000, 0, 30))
}
