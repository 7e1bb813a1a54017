package service

import "math"

// ==================== 定价计算 ====================

// SuggestPriceCents 根据成本、运费与目标毛利率计算建议售价（分）
// 价格向上取整到分，保证毛利率不低于目标值
func SuggestPriceCents(costCent, freightCent int64, marginPercent float64) int64 {
	base := float64(costCent + freightCent)
	if base <= 0 {
		return 0
	}
	if marginPercent < 0 {
		marginPercent = 0
	}
	return int64(math.Ceil(base * (1 + marginPercent/100)))
}

// MarginPercent 计算给定售价下的毛利率（%）
func MarginPercent(priceCent, costCent, freightCent int64) float64 {
	base := float64(costCent + freightCent)
	if base <= 0 {
		return 0
	}
	return (float64(priceCent) - base) / base * 100
}

// MeetsMinMargin 售价是否满足最低毛利率
func MeetsMinMargin(priceCent, costCent, freightCent int64, minMarginPercent float64) bool {
	return MarginPercent(priceCent, costCent, freightCent) >= minMarginPercent
}
