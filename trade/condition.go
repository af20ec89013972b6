package trade

import (
	"github.com/cinar/indicator"
	"github.com/samber/lo"

	"github.com/gtoxlili/echoSage/utils"
)

const (
	rsiPeriod     = 14
	rsiOversold   = 30.0
	rsiOverbought = 70.0
	// sidewaysSpread 是相对标准差阈值
	sidewaysSpread = 0.02
)

// DetectCondition 从价格序列（旧 → 新）推断 signal_condition 的 key，无法判断时返回空串
func DetectCondition(series []float64) string {
	if len(series) < 2 {
		return ""
	}

	if len(series) > rsiPeriod {
		_, rsi := indicator.RsiPeriod(rsiPeriod, series)
		switch last := lo.LastOrEmpty(rsi); {
		case last < rsiOversold:
			return "oversold"
		case last > rsiOverbought:
			return "overbought"
		}
	}

	mean := utils.Avg(series)
	if mean > 0 && utils.StdDev(series)/mean < sidewaysSpread {
		return "sideways"
	}
	return ""
}
