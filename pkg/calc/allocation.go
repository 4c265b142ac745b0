package calc

import (
	"fmt"
	"math"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// riskMetric selects the denominator of the score's reward term: standard
// deviation over the whole return series, or the lower semivariance of the
// last freq returns, which penalizes only downside movement.
func riskMetric(
	returns []float64,
	mode trading.RiskMode,
	freq int,
) (float64, error) {
	switch mode {
	case trading.RiskModeSTD:
		if _, err := window(returns, freq); err != nil {
			return 0, fmt.Errorf("could not calculate risk metric: [%v]", err)
		}
		return stddev(returns), nil
	case trading.RiskModeLSV:
		return lowerSemivariance(returns, freq)
	default:
		return 0, fmt.Errorf("unknown risk mode [%v]", mode)
	}
}

// Score rates one instrument's series for a leveraged position under a risk
// budget. The reward term scales the sharpe ratio by the chosen risk metric
// and the budget; the penalty term grows with the rolling economic drawdown,
// so an instrument far below its recent maximum scores low regardless of its
// returns.
func Score(
	series *trading.PriceSeries,
	mode trading.RiskMode,
	risk, riskFree float64,
	period, interval trading.Period,
) (float64, error) {
	freq := period.Div(interval)
	if freq <= 0 {
		return 0, fmt.Errorf(
			"invalid period/interval pair [%v]/[%v]",
			period, interval,
		)
	}

	returns := series.Returns()

	metric, err := riskMetric(returns, mode, freq)
	if err != nil {
		return 0, err
	}

	sharpe, err := sharpeRatio(returns, freq, riskFree)
	if err != nil {
		return 0, err
	}

	redp, err := rollingEconomicDrawdown(series.Closes(), freq)
	if err != nil {
		return 0, err
	}

	score := (sharpe/metric+0.5/(1-risk*risk))*risk - redp/(1-redp)

	return score, nil
}

// SingleAllocation clamps the score to [0, 1]: the fraction of capital the
// model would allocate to this single instrument.
func SingleAllocation(
	series *trading.PriceSeries,
	mode trading.RiskMode,
	risk, riskFree float64,
	period, interval trading.Period,
) (float64, error) {
	score, err := Score(series, mode, risk, riskFree, period, interval)
	if err != nil {
		return 0, err
	}

	return math.Min(1, math.Max(0, score)), nil
}
