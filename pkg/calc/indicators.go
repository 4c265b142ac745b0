// Package calc holds the stateless allocation math: per-instrument scores,
// multi-asset portfolio weights, and stop-loss recalculation. Everything in
// this package is a pure function over price series and reports; it touches
// no network and no store.
package calc

import (
	"fmt"
	"math"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

// stddev is the sample standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	average := mean(values)

	sum := 0.0
	for _, value := range values {
		deviation := value - average
		sum += deviation * deviation
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

func window(values []float64, freq int) ([]float64, error) {
	if len(values) < freq {
		return nil, fmt.Errorf(
			"not enough observations: have [%v], need [%v]",
			len(values), freq,
		)
	}

	return values[len(values)-freq:], nil
}

// sharpeRatio is the mean excess return over its standard deviation, taken
// over the last freq returns.
func sharpeRatio(returns []float64, freq int, riskFree float64) (float64, error) {
	last, err := window(returns, freq)
	if err != nil {
		return 0, fmt.Errorf("could not calculate sharpe ratio: [%v]", err)
	}

	return (mean(last) - riskFree) / stddev(last), nil
}

// lowerSemivariance is the average squared negative return over the last
// freq returns. Positive returns contribute zero, so it only measures
// downside movement.
func lowerSemivariance(returns []float64, freq int) (float64, error) {
	last, err := window(returns, freq)
	if err != nil {
		return 0, fmt.Errorf("could not calculate lower semivariance: [%v]", err)
	}

	sum := 0.0
	for _, ret := range last {
		downside := math.Min(ret, 0)
		sum += downside * downside
	}

	return sum / float64(len(last)), nil
}

// rollingEconomicDrawdown is how far the last close sits below the maximum
// close of the last freq observations, as a fraction of that maximum.
func rollingEconomicDrawdown(closes []float64, freq int) (float64, error) {
	last, err := window(closes, freq)
	if err != nil {
		return 0, fmt.Errorf(
			"could not calculate rolling economic drawdown: [%v]",
			err,
		)
	}

	max := last[0]
	for _, close := range last {
		if close > max {
			max = close
		}
	}

	return 1 - last[len(last)-1]/max, nil
}

// continuousDrawdowns collects the depth of every completed losing streak
// within the last freq returns. A streak accumulates multiplicatively and
// closes on the first positive return or at the end of the window.
func continuousDrawdowns(returns []float64, freq int) ([]float64, error) {
	last, err := window(returns, freq)
	if err != nil {
		return nil, fmt.Errorf(
			"could not calculate continuous drawdowns: [%v]",
			err,
		)
	}

	var drawdowns []float64

	streak := 1.0
	for i, ret := range last {
		switch {
		case i == 0 && ret < 0:
			streak = ret + 1
		case i == 0 && ret > 0:
			streak = 1
		case i > 0 && ret < 0:
			streak *= ret + 1
		case i > 0 && ret > 0:
			if depth := 1 - streak; depth != 0 {
				drawdowns = append(drawdowns, depth)
				streak = 1
			}
		}
	}

	if streak < 1 {
		if depth := 1 - streak; depth != 0 {
			drawdowns = append(drawdowns, depth)
		}
	}

	return drawdowns, nil
}

// averageDrawdown is the mean losing-streak depth over the last freq
// returns; zero when the window has no losing streak at all.
func averageDrawdown(returns []float64, freq int) (float64, error) {
	drawdowns, err := continuousDrawdowns(returns, freq)
	if err != nil {
		return 0, err
	}

	if len(drawdowns) == 0 {
		return 0, nil
	}

	return mean(drawdowns), nil
}

// relativeStrengthIndex computes the RSI of the series closes over the
// given timeframe.
func relativeStrengthIndex(
	series *trading.PriceSeries,
	timeframe int,
) (float64, error) {
	if series.Len() <= timeframe {
		return 0, fmt.Errorf(
			"not enough candles for rsi: have [%v], need [%v]",
			series.Len(), timeframe+1,
		)
	}

	candles := techan.NewTimeSeries()
	for _, currentCandle := range series.Candles {
		candles.AddCandle(toTechanCandle(&currentCandle, series.Resolution))
	}

	indicator := techan.NewRelativeStrengthIndexIndicator(
		techan.NewClosePriceIndicator(candles),
		timeframe,
	)

	return indicator.Calculate(candles.LastIndex()).Float(), nil
}

func toTechanCandle(
	candle *trading.Candle,
	resolution trading.Period,
) *techan.Candle {
	period := techan.TimePeriod{
		Start: candle.Time,
		End:   candle.Time.Add(resolution.Duration()),
	}

	techanCandle := techan.NewCandle(period)

	techanCandle.OpenPrice = big.NewDecimal(candle.Open)
	techanCandle.ClosePrice = big.NewDecimal(candle.Close)
	techanCandle.MaxPrice = big.NewDecimal(candle.High)
	techanCandle.MinPrice = big.NewDecimal(candle.Low)

	return techanCandle
}
