package analytics

import (
	"math"
)

type ConsistencyStat struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	CoeffVar float64 `json:"coeff_var"`
}

type TrendStat struct {
	SlopePerDay float64 `json:"slope_per_day"`
	Direction   string  `json:"direction"`
}

type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// calcConsistencyStat uses the population standard deviation.
func calcConsistencyStat(values []float64) ConsistencyStat {
	if len(values) == 0 {
		return ConsistencyStat{}
	}
	mean := avg(values)
	sum := 0.0
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	out := ConsistencyStat{
		Mean:   mean,
		StdDev: math.Sqrt(sum / float64(len(values))),
	}
	if mean != 0 {
		out.CoeffVar = out.StdDev / math.Abs(mean)
	}
	return out
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func trendFromValues(values []float64) TrendStat {
	slope := linearRegressionSlope(values)
	direction := "flat"
	if slope >= 0.5 {
		direction = "up"
	} else if slope <= -0.5 {
		direction = "down"
	}
	return TrendStat{SlopePerDay: slope, Direction: direction}
}

// linearRegressionSlope fits y = a + b*x over x = 0..n-1 and returns b.
func linearRegressionSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := (float64(n) * sumX2) - (sumX * sumX)
	if denom == 0 {
		return 0
	}
	return ((float64(n) * sumXY) - (sumX * sumY)) / denom
}

func computeBooleanStreak(flags []bool) Streak {
	var out Streak
	run := 0
	for _, ok := range flags {
		if ok {
			run++
			if run > out.Longest {
				out.Longest = run
			}
			continue
		}
		run = 0
	}
	for i := len(flags) - 1; i >= 0 && flags[i]; i-- {
		out.Current++
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
