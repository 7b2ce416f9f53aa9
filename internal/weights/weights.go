// Package weights holds the per-number and per-set scoring heuristics. Every
// function is pure and reads only the features passed in.
package weights

import (
	"math"

	"dlt-predictor/internal/features"

	"gonum.org/v1/gonum/stat"
)

// DefaultFrequency 缺少频率数据时的基础频率
const DefaultFrequency = 0.08

// Frequency 频率权重
//
// 在平均间隔和最大间隔都已知时，间隔越短越稳定的号码得分越高，上限 1.5。
func Frequency(n int, f *features.Features, area features.Area) float64 {
	s := f.Area(area)
	base, ok := s.Frequency[n]
	if !ok {
		base = DefaultFrequency
	}

	avg, okAvg := s.AvgInterval[n]
	longest, okMax := s.MaxInterval[n]
	if !okAvg || !okMax {
		return base
	}

	intervalScore := 1 / (avg + 1)
	consistencyScore := avg / (longest + 1)
	return math.Min(base+intervalScore*0.3+consistencyScore*0.1, 1.5)
}

// HotCold 冷热权重：热号 0.6，冷号 1.4
func HotCold(n int, f *features.Features, area features.Area) float64 {
	s := f.Area(area)
	switch {
	case s.IsHot(n):
		return 0.6
	case s.IsCold(n):
		return 1.4
	default:
		return 1.0
	}
}

// Periodic 周期权重
func Periodic(n int, f *features.Features, area features.Area) float64 {
	s := f.Area(area)
	series := s.Intervals[n]
	avg, okAvg := s.AvgInterval[n]
	miss, okMiss := s.MissStreak[n]
	if len(series) <= 1 || !okAvg || !okMiss || avg <= 0 {
		return 1.0
	}

	values := make([]float64, len(series))
	for i, v := range series {
		values[i] = float64(v)
	}
	stability := 1 / (1 + stat.PopVariance(values, nil)/avg)

	weight := PeriodicTier(float64(miss) / avg)
	if stability > 0.7 {
		weight *= 1.2
	}
	return math.Min(weight*stability, 2.5)
}

// PeriodicTier 遗漏比对应的周期倍数
func PeriodicTier(ratio float64) float64 {
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return 1.4
	case ratio > 1.2 && ratio <= 1.8:
		return 1.6
	case ratio > 1.8:
		return 1.8
	case ratio < 0.5:
		return 0.7
	default:
		return 1.0
	}
}

// MissStreak 遗漏权重
func MissStreak(n int, f *features.Features, area features.Area) float64 {
	s := f.Area(area)
	miss, okMiss := s.MissStreak[n]
	avg, okAvg := s.AvgInterval[n]
	if !okMiss || !okAvg || avg <= 0 {
		return 1.0
	}
	return MissTier(float64(miss) / avg)
}

// MissTier 遗漏比分档，随遗漏比单调不减
func MissTier(ratio float64) float64 {
	switch {
	case ratio >= 2.0:
		return 2.2
	case ratio >= 1.5:
		return 1.8
	case ratio >= 1.2:
		return 1.5
	case ratio >= 1.0:
		return 1.3
	case ratio >= 0.8:
		return 1.1
	case ratio <= 0.3:
		return 0.6
	default:
		return 1.0
	}
}

// Stability 单个号码的稳定性：周期、遗漏、间隔三项均值
func Stability(n int, f *features.Features, area features.Area) float64 {
	return (Periodic(n, f, area) + MissStreak(n, f, area) + IntervalScore([]int{n}, f)) / 3
}
