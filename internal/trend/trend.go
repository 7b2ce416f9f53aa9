// Package trend analyses a rolling window of the most recent draws and turns the
// drift it finds into per-number multipliers layered on top of the static weights.
package trend

import (
	"fmt"
	"sort"

	"dlt-predictor/internal/features"

	"gonum.org/v1/gonum/stat"
)

// 奇偶/大小偏移阈值
const (
	FrontSkewHigh = 0.65
	FrontSkewLow  = 0.35
	BackSkewHigh  = 0.6
	BackSkewLow   = 0.4

	HotFactor  = 0.8
	ColdFactor = 1.3
	SkewFactor = 1.2
)

// AreaTrend 单个区域的近期走势
type AreaTrend struct {
	// Hot 窗口内出现次数高于均值 1.2 倍的号码及次数
	Hot map[int]int
	// Cold 窗口内出现次数低于均值 0.8 倍的号码及次数
	Cold map[int]int
	// OddRatio 奇数占比
	OddRatio float64
	// SmallRatio 小号占比
	SmallRatio float64
}

// Snapshot 近期走势快照
type Snapshot struct {
	Window int
	Front  AreaTrend
	Back   AreaTrend
	// AvgInterval 前区平均相邻间隔
	AvgInterval float64
	// AvgSpan 前区平均跨度
	AvgSpan float64
	// ConsecutivePatterns 连号模式计数，键为 consecutive_N
	ConsecutivePatterns map[string]int
}

// Analyze 分析最近 window 期走势，数据不足时返回 nil
func Analyze(recent []features.Draw, window int) *Snapshot {
	if window <= 0 || len(recent) < window {
		return nil
	}
	draws := recent[len(recent)-window:]

	snap := &Snapshot{
		Window:              window,
		Front:               areaTrend(draws, features.Front),
		Back:                areaTrend(draws, features.Back),
		ConsecutivePatterns: make(map[string]int),
	}

	intervals := make([]float64, 0, len(draws))
	spans := make([]float64, 0, len(draws))
	for _, d := range draws {
		front := append([]int(nil), d.Front...)
		if len(front) < 2 {
			continue
		}
		sort.Ints(front)

		span := front[len(front)-1] - front[0]
		spans = append(spans, float64(span))
		intervals = append(intervals, float64(span)/float64(len(front)-1))

		run := 1
		for i := 1; i <= len(front); i++ {
			if i < len(front) && front[i]-front[i-1] == 1 {
				run++
				continue
			}
			if run > 1 {
				snap.ConsecutivePatterns[fmt.Sprintf("consecutive_%d", run)]++
			}
			run = 1
		}
	}
	if len(spans) > 0 {
		snap.AvgInterval = stat.Mean(intervals, nil)
		snap.AvgSpan = stat.Mean(spans, nil)
	}
	return snap
}

func areaTrend(draws []features.Draw, area features.Area) AreaTrend {
	t := AreaTrend{Hot: make(map[int]int), Cold: make(map[int]int)}

	counts := make(map[int]int)
	var total, odd, small int
	for _, d := range draws {
		for _, n := range d.Numbers(area) {
			counts[n]++
			total++
			if n%2 == 1 {
				odd++
			}
			if n <= area.SmallLimit() {
				small++
			}
		}
	}
	if total == 0 {
		return t
	}

	mean := float64(total) / float64(len(counts))
	for n, c := range counts {
		switch {
		case float64(c) > mean*1.2:
			t.Hot[n] = c
		case float64(c) < mean*0.8:
			t.Cold[n] = c
		}
	}

	expected := float64(len(draws) * area.Size())
	t.OddRatio = float64(odd) / expected
	t.SmallRatio = float64(small) / expected
	return t
}

// Multipliers 动态权重倍数，按号码索引
type Multipliers struct {
	Front map[int]float64
	Back  map[int]float64
}

// Get 返回号码的倍数，未记录时为 1
func (m Multipliers) Get(n int, area features.Area) float64 {
	src := m.Front
	if area == features.Back {
		src = m.Back
	}
	if v, ok := src[n]; ok {
		return v
	}
	return 1.0
}

// Neutral 全部为 1 的倍数
func Neutral() Multipliers {
	m := Multipliers{Front: make(map[int]float64, 35), Back: make(map[int]float64, 12)}
	for n := 1; n <= features.Front.Max(); n++ {
		m.Front[n] = 1.0
	}
	for n := 1; n <= features.Back.Max(); n++ {
		m.Back[n] = 1.0
	}
	return m
}

// AdjustWeights 根据走势快照计算倍数，快照为 nil 时返回中性倍数
func AdjustWeights(snap *Snapshot) Multipliers {
	m := Neutral()
	if snap == nil {
		return m
	}

	adjust(m.Front, snap.Front, features.Front, FrontSkewHigh, FrontSkewLow)
	adjust(m.Back, snap.Back, features.Back, BackSkewHigh, BackSkewLow)
	return m
}

func adjust(dst map[int]float64, t AreaTrend, area features.Area, high, low float64) {
	for n := 1; n <= area.Max(); n++ {
		v := 1.0
		if _, ok := t.Hot[n]; ok {
			v *= HotFactor
		} else if _, ok := t.Cold[n]; ok {
			v *= ColdFactor
		}

		odd := n%2 == 1
		if (t.OddRatio > high && !odd) || (t.OddRatio < low && odd) {
			v *= SkewFactor
		}

		small := n <= area.SmallLimit()
		if (t.SmallRatio > high && !small) || (t.SmallRatio < low && small) {
			v *= SkewFactor
		}
		dst[n] = v
	}
}
