package features

import (
	"sort"

	"dlt-predictor/internal/database"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultRecentWindow 默认近期窗口
const DefaultRecentWindow = 30

// Option 特征提取选项
type Option func(*options)

type options struct {
	recentWindow int
}

// WithRecentWindow 设置近期窗口大小
func WithRecentWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.recentWindow = n
		}
	}
}

// Extract 从开奖记录（旧到新）计算历史特征
//
// 空输入返回默认表。越界号码在统计时忽略，同一期内的重复号码只计一次。
func Extract(records []database.DrawRecord, opts ...Option) *Features {
	o := options{recentWindow: DefaultRecentWindow}
	for _, opt := range opts {
		opt(&o)
	}

	if len(records) == 0 {
		return Fallback()
	}

	draws := make([]Draw, len(records))
	for i, r := range records {
		draws[i] = Draw{Front: clean(r.Front, Front), Back: clean(r.Back, Back)}
	}

	window := o.recentWindow
	if window > len(draws) {
		window = len(draws)
	}
	recent := draws[len(draws)-window:]

	f := &Features{
		Front:       areaStats(draws, recent, Front),
		Back:        areaStats(draws, recent, Back),
		Recent:      append([]Draw(nil), recent...),
		RecordCount: len(draws),
	}
	shapeStats(f, draws)
	return f
}

// clean 过滤越界与重复号码并排序
func clean(nums []int, area Area) []int {
	seen := make(map[int]bool, len(nums))
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		if !area.InRange(n) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func areaStats(draws, recent []Draw, area Area) AreaStats {
	total := len(draws)
	s := AreaStats{
		Frequency:   make(map[int]float64, area.Max()),
		Appearances: make(map[int][]int, area.Max()),
		Intervals:   make(map[int][]int, area.Max()),
		AvgInterval: make(map[int]float64, area.Max()),
		MaxInterval: make(map[int]float64, area.Max()),
		MissStreak:  make(map[int]int, area.Max()),
	}

	// 从最近一期往前扫描，位置 0 为最近一期
	for offset := 0; offset < total; offset++ {
		for _, n := range draws[total-1-offset].Numbers(area) {
			s.Appearances[n] = append(s.Appearances[n], offset)
		}
	}

	for n := 1; n <= area.Max(); n++ {
		apps := s.Appearances[n]
		s.Frequency[n] = float64(len(apps)) / float64(total)

		if len(apps) == 0 {
			s.MissStreak[n] = total
		} else {
			s.MissStreak[n] = apps[0]
		}

		if len(apps) < 2 {
			s.Intervals[n] = nil
			s.AvgInterval[n] = float64(total)
			s.MaxInterval[n] = float64(total)
			continue
		}

		gaps := make([]int, len(apps)-1)
		series := make([]float64, len(apps)-1)
		for i := 1; i < len(apps); i++ {
			gaps[i-1] = apps[i] - apps[i-1]
			series[i-1] = float64(gaps[i-1])
		}
		s.Intervals[n] = gaps
		s.AvgInterval[n] = stat.Mean(series, nil)
		s.MaxInterval[n] = floats.Max(series)
	}

	s.Hot, s.Cold = rankRecent(recent, area)
	s.indexHotCold()
	return s
}

// rankRecent 按近期出现次数排序，取前后各 HotCount 个
func rankRecent(recent []Draw, area Area) (hot, cold []int) {
	counts := make(map[int]int, area.Max())
	for _, d := range recent {
		for _, n := range d.Numbers(area) {
			counts[n]++
		}
	}

	ranked := make([]int, 0, area.Max())
	for n := 1; n <= area.Max(); n++ {
		ranked = append(ranked, n)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})

	k := area.HotCount()
	hot = append([]int(nil), ranked[:k]...)
	cold = append([]int(nil), ranked[len(ranked)-k:]...)
	return hot, cold
}

// shapeStats 计算前区间隔、跨度、奇偶、大小分布
func shapeStats(f *Features, draws []Draw) {
	f.IntervalStats = make(map[int]float64)
	f.SpanBuckets = make(map[string]float64, len(SpanLabels))
	f.OddEvenRatios = make(map[string]float64, len(RatioLabels))
	f.SizeRatios = make(map[string]float64, len(RatioLabels))
	for _, label := range SpanLabels {
		f.SpanBuckets[label] = 0
	}
	for _, label := range RatioLabels {
		f.OddEvenRatios[label] = 0
		f.SizeRatios[label] = 0
	}

	gapCounts := make(map[int]int)
	for _, d := range draws {
		front := d.Front
		if len(front) != Front.Size() {
			continue
		}

		for i := 1; i < len(front); i++ {
			gapCounts[front[i]-front[i-1]]++
		}
		f.SpanBuckets[SpanBucket(front[len(front)-1]-front[0])]++

		odd, small := CountOdd(front), CountSmall(front, Front)
		f.OddEvenRatios[RatioKey(odd, len(front)-odd)]++
		f.SizeRatios[RatioKey(small, len(front)-small)]++
	}

	total := float64(len(draws))
	for gap, c := range gapCounts {
		f.IntervalStats[gap] = float64(c) / (total * float64(Front.Size()-1))
	}
	for k := range f.SpanBuckets {
		f.SpanBuckets[k] /= total
	}
	for k := range f.OddEvenRatios {
		f.OddEvenRatios[k] /= total
	}
	for k := range f.SizeRatios {
		f.SizeRatios[k] /= total
	}
}

// CountOdd 奇数个数
func CountOdd(nums []int) int {
	c := 0
	for _, n := range nums {
		if n%2 == 1 {
			c++
		}
	}
	return c
}

// CountSmall 小号个数
func CountSmall(nums []int, area Area) int {
	c := 0
	for _, n := range nums {
		if n <= area.SmallLimit() {
			c++
		}
	}
	return c
}
