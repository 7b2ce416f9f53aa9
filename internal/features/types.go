// Package features derives the historical statistics that every weighting
// heuristic reads: per-number frequency, recent hot and cold sets, appearance
// offsets, interval series, miss streaks and the front-area shape
// distributions (gap, span, odd:even, small:large).
package features

import "fmt"

// Area 号码区域
type Area int

const (
	// Front 前区（红球）
	Front Area = iota
	// Back 后区（蓝球）
	Back
)

// Max 区域最大号码
func (a Area) Max() int {
	if a == Back {
		return 12
	}
	return 35
}

// Size 每期开出的号码个数
func (a Area) Size() int {
	if a == Back {
		return 2
	}
	return 5
}

// SmallLimit 小号上限（含）
func (a Area) SmallLimit() int {
	if a == Back {
		return 6
	}
	return 17
}

// HotCount 近期热号/冷号个数
func (a Area) HotCount() int {
	if a == Back {
		return 5
	}
	return 12
}

// InRange 号码是否在区域范围内
func (a Area) InRange(n int) bool {
	return n >= 1 && n <= a.Max()
}

func (a Area) String() string {
	if a == Back {
		return "back"
	}
	return "front"
}

// Span bucket labels used by SpanBuckets.
const (
	Span15to20 = "15-20"
	Span21to25 = "21-25"
	Span26to30 = "26-30"
	Span31to35 = "31-35"
	Span36to40 = "36-40"
	Span41Plus = "41+"
)

// SpanLabels 跨度分桶顺序
var SpanLabels = []string{Span15to20, Span21to25, Span26to30, Span31to35, Span36to40, Span41Plus}

// SpanBucket 返回跨度所属分桶，不在 15-40 之间的都归入 41+
func SpanBucket(span int) string {
	switch {
	case span >= 15 && span <= 20:
		return Span15to20
	case span >= 21 && span <= 25:
		return Span21to25
	case span >= 26 && span <= 30:
		return Span26to30
	case span >= 31 && span <= 35:
		return Span31to35
	case span >= 36 && span <= 40:
		return Span36to40
	default:
		return Span41Plus
	}
}

// RatioKey 比例键，例如 "3:2"
func RatioKey(a, b int) string {
	return fmt.Sprintf("%d:%d", a, b)
}

// RatioLabels 五码比例键
var RatioLabels = []string{"5:0", "4:1", "3:2", "2:3", "1:4", "0:5"}

// Draw 一期的前后区号码
type Draw struct {
	Front []int `json:"front"`
	Back  []int `json:"back"`
}

// Numbers 返回指定区域号码
func (d Draw) Numbers(a Area) []int {
	if a == Back {
		return d.Back
	}
	return d.Front
}

// AreaStats 单个区域的统计特征
type AreaStats struct {
	// Frequency 出现次数/总期数
	Frequency map[int]float64
	// Hot 近期出现最多的号码，按次数降序
	Hot []int
	// Cold 近期出现最少的号码
	Cold []int
	// Appearances 出现位置，0 为最近一期，升序
	Appearances map[int][]int
	// Intervals 相邻两次出现的间隔
	Intervals map[int][]int
	// AvgInterval 平均间隔，出现不足两次时为总期数
	AvgInterval map[int]float64
	// MaxInterval 最大间隔，出现不足两次时为总期数
	MaxInterval map[int]float64
	// MissStreak 当前遗漏期数
	MissStreak map[int]int

	hotSet  map[int]bool
	coldSet map[int]bool
}

// IsHot 是否近期热号
func (s *AreaStats) IsHot(n int) bool {
	return s.hotSet[n]
}

// IsCold 是否近期冷号
func (s *AreaStats) IsCold(n int) bool {
	return s.coldSet[n]
}

func (s *AreaStats) indexHotCold() {
	s.hotSet = toSet(s.Hot)
	s.coldSet = toSet(s.Cold)
}

// Features 历史特征，由开奖记录一次性计算得到，之后只读
type Features struct {
	Front AreaStats
	Back  AreaStats

	// IntervalStats 前区相邻号码差值分布
	IntervalStats map[int]float64
	// SpanBuckets 前区跨度分布
	SpanBuckets map[string]float64
	// OddEvenRatios 前区奇偶比分布
	OddEvenRatios map[string]float64
	// SizeRatios 前区大小比分布
	SizeRatios map[string]float64

	// Recent 最近若干期，旧到新
	Recent []Draw
	// RecordCount 参与统计的期数
	RecordCount int
	// Fallback 无历史数据时使用默认表
	Fallback bool
}

// Area 返回指定区域统计
func (f *Features) Area(a Area) *AreaStats {
	if a == Back {
		return &f.Back
	}
	return &f.Front
}

func toSet(nums []int) map[int]bool {
	set := make(map[int]bool, len(nums))
	for _, n := range nums {
		set[n] = true
	}
	return set
}
