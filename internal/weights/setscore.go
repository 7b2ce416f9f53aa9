package weights

import (
	"math"
	"sort"

	"dlt-predictor/internal/features"
)

// 组合评分各项的权重
const (
	WeightFrequency = 25.0
	WeightHotCold   = 20.0
	WeightPeriodic  = 15.0
	WeightMiss      = 10.0
	WeightInterval  = 12.0
	WeightSpan      = 10.0
	WeightOddEven   = 5.0
	WeightSize      = 3.0

	// BackBonus 后区或不足五个号码时补充的分数
	BackBonus = 30.0
)

func sorted(nums []int) []int {
	out := append([]int(nil), nums...)
	sort.Ints(out)
	return out
}

// IntervalScore 组合内相邻号码间隔得分
//
// 不足三个号码时返回 1。等差数列乘 0.6，三处及以上相邻连号乘 0.7，上限 2.5。
func IntervalScore(nums []int, f *features.Features) float64 {
	if len(nums) < 3 {
		return 1.0
	}
	s := sorted(nums)

	score := 1.0
	for i := 1; i < len(s); i++ {
		w := f.IntervalStats[s[i]-s[i-1]]
		if w == 0 {
			w = 0.05
		}
		score *= 1 + w
	}

	if isArithmetic(s) {
		score *= 0.6
	}
	if Adjacencies(s) >= 3 {
		score *= 0.7
	}
	return math.Min(score, 2.5)
}

// SpanScore 跨度得分，乘以分布均匀度（下限 0.3）
func SpanScore(nums []int, f *features.Features) float64 {
	if len(nums) < 3 {
		return 1.0
	}
	s := sorted(nums)
	span := s[len(s)-1] - s[0]

	score := f.SpanBuckets[features.SpanBucket(span)] * 2
	if score == 0 {
		score = 0.5
	}
	if span == 0 {
		return score * 0.3
	}

	expected := float64(span) / float64(len(s)-1)
	uniformity := 1.0
	for i := 1; i < len(s); i++ {
		deviation := math.Abs(float64(s[i]-s[i-1])-expected) / expected
		uniformity *= 1 - deviation*0.3
	}
	return score * math.Max(uniformity, 0.3)
}

// OddEvenScore 奇偶比得分
func OddEvenScore(nums []int, f *features.Features) float64 {
	odd := features.CountOdd(nums)
	return ratioScore(f.OddEvenRatios[features.RatioKey(odd, len(nums)-odd)])
}

// SizeScore 大小比得分，小号为 ≤17
func SizeScore(nums []int, f *features.Features) float64 {
	small := features.CountSmall(nums, features.Front)
	return ratioScore(f.SizeRatios[features.RatioKey(small, len(nums)-small)])
}

func ratioScore(v float64) float64 {
	if v == 0 {
		return 0.5
	}
	return v * 3
}

// Composite 组合综合得分
//
// 频率、冷热、周期、遗漏四项按组合内号码取平均后加权；前区五个号码以上再加
// 间隔、跨度、奇偶、大小四项，否则补 BackBonus。默认特征下周期与遗漏按满分计。
func Composite(nums []int, f *features.Features, area features.Area) float64 {
	if len(nums) == 0 {
		return 0
	}

	var freq, hc, periodic, miss float64
	for _, n := range nums {
		freq += Frequency(n, f, area)
		hc += HotCold(n, f, area)
		periodic += Periodic(n, f, area)
		miss += MissStreak(n, f, area)
	}
	count := float64(len(nums))

	total := freq/count*WeightFrequency + hc/count*WeightHotCold
	if f.Fallback {
		total += WeightPeriodic + WeightMiss
	} else {
		total += periodic/count*WeightPeriodic + miss/count*WeightMiss
	}

	if area == features.Front && len(nums) >= features.Front.Size() {
		total += IntervalScore(nums, f)*WeightInterval +
			SpanScore(nums, f)*WeightSpan +
			OddEvenScore(nums, f)*WeightOddEven +
			SizeScore(nums, f)*WeightSize
	} else {
		total += BackBonus
	}
	return total
}

// Adjacencies 已排序号码中相差为 1 的相邻对数
func Adjacencies(sortedNums []int) int {
	c := 0
	for i := 1; i < len(sortedNums); i++ {
		if sortedNums[i]-sortedNums[i-1] == 1 {
			c++
		}
	}
	return c
}

// MaxRun 已排序号码中最长连号长度
func MaxRun(sortedNums []int) int {
	if len(sortedNums) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(sortedNums); i++ {
		if sortedNums[i]-sortedNums[i-1] == 1 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}

func isArithmetic(s []int) bool {
	diff := s[1] - s[0]
	for i := 2; i < len(s); i++ {
		if s[i]-s[i-1] != diff {
			return false
		}
	}
	return true
}
