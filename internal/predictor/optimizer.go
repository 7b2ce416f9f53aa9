package predictor

import (
	"math"
	"sort"

	"dlt-predictor/internal/features"
	"dlt-predictor/internal/logger"
	"dlt-predictor/internal/weights"

	"github.com/sirupsen/logrus"
)

// OptimizedTag 优化后的分析说明后缀
const OptimizedTag = " [已优化]"

// 优化比例与候选池下限
const (
	optimizeShare   = 0.4
	stableFrontPool = 15
	stableBackPool  = 8
)

// Variant 优化变体
type Variant string

const (
	VariantColdFocus      Variant = "cold_focus"
	VariantOddEvenBalance Variant = "odd_even_balance"
	VariantStability      Variant = "stability"
)

// VariantFor 根据验证建议选择优化变体
func VariantFor(r *Report) Variant {
	if r == nil {
		return VariantStability
	}
	switch {
	case containsString(r.Recommendations, RecommendColdFocus):
		return VariantColdFocus
	case containsString(r.Recommendations, RecommendOddEven):
		return VariantOddEvenBalance
	default:
		return VariantStability
	}
}

// Optimizer 稳定性优化器
type Optimizer struct {
	src Source
}

// NewOptimizer 创建优化器
func NewOptimizer(src Source) *Optimizer {
	return &Optimizer{src: src}
}

// Optimize 随机替换 ⌈40%⌉ 注预测，只做一次，不再重新验证
//
// 同一位置可能被抽中多次，后一次覆盖前一次。替换结果保持原批次的前后区个数。
func (o *Optimizer) Optimize(batch []PredictionResult, report *Report, an *Analysis, frontCount, backCount int) []PredictionResult {
	out := append([]PredictionResult(nil), batch...)
	if len(out) == 0 {
		return out
	}

	variant := VariantFor(report)
	times := int(math.Ceil(float64(len(out)) * optimizeShare))
	logger.WithFields(logrus.Fields{
		"predictions": len(out),
		"replaced":    times,
		"variant":     variant,
	}).Info("Optimizing prediction batch for stability")

	for i := 0; i < times; i++ {
		idx := intn(o.src, len(out))
		front := o.stabilizedFront(an, variant, frontCount)
		back := o.stabilizedBack(an, backCount)
		sort.Ints(front)
		sort.Ints(back)

		out[idx] = PredictionResult{
			ID:        idx + 1,
			Front:     front,
			Back:      back,
			Analysis:  Narrate(an) + OptimizedTag,
			Optimized: true,
		}
	}
	return out
}

func (o *Optimizer) stabilizedFront(an *Analysis, variant Variant, count int) []int {
	f := an.Features
	cands := make([]CandidateScore, 0, features.Front.Max())
	for n := 1; n <= features.Front.Max(); n++ {
		score := weights.Frequency(n, f, features.Front) * 30
		switch variant {
		case VariantColdFocus:
			score += weights.HotCold(n, f, features.Front) * 40
		case VariantOddEvenBalance:
			score += 15
		default:
			score += weights.Periodic(n, f, features.Front) * 25
		}
		cands = append(cands, CandidateScore{Number: n, Score: score})
	}
	return o.drawFromTop(cands, maxInt(stableFrontPool, count), count)
}

func (o *Optimizer) stabilizedBack(an *Analysis, count int) []int {
	f := an.Features
	cands := make([]CandidateScore, 0, features.Back.Max())
	for n := 1; n <= features.Back.Max(); n++ {
		score := weights.Frequency(n, f, features.Back)*40 +
			weights.Periodic(n, f, features.Back)*30 +
			weights.MissStreak(n, f, features.Back)*30
		cands = append(cands, CandidateScore{Number: n, Score: score})
	}
	return o.drawFromTop(cands, maxInt(stableBackPool, count), count)
}

// drawFromTop 在分数最高的 pool 个号码中随机抽取 count 个
func (o *Optimizer) drawFromTop(cands []CandidateScore, pool, count int) []int {
	sortByScore(cands)
	top := numbersOf(cands)
	if len(top) > pool {
		top = top[:pool]
	}

	selected := make([]int, 0, count)
	for len(selected) < count && len(top) > 0 {
		i := intn(o.src, len(top))
		selected = append(selected, top[i])
		top = append(top[:i], top[i+1:]...)
	}
	return selected
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
