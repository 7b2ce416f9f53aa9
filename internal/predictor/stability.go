package predictor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"dlt-predictor/internal/features"

	"gonum.org/v1/gonum/stat"
)

// MinValidationBatch 多期验证需要的最少预测注数
const MinValidationBatch = 3

// OptimizeThreshold 稳定性评分低于该值时进行一次优化
const OptimizeThreshold = 60

// 验证各项阈值与扣分
const (
	frontSpreadLimit = 2.0
	backSpreadLimit  = 1.5
	trendTolerance   = 0.2
	trendWindow      = 20
	trendMatchFloor  = 5.0
	intervalMin      = 3.0
	intervalMax      = 8.0
	intervalShareMin = 0.6

	frontSpreadPenalty   = 15
	backSpreadPenalty    = 10
	trendPenalty         = 20
	intervalPenalty      = 15
	zeroDiversityPenalty = 45
)

// 验证建议
const (
	RecommendFrontSpread   = "红球选择过于分散，建议集中在高频号码"
	RecommendBackSpread    = "蓝球选择缺乏一致性，建议优化选择策略"
	RecommendNoTrendData   = "历史数据不足，无法进行趋势分析"
	RecommendTrendMismatch = "预测结果与近期趋势匹配度较低，建议调整策略"
	RecommendInterval      = "号码间隔分布不够合理，建议优化间隔策略"
	RecommendZeroDiversity = "各注预测完全相同，号码多样性为零，建议重新生成"

	// RecommendColdFocus 与 RecommendOddEven 触发优化器的对应变体
	RecommendColdFocus = "增加冷号选择比例"
	RecommendOddEven   = "优化奇偶比例分布"
)

// Report 多期验证报告
type Report struct {
	StabilityScore  int      `json:"stabilityScore"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`

	FrontSpread   float64 `json:"frontSpread"`
	BackSpread    float64 `json:"backSpread"`
	TrendMatch    float64 `json:"trendMatch"`
	IntervalShare float64 `json:"intervalShare"`
	ZeroDiversity bool    `json:"zeroDiversity"`
	Optimized     bool    `json:"optimized"`
}

// NeedsOptimization 评分是否低于优化阈值
func (r *Report) NeedsOptimization() bool {
	return r != nil && r.StabilityScore < OptimizeThreshold
}

// Summary 附加到首注分析说明后的报告文本
func (r *Report) Summary() string {
	return "\n\n【多期验证报告】\n" + r.Analysis + "\n推荐策略：" + strings.Join(r.Recommendations, "；")
}

// Validate 对一批预测做多期稳定性验证，不足 MinValidationBatch 注时返回 nil
//
// 评分从 100 开始：前后区选号次数的离散度、与最近 20 期奇偶/大小比例的匹配度、
// 相邻号码平均间隔的合理性各自扣分；全部预测完全相同时额外扣 45 分。结果限制在 0-100。
func Validate(batch []PredictionResult, recent []features.Draw) *Report {
	if len(batch) < MinValidationBatch {
		return nil
	}
	r := &Report{Recommendations: []string{}}
	score := 100

	r.FrontSpread = selectionSpread(batch, false)
	r.BackSpread = selectionSpread(batch, true)
	if r.FrontSpread > frontSpreadLimit {
		score -= frontSpreadPenalty
		r.Recommendations = append(r.Recommendations, RecommendFrontSpread)
	}
	if r.BackSpread > backSpreadLimit {
		score -= backSpreadPenalty
		r.Recommendations = append(r.Recommendations, RecommendBackSpread)
	}

	matched, ok := trendMatch(batch, recent)
	if !ok {
		r.Recommendations = append(r.Recommendations, RecommendNoTrendData)
	}
	r.TrendMatch = matched / float64(len(batch)*2)
	if r.TrendMatch < trendMatchFloor {
		score -= trendPenalty
		r.Recommendations = append(r.Recommendations, RecommendTrendMismatch)
	}

	r.IntervalShare = intervalShare(batch)
	if r.IntervalShare < intervalShareMin {
		score -= intervalPenalty
		r.Recommendations = append(r.Recommendations, RecommendInterval)
	}

	if identical(batch) {
		r.ZeroDiversity = true
		score -= zeroDiversityPenalty
		r.Recommendations = append(r.Recommendations, RecommendZeroDiversity)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.StabilityScore = score
	r.Analysis = r.render()
	return r
}

func (r *Report) render() string {
	lines := []string{
		"多期验证分析报告：",
		"- 红球选择稳定性：" + verdict(r.FrontSpread < frontSpreadLimit, "良好", "需改进"),
		"- 蓝球选择稳定性：" + verdict(r.BackSpread < backSpreadLimit, "良好", "需改进"),
		"- 趋势匹配度：" + verdict(r.TrendMatch >= trendMatchFloor, "较高", "较低"),
		"- 间隔合理性：" + verdict(r.IntervalShare >= intervalShareMin, "合理", "需优化"),
	}
	if r.ZeroDiversity {
		lines = append(lines, "- 号码多样性：无")
	}
	lines = append(lines, fmt.Sprintf("- 整体稳定性评分：%d/100", r.StabilityScore))
	return strings.Join(lines, "\n")
}

func verdict(ok bool, good, bad string) string {
	if ok {
		return good
	}
	return bad
}

// selectionSpread 各号码被选次数的总体标准差
func selectionSpread(batch []PredictionResult, back bool) float64 {
	counts := make(map[int]float64)
	for _, p := range batch {
		nums := p.Front
		if back {
			nums = p.Back
		}
		for _, n := range nums {
			counts[n]++
		}
	}
	if len(counts) == 0 {
		return 0
	}
	values := make([]float64, 0, len(counts))
	for _, c := range counts {
		values = append(values, c)
	}
	sort.Float64s(values)
	return math.Sqrt(stat.PopVariance(values, nil))
}

// trendMatch 与最近 20 期前区奇偶、大小比例的匹配分，每项在 0.2 以内加 10 分
func trendMatch(batch []PredictionResult, recent []features.Draw) (float64, bool) {
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	var total, odd, small int
	for _, d := range recent {
		for _, n := range d.Front {
			total++
			if n%2 == 1 {
				odd++
			}
			if n <= features.Front.SmallLimit() {
				small++
			}
		}
	}
	if total == 0 {
		return float64(len(batch) * 10), false
	}

	expectedOdd := float64(odd) / float64(total)
	expectedSmall := float64(small) / float64(total)
	score := 0.0
	for _, p := range batch {
		if len(p.Front) == 0 {
			continue
		}
		size := float64(len(p.Front))
		if math.Abs(float64(features.CountOdd(p.Front))/size-expectedOdd) < trendTolerance {
			score += 10
		}
		if math.Abs(float64(features.CountSmall(p.Front, features.Front))/size-expectedSmall) < trendTolerance {
			score += 10
		}
	}
	return score, true
}

// intervalShare 平均间隔落在 [3,8] 的预测占比，间隔在整批预测中累计
func intervalShare(batch []PredictionResult) float64 {
	var sum, n float64
	consistent := 0
	for _, p := range batch {
		sorted := append([]int(nil), p.Front...)
		sort.Ints(sorted)
		for i := 1; i < len(sorted); i++ {
			sum += float64(sorted[i] - sorted[i-1])
			n++
		}
		if n == 0 {
			continue
		}
		if avg := sum / n; avg >= intervalMin && avg <= intervalMax {
			consistent++
		}
	}
	return float64(consistent) / float64(len(batch))
}

func identical(batch []PredictionResult) bool {
	first := batch[0]
	for _, p := range batch[1:] {
		if !sameNumbers(p.Front, first.Front) || !sameNumbers(p.Back, first.Back) {
			return false
		}
	}
	return true
}

func sameNumbers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
