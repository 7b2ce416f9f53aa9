package predictor

import (
	"math"

	"dlt-predictor/internal/features"
	"dlt-predictor/internal/prize"
	"dlt-predictor/internal/tickets"
	"dlt-predictor/internal/trend"

	"gonum.org/v1/gonum/stat"
)

// 各生成器使用的走势窗口
const (
	SingleFrontWindow   = 8
	SingleBackWindow    = 6
	CompoundFrontWindow = 15
	CompoundBackWindow  = 10
)

// TrendWindows 多策略测算阶段预先计算的窗口
var TrendWindows = []int{SingleFrontWindow, SingleBackWindow, CompoundFrontWindow, CompoundBackWindow}

// Guarantee 保底中奖参数
type Guarantee struct {
	TargetWinRate    float64 `json:"targetWinRate"`
	MinPrizeLevel    string  `json:"minPrizeLevel"`
	AdjustmentFactor float64 `json:"adjustmentFactor"`
	MinPrizeAmount   int64   `json:"minPrizeAmount"`
}

// DefaultGuarantee 目标中奖率 15%，最低保底六等奖
func DefaultGuarantee() *Guarantee {
	g := &Guarantee{TargetWinRate: 0.15, MinPrizeLevel: "六等奖", AdjustmentFactor: 1.2}
	for _, tier := range prize.Table {
		if tier.Level == g.MinPrizeLevel {
			g.MinPrizeAmount = tier.Amount
			break
		}
	}
	return g
}

// FeatureProfile 特征工程结果：近期前区和值的分布形态与分区占比
type FeatureProfile struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	// FrontZones 前区五个分区（每区 7 个号码）的出号占比
	FrontZones []float64 `json:"frontZones"`
	// BackZones 后区小号区与大号区的出号占比
	BackZones []float64 `json:"backZones"`
}

// Conventional 常规测算结果
type Conventional struct {
	Hot         []int   `json:"hot"`
	Cold        []int   `json:"cold"`
	OddRatio    float64 `json:"oddRatio"`
	SmallRatio  float64 `json:"smallRatio"`
	Consecutive int     `json:"consecutive"`
}

// Analysis 一次预测运行中逐步积累的分析数据，只在该次运行内使用
type Analysis struct {
	Features *features.Features

	// Purchased 被购买实票统计，未开启时为 nil
	Purchased *tickets.PurchasedStats
	// Guarantee 保底中奖参数
	Guarantee *Guarantee
	// Excluded 不中组合，未开启时为 nil
	Excluded tickets.ExcludedSet
	// Combos 组合分析结果
	Combos       *ComboAnalysis
	Profile      *FeatureProfile
	Conventional *Conventional

	// HasTickets 是否上传了单式或复式票
	HasTickets bool

	trends map[int]trend.Multipliers
}

// NewAnalysis 创建运行分析数据
func NewAnalysis(f *features.Features) *Analysis {
	if f == nil {
		f = features.Fallback()
	}
	return &Analysis{Features: f, trends: make(map[int]trend.Multipliers)}
}

// Dynamic 最近 window 期走势得到的动态倍数，同一窗口只计算一次
func (a *Analysis) Dynamic(window int) trend.Multipliers {
	if m, ok := a.trends[window]; ok {
		return m
	}
	m := trend.AdjustWeights(trend.Analyze(a.Features.Recent, window))
	a.trends[window] = m
	return m
}

func (a *Analysis) leastFront() []int {
	if a.Purchased == nil {
		return nil
	}
	return a.Purchased.LeastFront
}

func (a *Analysis) leastBack() []int {
	if a.Purchased == nil {
		return nil
	}
	return a.Purchased.LeastBack
}

// BuildProfile 计算近期前区和值的均值、方差、偏度、峰度与分区占比
func BuildProfile(recent []features.Draw) *FeatureProfile {
	p := &FeatureProfile{FrontZones: make([]float64, 5), BackZones: make([]float64, 2)}

	sums := make([]float64, 0, len(recent))
	var frontTotal, backTotal float64
	for _, d := range recent {
		sum := 0
		for _, n := range d.Front {
			sum += n
			if features.Front.InRange(n) {
				p.FrontZones[(n-1)/7]++
				frontTotal++
			}
		}
		sums = append(sums, float64(sum))
		for _, n := range d.Back {
			if !features.Back.InRange(n) {
				continue
			}
			if n <= features.Back.SmallLimit() {
				p.BackZones[0]++
			} else {
				p.BackZones[1]++
			}
			backTotal++
		}
	}
	normalize(p.FrontZones, frontTotal)
	normalize(p.BackZones, backTotal)

	if len(sums) == 0 {
		return p
	}
	p.Mean = stat.Mean(sums, nil)
	if len(sums) > 1 {
		p.Variance = stat.Variance(sums, nil)
	}
	if len(sums) > 2 {
		p.Skewness = finite(stat.Skew(sums, nil))
		p.Kurtosis = finite(stat.ExKurtosis(sums, nil))
	}
	return p
}

// BuildConventional 常规测算：热冷号、奇偶与大小比例、连号次数
func BuildConventional(f *features.Features) *Conventional {
	c := &Conventional{
		Hot:  slice(f.Front.Hot, 0, 10),
		Cold: slice(f.Front.Cold, 0, 10),
	}
	snap := trend.Analyze(f.Recent, len(f.Recent))
	if snap == nil {
		return c
	}
	c.OddRatio = snap.Front.OddRatio
	c.SmallRatio = snap.Front.SmallRatio
	for _, v := range snap.ConsecutivePatterns {
		c.Consecutive += v
	}
	return c
}

func normalize(v []float64, total float64) {
	if total == 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
