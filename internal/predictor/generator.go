package predictor

import (
	"sort"

	"dlt-predictor/internal/features"
	"dlt-predictor/internal/logger"
	"dlt-predictor/internal/weights"
)

// BackConsecutiveAllowance 后区两码相邻时仍被接受的概率
const BackConsecutiveAllowance = 0.3

// Limits 拒绝采样的最大尝试次数
type Limits struct {
	MaxFrontAttempts int
	MaxBackAttempts  int
}

// DefaultLimits 前区 500 次，后区 200 次
func DefaultLimits() Limits {
	return Limits{MaxFrontAttempts: 500, MaxBackAttempts: 200}
}

// singlePlan 单式一个区域的选号参数，下标为策略编号
type singlePlan struct {
	area features.Area
	// purchaseBonus 最少购买 / 其他 / 无购票数据
	purchaseBonus [3]float64
	freqWeight    float64
	tie           float64
	window        int
	pools         [3]int
	picks         [3]int
	fill          int
}

var (
	singleFrontPlan = singlePlan{
		area:          features.Front,
		purchaseBonus: [3]float64{50, 15, 30},
		freqWeight:    25,
		tie:           5,
		window:        SingleFrontWindow,
		pools:         [3]int{15, 12, 18},
		picks:         [3]int{5, 4, 6},
		fill:          10,
	}
	singleBackPlan = singlePlan{
		area:          features.Back,
		purchaseBonus: [3]float64{55, 15, 35},
		freqWeight:    20,
		tie:           3,
		window:        SingleBackWindow,
		pools:         [3]int{8, 6, 10},
		picks:         [3]int{3, 2, 4},
		fill:          6,
	}
)

// SingleStrategy 单式精准选号
//
// 候选分数由购买数据、历史频率、稳定性、动态走势与冷热五部分组成。
// 三种策略按序号轮换：稳定优先、用户数据优先、平衡。
type SingleStrategy struct {
	src    Source
	limits Limits
}

// NewSingleStrategy 创建单式选号策略
func NewSingleStrategy(src Source, limits Limits) *SingleStrategy {
	return &SingleStrategy{src: src, limits: limits}
}

// Name 策略名称
func (s *SingleStrategy) Name() string {
	return "precision"
}

// Generate 生成一注 5+2
func (s *SingleStrategy) Generate(req GenerateRequest) Selection {
	an := req.Analysis
	front, frontOK := s.pickArea(singleFrontPlan, req.Index, an, s.limits.MaxFrontAttempts,
		func(nums []int) bool { return s.validFront(nums, an) })
	back, backOK := s.pickArea(singleBackPlan, req.Index, an, s.limits.MaxBackAttempts,
		s.validBack)

	sort.Ints(front)
	sort.Ints(back)
	return Selection{Front: front, Back: back, FrontSatisfied: frontOK, BackSatisfied: backOK}
}

// PrecisionCandidates 单式候选池，按分数降序，分差小于阈值时按稳定性
func PrecisionCandidates(an *Analysis, area features.Area) []CandidateScore {
	plan := singleFrontPlan
	if area == features.Back {
		plan = singleBackPlan
	}
	return precisionCandidates(plan, an)
}

func precisionCandidates(plan singlePlan, an *Analysis) []CandidateScore {
	f := an.Features
	dyn := an.Dynamic(plan.window)
	least := an.leastFront()
	if plan.area == features.Back {
		least = an.leastBack()
	}

	cands := make([]CandidateScore, 0, plan.area.Max())
	for n := 1; n <= plan.area.Max(); n++ {
		score := plan.purchaseBonus[2]
		if len(least) > 0 {
			if containsInt(least, n) {
				score = plan.purchaseBonus[0]
			} else {
				score = plan.purchaseBonus[1]
			}
		}

		stability := weights.Stability(n, f, plan.area)
		score += weights.Frequency(n, f, plan.area)*plan.freqWeight +
			stability*15 +
			dyn.Get(n, plan.area)*7 +
			weights.HotCold(n, f, plan.area)*3

		cands = append(cands, CandidateScore{Number: n, Score: score, Stability: stability})
	}
	sortPrecision(cands, plan.tie)
	return cands
}

// strategyPool 按策略截取候选池
func strategyPool(plan singlePlan, strategy int, cands []CandidateScore, least []int) []CandidateScore {
	var pool []CandidateScore
	switch strategy {
	case 0:
		median := medianStability(cands)
		for _, c := range cands {
			if c.Stability > median {
				pool = append(pool, c)
			}
		}
		// 稳定性全部相同（如默认特征）时不过滤
		if len(pool) == 0 {
			pool = append(pool, cands...)
		}
	case 1:
		for _, c := range cands {
			if len(least) == 0 || containsInt(least, c.Number) {
				pool = append(pool, c)
			}
		}
	default:
		pool = append(pool, cands...)
	}
	if len(pool) > plan.pools[strategy] {
		pool = pool[:plan.pools[strategy]]
	}
	return pool
}

func (s *SingleStrategy) pickArea(plan singlePlan, index int, an *Analysis, maxAttempts int, valid func([]int) bool) ([]int, bool) {
	count := plan.area.Size()
	strategy := index % 3
	cands := precisionCandidates(plan, an)
	least := an.leastFront()
	if plan.area == features.Back {
		least = an.leastBack()
	}

	attempt := func() []int {
		var selected []int
		pool := append([]CandidateScore(nil), strategyPool(plan, strategy, cands, least)...)
		for len(selected) < count && len(pool) > 0 {
			top := plan.picks[strategy]
			if top > len(pool) {
				top = len(pool)
			}
			i := intn(s.src, top)
			c := pool[i]
			pool = append(pool[:i], pool[i+1:]...)
			if valid(append(append([]int(nil), selected...), c.Number)) {
				selected = append(selected, c.Number)
			}
		}

		if len(selected) < count {
			rest := without(cands, selected)
			if len(rest) > plan.fill {
				rest = rest[:plan.fill]
			}
			for _, c := range rest {
				if len(selected) >= count {
					break
				}
				if valid(append(append([]int(nil), selected...), c.Number)) {
					selected = append(selected, c.Number)
				}
			}
		}
		return selected
	}

	nums, ok := sample(maxAttempts, count, attempt)
	if !ok {
		logger.Warnf("Constraint sampling exhausted after %d attempts for %s area (strategy %d), padding with best candidates",
			maxAttempts, plan.area, strategy)
		nums = padBest(nums, cands, count)
	}
	return nums, ok
}

// sample 重复尝试直到得到 count 个号码或用尽次数，返回最后一次结果及是否满足
func sample(maxAttempts, count int, attempt func() []int) ([]int, bool) {
	var selected []int
	for attempts := 0; len(selected) < count && attempts < maxAttempts; attempts++ {
		selected = attempt()
	}
	return selected, len(selected) >= count
}

// validFront 单式前区：不在排除组合中，奇偶与大小均为 2:3 或 3:2，相邻连号不超过 2 处
//
// 未选满时只剔除已经不可能满足比例或连号规则的前缀。
func (s *SingleStrategy) validFront(nums []int, an *Analysis) bool {
	if len(nums) < features.Front.Size() {
		return feasibleFront(nums)
	}
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)

	if an.Excluded.Contains(sorted[:features.Front.Size()]) {
		return false
	}
	if odd := features.CountOdd(sorted); odd < 2 || odd > 3 {
		return false
	}
	if small := features.CountSmall(sorted, features.Front); small < 2 || small > 3 {
		return false
	}
	if weights.Adjacencies(sorted) > 2 {
		return false
	}
	return ValidFrontCombination(sorted)
}

// feasibleFront 前缀中任一类号码超过 3 个时，补满后比例不可能是 2:3 或 3:2
func feasibleFront(nums []int) bool {
	limit := features.Front.Size() - 2
	odd := features.CountOdd(nums)
	small := features.CountSmall(nums, features.Front)
	if odd > limit || len(nums)-odd > limit || small > limit || len(nums)-small > limit {
		return false
	}
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)
	return weights.Adjacencies(sorted) <= 2
}

// ValidFrontCombination 前区通用规则：连号不超过 3 个，跨度在 10-45，奇偶、大小不能全同
func ValidFrontCombination(nums []int) bool {
	if len(nums) == 0 || hasDuplicate(nums) {
		return false
	}
	if len(nums) < features.Front.Size() {
		return true
	}
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)

	if weights.MaxRun(sorted) > 3 {
		return false
	}
	if span := sorted[len(sorted)-1] - sorted[0]; span < 10 || span > 45 {
		return false
	}
	if isAllSame(sorted, func(n int) bool { return n%2 == 1 }) {
		return false
	}
	return !isAllSame(sorted, func(n int) bool { return n <= features.Front.SmallLimit() })
}

// validBack 后区两码：全奇全偶以 0.7、全大全小以 0.6 的概率放行，其余交给 validBackCombination
func (s *SingleStrategy) validBack(nums []int) bool {
	if len(nums) < features.Back.Size() {
		return true
	}
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)

	if isAllSame(sorted, func(n int) bool { return n%2 == 1 }) {
		return s.src.Next() > 0.3
	}
	if isAllSame(sorted, func(n int) bool { return n <= features.Back.SmallLimit() }) {
		return s.src.Next() > 0.4
	}
	return s.validBackCombination(sorted)
}

// validBackCombination 后区通用规则：不能重复，相邻两码以 BackConsecutiveAllowance 的概率放行
func (s *SingleStrategy) validBackCombination(sorted []int) bool {
	if hasDuplicate(sorted) {
		return false
	}
	if weights.Adjacencies(sorted) > 0 {
		return s.src.Next() < BackConsecutiveAllowance
	}
	return true
}

func medianStability(cands []CandidateScore) float64 {
	if len(cands) == 0 {
		return 0
	}
	values := make([]float64, len(cands))
	for i, c := range cands {
		values[i] = c.Stability
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}

func hasDuplicate(nums []int) bool {
	seen := make(map[int]bool, len(nums))
	for _, n := range nums {
		if seen[n] {
			return true
		}
		seen[n] = true
	}
	return false
}
