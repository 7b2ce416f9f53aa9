package predictor

import (
	"sort"

	"dlt-predictor/internal/features"
	"dlt-predictor/internal/tickets"
)

// 推荐组合个数与抽取来源
const (
	ThreeBallCombos = 12
	FourBallCombos  = 8

	comboHotPool  = 15
	comboColdPool = 10
	maxComboTries = 200
)

// ComboAnalysis 组合分析结果
type ComboAnalysis struct {
	// ThreeBall 推荐的三码组合
	ThreeBall [][]int `json:"threeBallCombos"`
	// FourBall 推荐的四码组合
	FourBall [][]int `json:"fourBallCombos"`
	// ThreeFreq 近期开奖中三码子组合出现次数
	ThreeFreq map[string]int `json:"-"`
	// FourFreq 近期开奖中四码子组合出现次数
	FourFreq map[string]int `json:"-"`
	// HistoricalMatches 不同子组合的个数
	HistoricalMatches int    `json:"historicalMatches"`
	Depth             string `json:"analysisDepth"`

	inThree map[int]bool
	inFour  map[int]bool
}

// AnalyzeCombos 统计近期三码、四码子组合，并按 70% 热号、20% 冷号、10% 任意号码生成推荐组合
func AnalyzeCombos(f *features.Features, src Source) *ComboAnalysis {
	ca := &ComboAnalysis{
		ThreeFreq: make(map[string]int),
		FourFreq:  make(map[string]int),
		Depth:     "deep",
	}

	for _, d := range f.Recent {
		front := append([]int(nil), d.Front...)
		sort.Ints(front)
		for _, combo := range tickets.Combinations(front, 3) {
			ca.ThreeFreq[tickets.ComboKey(combo)]++
		}
		for _, combo := range tickets.Combinations(front, 4) {
			ca.FourFreq[tickets.ComboKey(combo)]++
		}
	}
	ca.HistoricalMatches = len(ca.ThreeFreq) + len(ca.FourFreq)

	hot := slice(f.Front.Hot, 0, comboHotPool)
	cold := slice(f.Front.Cold, 0, comboColdPool)
	ca.ThreeBall = suggestCombos(src, hot, cold, 3, ThreeBallCombos)
	ca.FourBall = suggestCombos(src, hot, cold, 4, FourBallCombos)

	ca.inThree = memberSet(ca.ThreeBall)
	ca.inFour = memberSet(ca.FourBall)
	return ca
}

// Membership 号码是否出现在推荐的三码、四码组合中
func (ca *ComboAnalysis) Membership(n int) (inThree, inFour bool) {
	if ca == nil {
		return false, false
	}
	if ca.inThree == nil && ca.inFour == nil {
		ca.inThree = memberSet(ca.ThreeBall)
		ca.inFour = memberSet(ca.FourBall)
	}
	return ca.inThree[n], ca.inFour[n]
}

// TopThree 出现次数最多的三码子组合
func (ca *ComboAnalysis) TopThree(limit int) []string {
	return topKeys(ca.ThreeFreq, limit)
}

func suggestCombos(src Source, hot, cold []int, size, count int) [][]int {
	out := make([][]int, 0, count)
	for i := 0; i < count; i++ {
		combo := make([]int, 0, size)
		for tries := 0; len(combo) < size; tries++ {
			var n int
			if tries >= maxComboTries {
				// 随机源退化时按号码顺序补齐
				n = firstMissing(combo)
				combo = append(combo, n)
				continue
			}
			r := src.Next()
			switch {
			case r < 0.7 && len(hot) > 0:
				n = hot[intn(src, len(hot))]
			case r < 0.9 && len(cold) > 0:
				n = cold[intn(src, len(cold))]
			default:
				n = intn(src, features.Front.Max()) + 1
			}
			if !containsInt(combo, n) {
				combo = append(combo, n)
			}
		}
		sort.Ints(combo)
		out = append(out, combo)
	}
	return out
}

func firstMissing(combo []int) int {
	for n := 1; n <= features.Front.Max(); n++ {
		if !containsInt(combo, n) {
			return n
		}
	}
	return 0
}

func memberSet(combos [][]int) map[int]bool {
	set := make(map[int]bool)
	for _, c := range combos {
		for _, n := range c {
			set[n] = true
		}
	}
	return set
}

func topKeys(freq map[string]int, limit int) []string {
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
