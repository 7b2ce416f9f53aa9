package predictor

import (
	"math"
	"sort"

	"dlt-predictor/internal/features"
	"dlt-predictor/internal/weights"
)

// CompoundStrategy 复式组合优化选号
//
// 前区四种策略按序号轮换：用户数据优先、组合分析优先、走势优先、冷热平衡创新组合；
// 后区为用户数据优先、走势优先、平衡、冷热平衡。每次调用都抽取新的偏移与随机因子，
// 同一策略重复调用也会得到不同结果。复式不做严格校验，总能返回要求的个数。
type CompoundStrategy struct {
	src Source
}

// NewCompoundStrategy 创建复式选号策略
func NewCompoundStrategy(src Source) *CompoundStrategy {
	return &CompoundStrategy{src: src}
}

// Name 策略名称
func (s *CompoundStrategy) Name() string {
	return "combination"
}

// Generate 生成一注复式号码
func (s *CompoundStrategy) Generate(req GenerateRequest) Selection {
	frontCount := clampCount(req.FrontCount, features.Front)
	backCount := clampCount(req.BackCount, features.Back)

	front := s.front(req.Analysis, frontCount, req.Index)
	back := s.back(req.Analysis, backCount, req.Index)
	sort.Ints(front)
	sort.Ints(back)
	return Selection{Front: front, Back: back, FrontSatisfied: true, BackSatisfied: true}
}

// CompoundFrontCandidates 复式前区候选评分，按号码顺序
func CompoundFrontCandidates(an *Analysis) []CandidateScore {
	f := an.Features
	dyn := an.Dynamic(CompoundFrontWindow)
	least := an.leastFront()

	cands := make([]CandidateScore, 0, features.Front.Max())
	for n := 1; n <= features.Front.Max(); n++ {
		score := 40.0
		if containsInt(least, n) {
			score = 55
		}
		score += weights.Frequency(n, f, features.Front) * 20

		if an.Combos != nil {
			inThree, inFour := an.Combos.Membership(n)
			switch {
			case inThree && inFour:
				score += 15
			case inThree || inFour:
				score += 12
			default:
				score += 5
			}
		}

		score += dyn.Get(n, features.Front)*7 + weights.HotCold(n, f, features.Front)*3
		cands = append(cands, CandidateScore{Number: n, Score: score})
	}
	return cands
}

// CompoundBackCandidates 复式后区候选评分，按号码顺序
func CompoundBackCandidates(an *Analysis) []CandidateScore {
	f := an.Features
	dyn := an.Dynamic(CompoundBackWindow)
	least := an.leastBack()
	maxCount := an.Purchased.MaxBackCount()

	cands := make([]CandidateScore, 0, features.Back.Max())
	for n := 1; n <= features.Back.Max(); n++ {
		var score float64
		switch {
		case containsInt(least, n):
			score = 60
		case maxCount > 0:
			score = (1 - float64(an.Purchased.BackCounts[n])/float64(maxCount)) * 60
		default:
			score = 40
		}

		d := dyn.Get(n, features.Back)
		score += (weights.Frequency(n, f, features.Back)*25 +
			weights.Periodic(n, f, features.Back)*10 +
			weights.MissStreak(n, f, features.Back)*5) * d
		cands = append(cands, CandidateScore{Number: n, Score: score})
	}
	return cands
}

func (s *CompoundStrategy) front(an *Analysis, count, index int) []int {
	cands := CompoundFrontCandidates(an)
	dyn := an.Dynamic(CompoundFrontWindow)
	least := an.leastFront()

	offset := intn(s.src, 3) + 1
	factor := s.src.Next()*0.3 + 0.85

	var selected []int
	switch index % 4 {
	case 0:
		ranked := s.perturb(cands, func(c CandidateScore) float64 {
			return c.Score*factor + noise(s.src, 10)
		})
		selected = s.priority(ranked, least, count, offset)

	case 1:
		ranked := s.perturb(cands, func(c CandidateScore) float64 {
			return c.Score*factor + noise(s.src, 8)
		})
		if an.Combos != nil {
			var comboNums []int
			for _, c := range ranked {
				if three, four := an.Combos.Membership(c.Number); three || four {
					comboNums = append(comboNums, c.Number)
				}
			}
			end := ceilCount(count, 0.7+s.src.Next()*0.2) + offset
			selected = appendUnique(nil, count, slice(comboNums, offset, end)...)
		}
		rest := numbersOf(without(ranked, selected))
		selected = appendUnique(selected, count, slice(rest, offset, count-len(selected)+offset)...)

	case 2:
		ranked := s.perturb(cands, func(c CandidateScore) float64 {
			return (c.Score+dyn.Get(c.Number, features.Front)*10)*factor + noise(s.src, 5)
		})
		selected = appendUnique(nil, count, slice(numbersOf(ranked), offset, count+offset)...)

	default:
		hotCount := ceilCount(count, 0.3+s.src.Next()*0.2)
		coldCount := ceilCount(count, 0.2+s.src.Next()*0.2)
		hot := slice(an.Features.Front.Hot, offset, hotCount+offset)
		cold := slice(an.Features.Front.Cold, offset, coldCount+offset)

		ranked := s.perturb(cands, func(c CandidateScore) float64 {
			return c.Score*factor + noise(s.src, 12)
		})
		var balance []int
		for _, c := range ranked {
			if containsInt(hot, c.Number) || containsInt(cold, c.Number) {
				continue
			}
			if len(least) == 0 || containsInt(least, c.Number) {
				balance = append(balance, c.Number)
			}
		}
		balance = slice(balance, offset, count-len(hot)-len(cold)+offset)

		selected = appendUnique(nil, count, hot...)
		selected = appendUnique(selected, count, cold...)
		selected = appendUnique(selected, count, balance...)
	}

	return s.pad(selected, cands, count)
}

func (s *CompoundStrategy) back(an *Analysis, count, index int) []int {
	cands := CompoundBackCandidates(an)
	dyn := an.Dynamic(CompoundBackWindow)
	least := an.leastBack()

	offset := intn(s.src, 2) + 1
	factor := s.src.Next()*0.4 + 0.8

	var selected []int
	switch index % 4 {
	case 0:
		ranked := s.perturb(cands, func(c CandidateScore) float64 {
			return c.Score*factor + noise(s.src, 15)
		})
		selected = s.priority(ranked, least, count, offset)

	case 1:
		ranked := s.perturb(cands, func(c CandidateScore) float64 {
			return (c.Score+dyn.Get(c.Number, features.Back)*15)*factor + noise(s.src, 8)
		})
		selected = appendUnique(nil, count, slice(numbersOf(ranked), offset, count+offset)...)

	case 2:
		ranked := s.perturb(cands, func(c CandidateScore) float64 {
			return c.Score*factor + noise(s.src, 10)
		})
		topRatio := 0.6 + s.src.Next()*0.2
		top := slice(numbersOf(ranked), offset, ceilCount(count, topRatio)+offset)

		var preferred []int
		for _, c := range ranked {
			if containsInt(least, c.Number) {
				preferred = append(preferred, c.Number)
			}
		}
		preferred = slice(preferred, offset, count-len(top)+offset)

		selected = appendUnique(nil, count, top...)
		selected = appendUnique(selected, count, preferred...)

	default:
		hotRatio := 0.4 + s.src.Next()*0.3
		coldRatio := 0.2 + s.src.Next()*0.2
		hot := slice(an.Features.Back.Hot, offset, ceilCount(count, hotRatio)+offset)
		cold := slice(an.Features.Back.Cold, offset, ceilCount(count, coldRatio)+offset)

		var filtered []CandidateScore
		for _, c := range cands {
			if containsInt(hot, c.Number) || containsInt(cold, c.Number) {
				continue
			}
			if len(least) == 0 || containsInt(least, c.Number) {
				filtered = append(filtered, c)
			}
		}
		ranked := s.perturb(filtered, func(c CandidateScore) float64 {
			return c.Score*factor + noise(s.src, 10)
		})
		balance := slice(numbersOf(ranked), offset, count-len(hot)-len(cold)+offset)

		selected = appendUnique(nil, count, hot...)
		selected = appendUnique(selected, count, cold...)
		selected = appendUnique(selected, count, balance...)
	}

	return s.pad(selected, cands, count)
}

// priority 先取最少购买的号码，再跳过 offset 个补充高分号码
func (s *CompoundStrategy) priority(ranked []CandidateScore, least []int, count, offset int) []int {
	priorityCount := count - offset
	if len(least) < priorityCount {
		priorityCount = len(least)
	}
	if priorityCount < 1 {
		priorityCount = 1
	}

	var selected []int
	for _, c := range ranked {
		if len(selected) >= priorityCount {
			break
		}
		if containsInt(least, c.Number) {
			selected = append(selected, c.Number)
		}
	}
	selected = appendUnique(nil, count, selected...)

	rest := numbersOf(without(ranked, selected))
	return appendUnique(selected, count, slice(rest, offset, count-len(selected)+offset)...)
}

// perturb 复制候选并按 fn 重新打分后降序排列
func (s *CompoundStrategy) perturb(cands []CandidateScore, fn func(CandidateScore) float64) []CandidateScore {
	out := make([]CandidateScore, len(cands))
	for i, c := range cands {
		c.Score = fn(c)
		out[i] = c
	}
	sortByScore(out)
	return out
}

// pad 不足时用原始分数最高的剩余号码补齐
func (s *CompoundStrategy) pad(selected []int, cands []CandidateScore, count int) []int {
	if len(selected) >= count {
		return selected[:count]
	}
	ranked := append([]CandidateScore(nil), cands...)
	sortByScore(ranked)
	return padBest(selected, ranked, count)
}

func ceilCount(count int, ratio float64) int {
	return int(math.Ceil(float64(count) * ratio))
}

func clampCount(count int, area features.Area) int {
	if count < area.Size() {
		return area.Size()
	}
	if count > area.Max() {
		return area.Max()
	}
	return count
}
