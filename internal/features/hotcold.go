package features

import "sort"

// NumberStat 单个号码的统计摘要
type NumberStat struct {
	Number     int     `json:"number"`
	Frequency  float64 `json:"frequency"`
	MissStreak int     `json:"missStreak"`
}

// HotColdSummary 冷热号摘要
type HotColdSummary struct {
	FrontHot  []NumberStat `json:"frontHot"`
	FrontCold []NumberStat `json:"frontCold"`
	BackHot   []NumberStat `json:"backHot"`
	BackCold  []NumberStat `json:"backCold"`
	// MostOverdue 前区遗漏最久的号码
	MostOverdue []NumberStat `json:"mostOverdue"`
	Records     int          `json:"records"`
}

// Summarize 生成冷热号摘要，limit 限制每组个数
func Summarize(f *Features, limit int) *HotColdSummary {
	if limit <= 0 {
		limit = 5
	}

	s := &HotColdSummary{
		FrontHot:  pick(f.Front, f.Front.Hot, limit),
		FrontCold: pick(f.Front, f.Front.Cold, limit),
		BackHot:   pick(f.Back, f.Back.Hot, limit),
		BackCold:  pick(f.Back, f.Back.Cold, limit),
		Records:   f.RecordCount,
	}

	if len(f.Front.MissStreak) > 0 {
		all := make([]int, 0, Front.Max())
		for n := 1; n <= Front.Max(); n++ {
			all = append(all, n)
		}
		sort.SliceStable(all, func(i, j int) bool {
			return f.Front.MissStreak[all[i]] > f.Front.MissStreak[all[j]]
		})
		s.MostOverdue = pick(f.Front, all, limit)
	}
	return s
}

func pick(s AreaStats, nums []int, limit int) []NumberStat {
	if len(nums) > limit {
		nums = nums[:limit]
	}
	out := make([]NumberStat, 0, len(nums))
	for _, n := range nums {
		out = append(out, NumberStat{Number: n, Frequency: s.Frequency[n], MissStreak: s.MissStreak[n]})
	}
	return out
}
