package features

// 无历史数据时使用的默认统计表
var (
	fallbackFrontFrequency = []float64{
		0.078, 0.082, 0.075, 0.089, 0.076, 0.083, 0.091, 0.087, 0.079, 0.088,
		0.084, 0.078, 0.085, 0.081, 0.079, 0.086, 0.083, 0.077, 0.092, 0.080,
		0.088, 0.074, 0.089, 0.082, 0.076, 0.085, 0.081, 0.090, 0.077, 0.084,
		0.079, 0.087, 0.083, 0.078, 0.086,
	}
	fallbackBackFrequency = []float64{
		0.082, 0.085, 0.078, 0.089, 0.076, 0.083, 0.091, 0.087, 0.079, 0.088, 0.084, 0.078,
	}

	fallbackFrontHot  = []int{4, 7, 19, 23, 28, 32, 16, 21, 26, 10}
	fallbackFrontCold = []int{3, 5, 12, 15, 22, 25, 29, 31, 34, 35}
	fallbackBackHot   = []int{2, 4, 7, 10}
	fallbackBackCold  = []int{3, 5, 9, 12}

	fallbackRecent = []Draw{
		{Front: []int{7, 12, 19, 23, 28}, Back: []int{4, 11}},
		{Front: []int{3, 15, 21, 26, 32}, Back: []int{2, 9}},
		{Front: []int{8, 14, 18, 25, 31}, Back: []int{5, 12}},
		{Front: []int{2, 11, 17, 24, 29}, Back: []int{1, 8}},
		{Front: []int{6, 13, 20, 27, 33}, Back: []int{3, 10}},
		{Front: []int{1, 9, 16, 22, 30}, Back: []int{6, 7}},
		{Front: []int{4, 10, 19, 26, 34}, Back: []int{2, 11}},
		{Front: []int{5, 12, 18, 23, 35}, Back: []int{4, 9}},
		{Front: []int{7, 14, 21, 28, 31}, Back: []int{1, 12}},
		{Front: []int{3, 11, 17, 25, 32}, Back: []int{5, 8}},
		{Front: []int{8, 15, 20, 24, 29}, Back: []int{3, 10}},
		{Front: []int{2, 13, 19, 27, 33}, Back: []int{6, 7}},
		{Front: []int{6, 16, 22, 26, 30}, Back: []int{2, 9}},
		{Front: []int{1, 12, 18, 23, 34}, Back: []int{4, 11}},
		{Front: []int{9, 14, 21, 28, 35}, Back: []int{1, 8}},
	}
)

// Fallback 构建默认特征
//
// 频率与冷热取默认表，遗漏与间隔按内置的近 15 期计算，
// 不设最大间隔，频率权重因此保持默认表的值。每次调用都返回新的副本。
func Fallback() *Features {
	f := &Features{
		Front: fallbackArea(Front, fallbackFrontFrequency, fallbackFrontHot, fallbackFrontCold),
		Back:  fallbackArea(Back, fallbackBackFrequency, fallbackBackHot, fallbackBackCold),
		IntervalStats: map[int]float64{
			1: 0.15, 2: 0.18, 3: 0.16, 4: 0.14, 5: 0.12, 6: 0.10, 7: 0.08, 8: 0.07,
		},
		SpanBuckets: map[string]float64{
			Span15to20: 0.12, Span21to25: 0.18, Span26to30: 0.22,
			Span31to35: 0.20, Span36to40: 0.15, Span41Plus: 0.13,
		},
		OddEvenRatios: map[string]float64{
			"5:0": 0.03, "4:1": 0.15, "3:2": 0.31, "2:3": 0.31, "1:4": 0.15, "0:5": 0.05,
		},
		SizeRatios: map[string]float64{
			"5:0": 0.04, "4:1": 0.16, "3:2": 0.30, "2:3": 0.30, "1:4": 0.16, "0:5": 0.04,
		},
		Fallback: true,
	}

	f.Recent = make([]Draw, len(fallbackRecent))
	for i, d := range fallbackRecent {
		f.Recent[i] = Draw{
			Front: append([]int(nil), d.Front...),
			Back:  append([]int(nil), d.Back...),
		}
	}
	return f
}

func fallbackArea(area Area, freq []float64, hot, cold []int) AreaStats {
	recent := areaStats(fallbackRecent, nil, area)
	s := AreaStats{
		Frequency:   make(map[int]float64, len(freq)),
		Appearances: recent.Appearances,
		Intervals:   recent.Intervals,
		AvgInterval: recent.AvgInterval,
		MissStreak:  recent.MissStreak,
		Hot:         append([]int(nil), hot...),
		Cold:        append([]int(nil), cold...),
	}
	for i, v := range freq {
		s.Frequency[i+1] = v
	}
	s.indexHotCold()
	return s
}
