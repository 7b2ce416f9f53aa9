package weights

import (
	"testing"

	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skewedFeatures 500 期数据，7 出现在 40% 的前区，30 出现在 2% 的前区
func skewedFeatures() *features.Features {
	var others []int
	for n := 1; n <= 35; n++ {
		if n != 7 && n != 30 {
			others = append(others, n)
		}
	}

	records := make([]database.DrawRecord, 0, 500)
	p, q := 0, 0
	for i := 0; i < 500; i++ {
		var front []int
		if i%5 < 2 {
			front = append(front, 7)
		}
		if i%50 == 0 {
			front = append(front, 30)
		}
		for len(front) < 5 {
			front = append(front, others[p%len(others)])
			p++
		}
		back := []int{q%12 + 1, (q+1)%12 + 1}
		q += 2
		records = append(records, database.DrawRecord{Front: database.SortedCopy(front), Back: database.SortedCopy(back)})
	}
	return features.Extract(records)
}

func periodicFeatures(intervals []int, miss int) *features.Features {
	total := 0
	for _, v := range intervals {
		total += v
	}
	avg := float64(total) / float64(len(intervals))

	f := features.Fallback()
	f.Fallback = false
	f.Front.Intervals = map[int][]int{1: intervals}
	f.Front.AvgInterval = map[int]float64{1: avg}
	f.Front.MaxInterval = map[int]float64{1: avg}
	f.Front.MissStreak = map[int]int{1: miss}
	return f
}

// TestSkewedFrequencyAndHotCold tests that the injected skew ranks 7 above 30
func TestSkewedFrequencyAndHotCold(t *testing.T) {
	f := skewedFeatures()

	assert.Greater(t, Frequency(7, f, features.Front), Frequency(30, f, features.Front))
	avg := 496.0 / 199.0
	assert.InDelta(t, 0.4+0.3/(avg+1)+0.1*avg/5, Frequency(7, f, features.Front), 1e-9)
	assert.Equal(t, 0.6, HotCold(7, f, features.Front))
	assert.Equal(t, 1.4, HotCold(30, f, features.Front))
}

// TestFallbackWeights tests the default tables and the built-in recent draws
func TestFallbackWeights(t *testing.T) {
	f := features.Fallback()

	assert.InDelta(t, 0.091, Frequency(7, f, features.Front), 1e-9)
	assert.InDelta(t, 0.078, Frequency(12, f, features.Back), 1e-9)
	assert.Equal(t, DefaultFrequency, Frequency(40, f, features.Front))

	// 7 只有一个间隔，周期退回中性值
	assert.Equal(t, 1.0, Periodic(7, f, features.Front))
	assert.Equal(t, 1.0, MissStreak(7, f, features.Front))

	// 12 间隔 6、7，遗漏 1 期
	stability := 1 / (1 + 0.25/6.5)
	assert.InDelta(t, 0.7*1.2*stability, Periodic(12, f, features.Front), 1e-9)
	assert.Equal(t, 0.6, MissStreak(12, f, features.Front))
	assert.Equal(t, 1.3, MissStreak(31, f, features.Front))
	assert.Greater(t, Stability(31, f, features.Front), Stability(12, f, features.Front))
}

// TestFrequencyCap tests the 1.5 ceiling
func TestFrequencyCap(t *testing.T) {
	f := periodicFeatures([]int{1, 1}, 0)
	f.Front.Frequency[1] = 1.4
	f.Front.AvgInterval[1] = 0
	f.Front.MaxInterval[1] = 0

	assert.Equal(t, 1.5, Frequency(1, f, features.Front))
}

// TestMissTier tests the tier table
func TestMissTier(t *testing.T) {
	cases := []struct {
		ratio float64
		want  float64
	}{
		{0, 0.6},
		{0.3, 0.6},
		{0.5, 1.0},
		{0.8, 1.1},
		{1.0, 1.3},
		{1.2, 1.5},
		{1.5, 1.8},
		{2.0, 2.2},
		{5.0, 2.2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MissTier(tc.ratio), "ratio %v", tc.ratio)
	}
}

// TestMissTierMonotonic tests that the weight never decreases as the miss ratio grows
func TestMissTierMonotonic(t *testing.T) {
	prev := MissTier(0)
	for i := 1; i <= 400; i++ {
		w := MissTier(float64(i) * 0.01)
		require.GreaterOrEqual(t, w, prev, "ratio %.2f", float64(i)*0.01)
		prev = w
	}
}

// TestMissStreakUsesRatio tests the miss weight on hand-built features
func TestMissStreakUsesRatio(t *testing.T) {
	assert.Equal(t, 1.3, MissStreak(1, periodicFeatures([]int{2, 2, 2}, 2), features.Front))
	assert.Equal(t, 2.2, MissStreak(1, periodicFeatures([]int{2, 2, 2}, 4), features.Front))
	assert.Equal(t, 0.6, MissStreak(1, periodicFeatures([]int{2, 2, 2}, 0), features.Front))
}

// TestPeriodic tests stability and the consistency bonus
func TestPeriodic(t *testing.T) {
	// 间隔恒定：稳定性 1，遗漏比 1，1.4 × 1.2
	assert.InDelta(t, 1.68, Periodic(1, periodicFeatures([]int{2, 2, 2}, 2), features.Front), 1e-9)

	// 间隔 1 与 5：方差 4，均值 3，稳定性 3/7，遗漏比 2
	assert.InDelta(t, 1.8*3.0/7.0, Periodic(1, periodicFeatures([]int{1, 5}, 6), features.Front), 1e-9)

	// 只有一个间隔时返回中性值
	assert.Equal(t, 1.0, Periodic(1, periodicFeatures([]int{3}, 6), features.Front))
}

// TestPeriodicTier tests the periodic tier boundaries
func TestPeriodicTier(t *testing.T) {
	assert.Equal(t, 0.7, PeriodicTier(0.2))
	assert.Equal(t, 1.0, PeriodicTier(0.6))
	assert.Equal(t, 1.4, PeriodicTier(1.0))
	assert.Equal(t, 1.6, PeriodicTier(1.5))
	assert.Equal(t, 1.8, PeriodicTier(2.5))
}

// TestIntervalScore tests gap products and pattern penalties
func TestIntervalScore(t *testing.T) {
	f := features.Fallback()

	assert.Equal(t, 1.0, IntervalScore([]int{3, 8}, f))
	assert.InDelta(t, 1.15*1.15*1.15*1.15*0.6*0.7, IntervalScore([]int{5, 4, 3, 2, 1}, f), 1e-9)
	assert.InDelta(t, 1.12*1.08*1.08*1.07, IntervalScore([]int{3, 8, 15, 22, 30}, f), 1e-9)
	assert.InDelta(t, 1.05*1.05, IntervalScore([]int{1, 20, 34}, f), 1e-9)
}

// TestSpanScore tests bucket lookup and uniformity
func TestSpanScore(t *testing.T) {
	f := features.Fallback()

	assert.InDelta(t, 0.4, SpanScore([]int{1, 9, 17, 25, 33}, f), 1e-9)
	assert.Less(t, SpanScore([]int{1, 2, 3, 4, 33}, f), 0.4)
	assert.GreaterOrEqual(t, SpanScore([]int{1, 2, 3, 4, 33}, f), 0.4*0.3-1e-9)
	assert.Equal(t, 1.0, SpanScore([]int{1, 33}, f))
}

// TestRatioScores tests odd:even and small:large lookups
func TestRatioScores(t *testing.T) {
	f := features.Fallback()

	assert.InDelta(t, 0.93, OddEvenScore([]int{1, 3, 5, 2, 4}, f), 1e-9)
	assert.InDelta(t, 0.9, SizeScore([]int{1, 2, 3, 20, 30}, f), 1e-9)

	f.OddEvenRatios["5:0"] = 0
	assert.Equal(t, 0.5, OddEvenScore([]int{1, 3, 5, 7, 9}, f))
}

// TestComposite tests the weighted sum on the fallback table
func TestComposite(t *testing.T) {
	f := features.Fallback()

	back := Composite([]int{1, 2}, f, features.Back)
	assert.InDelta(t, (0.082+0.085)/2*25+0.8*20+25+30, back, 1e-9)

	front := []int{3, 8, 15, 22, 30}
	want := 0.0
	for _, n := range front {
		want += Frequency(n, f, features.Front)*25 + HotCold(n, f, features.Front)*20
	}
	want = want/5 + 25 +
		IntervalScore(front, f)*12 + SpanScore(front, f)*10 +
		OddEvenScore(front, f)*5 + SizeScore(front, f)*3
	assert.InDelta(t, want, Composite(front, f, features.Front), 1e-9)

	assert.Zero(t, Composite(nil, f, features.Front))
}

// TestRunHelpers tests adjacency and run counting
func TestRunHelpers(t *testing.T) {
	assert.Equal(t, 3, Adjacencies([]int{1, 2, 3, 10, 11}))
	assert.Equal(t, 3, MaxRun([]int{1, 2, 3, 10, 11}))
	assert.Equal(t, 1, MaxRun([]int{1, 3, 5}))
	assert.Equal(t, 0, MaxRun(nil))
}

// TestStability tests the per-number stability average
func TestStability(t *testing.T) {
	f := periodicFeatures([]int{2, 2, 2}, 2)
	assert.InDelta(t, (1.68+1.3+1.0)/3, Stability(1, f, features.Front), 1e-9)
}
