package output

import (
	"bytes"
	"testing"

	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/predictor"
	"dlt-predictor/internal/prize"
	"dlt-predictor/internal/tickets"

	"github.com/stretchr/testify/assert"
)

func newTestRenderer() (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return NewRenderer(&stdout, &stderr, true), &stdout, &stderr
}

// TestPredictions tests the batch listing
func TestPredictions(t *testing.T) {
	r, stdout, _ := newTestRenderer()
	r.Predictions("24101", predictor.ModeSingle, []predictor.PredictionResult{
		{ID: 1, Front: []int{1, 8, 15, 22, 30}, Back: []int{4, 12}, Analysis: "基于历史开奖数据统计。\n\n【多期验证报告】\nx"},
		{ID: 2, Front: []int{3, 9, 16, 24, 31}, Back: []int{2, 7}, Optimized: true},
	})

	out := stdout.String()
	assert.Contains(t, out, "第24101期（单式，2 注）")
	assert.Contains(t, out, "  1. 01 08 15 22 30 + 04 12\n")
	assert.Contains(t, out, "  2. 03 09 16 24 31 + 02 07 [已优化]\n")
	assert.Contains(t, out, "分析：基于历史开奖数据统计。\n")
	assert.NotContains(t, out, "【多期验证报告】")
}

// TestReport tests the validation report block
func TestReport(t *testing.T) {
	r, stdout, _ := newTestRenderer()
	r.Report(nil)
	assert.Empty(t, stdout.String())

	r.Report(&predictor.Report{StabilityScore: 55, Analysis: "多期验证分析报告：", Recommendations: []string{"a"}, Optimized: true})
	out := stdout.String()
	assert.Contains(t, out, "稳定性评分：55/100（已优化）")
	assert.Contains(t, out, "  - a\n")
}

// TestHotColdAndCoverage tests summary blocks
func TestHotColdAndCoverage(t *testing.T) {
	r, stdout, _ := newTestRenderer()
	r.HotCold(&features.HotColdSummary{
		Records:  30,
		FrontHot: []features.NumberStat{{Number: 7, MissStreak: 0}, {Number: 21, MissStreak: 2}},
		BackCold: []features.NumberStat{{Number: 11, MissStreak: 14}},
	})
	r.Coverage(tickets.Coverage{SingleTickets: 2, Multiplier: 3, UniqueCombos: 2, RemainingCombos: tickets.TotalFrontCombos - 2})

	out := stdout.String()
	assert.Contains(t, out, "冷热号分析（30 期）")
	assert.Contains(t, out, "前区热号：07(遗漏0) 21(遗漏2)")
	assert.Contains(t, out, "后区冷号：11(遗漏14)")
	assert.NotContains(t, out, "前区冷号")
	assert.Contains(t, out, "剩余 324630 个")
}

// TestVerification tests prize output
func TestVerification(t *testing.T) {
	r, stdout, stderr := newTestRenderer()
	res, _ := prize.Calculate(5, 2, 4, 1)
	r.Verification(&predictor.VerificationSummary{
		Issue: "24101",
		Draw:  &database.DrawRecord{Front: []int{3, 8, 15, 22, 33}, Back: []int{4, 11}},
		Results: []predictor.VerificationResult{
			{Seq: 1, Front: []int{3, 8, 15, 22, 30}, Back: []int{4, 12}, Prize: res},
		},
		Winning: 1, TotalPrize: 300, TotalCost: 2, BestLevel: "五等奖",
	})
	r.Warnf("careful %d", 1)

	out := stdout.String()
	assert.Contains(t, out, "第24101期开奖：03 08 15 22 33 + 04 11")
	assert.Contains(t, out, "4+1 五等奖 300元")
	assert.Contains(t, out, "中奖 1/1 注，奖金 300 元，投入 2 元，最高奖级 五等奖")
	assert.Equal(t, "careful 1\n", stderr.String())
}
