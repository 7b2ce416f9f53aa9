// Package output renders predictions, validation reports and verification results
// for the command line with colored text.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/predictor"
	"dlt-predictor/internal/tickets"

	"github.com/fatih/color"
)

// Renderer 终端输出
type Renderer struct {
	successColor *color.Color
	infoColor    *color.Color
	warnColor    *color.Color
	errorColor   *color.Color
	frontColor   *color.Color
	backColor    *color.Color
	headerColor  *color.Color

	stdout io.Writer
	stderr io.Writer
	mu     sync.Mutex
}

// NewRenderer 创建输出，noColor 为 true 时不输出颜色控制符
func NewRenderer(stdout, stderr io.Writer, noColor bool) *Renderer {
	r := &Renderer{
		successColor: color.New(color.FgGreen, color.Bold),
		infoColor:    color.New(color.FgCyan),
		warnColor:    color.New(color.FgYellow),
		errorColor:   color.New(color.FgRed, color.Bold),
		frontColor:   color.New(color.FgRed, color.Bold),
		backColor:    color.New(color.FgBlue, color.Bold),
		headerColor:  color.New(color.FgMagenta, color.Bold),
		stdout:       stdout,
		stderr:       stderr,
	}
	if noColor {
		for _, c := range []*color.Color{r.successColor, r.infoColor, r.warnColor, r.errorColor,
			r.frontColor, r.backColor, r.headerColor} {
			c.DisableColor()
		}
	}
	return r
}

// Successf prints a formatted success message
func (r *Renderer) Successf(format string, args ...interface{}) {
	r.line(r.stdout, r.successColor, fmt.Sprintf(format, args...))
}

// Infof prints a formatted info message
func (r *Renderer) Infof(format string, args ...interface{}) {
	r.line(r.stdout, r.infoColor, fmt.Sprintf(format, args...))
}

// Warnf prints a formatted warning message
func (r *Renderer) Warnf(format string, args ...interface{}) {
	r.line(r.stderr, r.warnColor, fmt.Sprintf(format, args...))
}

// Errorf prints a formatted error message
func (r *Renderer) Errorf(format string, args ...interface{}) {
	r.line(r.stderr, r.errorColor, fmt.Sprintf(format, args...))
}

func (r *Renderer) line(w io.Writer, c *color.Color, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = c.Fprintln(w, msg)
}

// Predictions 输出一批预测
func (r *Renderer) Predictions(target string, mode predictor.Mode, results []predictor.PredictionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	title := "大乐透智能预测"
	if target != "" {
		title += " 第" + target + "期"
	}
	_, _ = r.headerColor.Fprintf(r.stdout, "%s（%s，%d 注）\n", title, modeName(mode), len(results))

	for _, p := range results {
		_, _ = fmt.Fprintf(r.stdout, "%3d. ", p.ID)
		_, _ = r.frontColor.Fprint(r.stdout, database.FormatNumbers(p.Front))
		_, _ = fmt.Fprint(r.stdout, " + ")
		_, _ = r.backColor.Fprint(r.stdout, database.FormatNumbers(p.Back))
		if p.Optimized {
			_, _ = r.successColor.Fprint(r.stdout, predictor.OptimizedTag)
		}
		_, _ = fmt.Fprintln(r.stdout)
	}
	if len(results) > 0 {
		analysis := results[0].Analysis
		if i := strings.Index(analysis, "\n\n"); i >= 0 {
			analysis = analysis[:i]
		}
		_, _ = r.infoColor.Fprintln(r.stdout, "分析："+analysis)
	}
}

// Report 输出多期验证报告
func (r *Renderer) Report(rep *predictor.Report) {
	if rep == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	scoreColor := r.successColor
	if rep.StabilityScore < predictor.OptimizeThreshold {
		scoreColor = r.warnColor
	}
	_, _ = r.headerColor.Fprintln(r.stdout, "【多期验证报告】")
	_, _ = fmt.Fprintln(r.stdout, rep.Analysis)
	_, _ = scoreColor.Fprintf(r.stdout, "稳定性评分：%d/100", rep.StabilityScore)
	if rep.Optimized {
		_, _ = fmt.Fprint(r.stdout, "（已优化）")
	}
	_, _ = fmt.Fprintln(r.stdout)
	for _, rec := range rep.Recommendations {
		_, _ = r.warnColor.Fprintln(r.stdout, "  - "+rec)
	}
}

// HotCold 输出冷热号摘要
func (r *Renderer) HotCold(s *features.HotColdSummary) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.headerColor.Fprintf(r.stdout, "冷热号分析（%d 期）\n", s.Records)
	rows := []struct {
		label string
		c     *color.Color
		stats []features.NumberStat
	}{
		{"前区热号", r.frontColor, s.FrontHot},
		{"前区冷号", r.infoColor, s.FrontCold},
		{"后区热号", r.backColor, s.BackHot},
		{"后区冷号", r.infoColor, s.BackCold},
		{"遗漏最久", r.warnColor, s.MostOverdue},
	}
	for _, row := range rows {
		if len(row.stats) == 0 {
			continue
		}
		parts := make([]string, len(row.stats))
		for i, st := range row.stats {
			parts[i] = fmt.Sprintf("%02d(遗漏%d)", st.Number, st.MissStreak)
		}
		_, _ = fmt.Fprintf(r.stdout, "%s：", row.label)
		_, _ = row.c.Fprintln(r.stdout, strings.Join(parts, " "))
	}
}

// Coverage 输出购票覆盖统计
func (r *Renderer) Coverage(c tickets.Coverage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.headerColor.Fprintln(r.stdout, "购票数据")
	_, _ = fmt.Fprintf(r.stdout, "单式 %d 张（合计 %d 倍），复式 %d 张（拆分 %d 注），不中组合 %d 个\n",
		c.SingleTickets, c.Multiplier, c.CompoundTickets, c.SplitSingles, c.NonWinning)
	_, _ = fmt.Fprintf(r.stdout, "已覆盖前区组合 %d 个，剩余 %d 个\n", c.UniqueCombos, c.RemainingCombos)
}

// Verification 输出一期的验证结果
func (r *Renderer) Verification(s *predictor.VerificationSummary) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.headerColor.Fprintf(r.stdout, "第%s期开奖：", s.Issue)
	if s.Draw != nil {
		_, _ = r.frontColor.Fprint(r.stdout, database.FormatNumbers(s.Draw.Front))
		_, _ = fmt.Fprint(r.stdout, " + ")
		_, _ = r.backColor.Fprint(r.stdout, database.FormatNumbers(s.Draw.Back))
	}
	_, _ = fmt.Fprintln(r.stdout)

	for _, res := range s.Results {
		c := r.infoColor
		if res.Prize.Won() {
			c = r.successColor
		}
		_, _ = fmt.Fprintf(r.stdout, "%3d. %s + %s  ", res.Seq,
			database.FormatNumbers(res.Front), database.FormatNumbers(res.Back))
		_, _ = c.Fprintf(r.stdout, "%d+%d %s %d元\n", res.Prize.FrontHits, res.Prize.BackHits, res.Prize.Level, res.Prize.Amount)
	}
	_, _ = fmt.Fprintf(r.stdout, "中奖 %d/%d 注，奖金 %d 元，投入 %d 元，最高奖级 %s\n",
		s.Winning, len(s.Results), s.TotalPrize, s.TotalCost, s.BestLevel)
}

func modeName(m predictor.Mode) string {
	if m == predictor.ModeCompound {
		return "复式"
	}
	return "单式"
}
