package telegram

import (
	"fmt"
	"strings"

	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/predictor"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const welcomeText = `🎱 Welcome to DLT Prediction Bot!

🤖 I analyze Super Lotto draw history and provide:
• 📊 Latest draw results
• 🔮 Single and compound number predictions
• 🔥 Hot and cold number analysis
• 📈 Prize statistics of past predictions

📝 Available commands:
/latest - Latest draw and predictions
/predict - Generate predictions
/history - Recent draws
/hotcold - Hot and cold numbers
/stats - Prediction statistics
/help - Help information

🔔 You are subscribed to new prediction pushes, send /stop to unsubscribe.`

const helpText = `📖 Command Help:

/start - Subscribe to prediction pushes
/stop - Unsubscribe
/latest - Latest draw and the newest prediction batch
/predict [count] [single|compound] [front] [back] - Generate predictions
/history [n] - View recent n draws (default 10, max 30)
/hotcold - Hot, cold and overdue numbers
/stats - Prize statistics of verified predictions
/help - Show this help information

💡 Examples:
• /predict 5
• /predict 3 compound 8 3

⚠️ Predictions are for reference only, please play rationally.`

func formatDraw(d *database.DrawRecord) string {
	return fmt.Sprintf("`%s + %s`", database.FormatNumbers(d.Front), database.FormatNumbers(d.Back))
}

// formatLatestMessage 最新开奖与最新一批预测
func formatLatestMessage(draw *database.DrawRecord, batch []database.PredictionRecord) string {
	var builder strings.Builder

	builder.WriteString("📊 *Latest Draw*\n")
	builder.WriteString(fmt.Sprintf("Issue: `%s`\n", draw.Issue))
	builder.WriteString(fmt.Sprintf("Numbers: %s\n", formatDraw(draw)))
	if !draw.DrawDate.IsZero() {
		builder.WriteString(fmt.Sprintf("Date: `%s`\n", draw.DrawDate.Format("2006-01-02")))
	}
	builder.WriteString("\n")

	if len(batch) == 0 {
		builder.WriteString("🔮 *No Prediction Data*\n")
		return builder.String()
	}

	builder.WriteString(fmt.Sprintf("🔮 *Predictions for %s*\n", batch[0].TargetIssue))
	for _, p := range batch {
		builder.WriteString(fmt.Sprintf("%d. `%s + %s`", p.Seq, p.FrontNumbers, p.BackNumbers))
		if p.PrizeLevel != nil {
			builder.WriteString(" " + *p.PrizeLevel)
		} else {
			builder.WriteString(" ⏳")
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// formatHistoryMessage 最近开奖记录
func formatHistoryMessage(draws []database.DrawRecord) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📊 *Recent %d Draws*\n\n", len(draws)))

	if len(draws) == 0 {
		builder.WriteString("No draw records")
		return builder.String()
	}

	for i := len(draws) - 1; i >= 0; i-- {
		d := draws[i]
		odd := features.CountOdd(d.Front)
		small := features.CountSmall(d.Front, features.Front)
		builder.WriteString(fmt.Sprintf("`%s` %s  odd/even %d:%d small/large %d:%d\n",
			d.Issue, formatDraw(&d), odd, len(d.Front)-odd, small, len(d.Front)-small))
	}
	return builder.String()
}

// formatPredictionMessage 一批预测
func formatPredictionMessage(target string, mode predictor.Mode, results []predictor.PredictionResult, report *predictor.Report) string {
	var builder strings.Builder

	title := "🔮 *Predictions*"
	if target != "" {
		title = fmt.Sprintf("🔮 *Predictions for %s*", target)
	}
	builder.WriteString(fmt.Sprintf("%s (%s)\n\n", title, mode))

	for _, p := range results {
		builder.WriteString(fmt.Sprintf("%d. `%s + %s`", p.ID, database.FormatNumbers(p.Front), database.FormatNumbers(p.Back)))
		if p.Optimized {
			builder.WriteString(" ✨")
		}
		builder.WriteString("\n")
	}

	if report != nil {
		builder.WriteString(fmt.Sprintf("\n📈 Stability score: `%d/100`", report.StabilityScore))
		if report.Optimized {
			builder.WriteString(" (optimized)")
		}
		builder.WriteString("\n")
		for _, rec := range report.Recommendations {
			builder.WriteString("• " + rec + "\n")
		}
	}

	builder.WriteString("\n⚠️ For reference only, please play rationally")
	return builder.String()
}

// formatHotColdMessage 冷热号摘要
func formatHotColdMessage(s *features.HotColdSummary) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔥 *Hot & Cold Numbers* (%d draws)\n\n", s.Records))

	write := func(label string, stats []features.NumberStat) {
		if len(stats) == 0 {
			return
		}
		nums := make([]string, len(stats))
		for i, st := range stats {
			nums[i] = fmt.Sprintf("%02d", st.Number)
		}
		builder.WriteString(fmt.Sprintf("%s: `%s`\n", label, strings.Join(nums, " ")))
	}
	write("Front hot", s.FrontHot)
	write("Front cold", s.FrontCold)
	write("Back hot", s.BackHot)
	write("Back cold", s.BackCold)
	write("Most overdue", s.MostOverdue)
	return builder.String()
}

// formatStatsMessage 预测统计
func formatStatsMessage(stats *database.PredictionStats) string {
	var builder strings.Builder

	builder.WriteString("📊 *Prediction Statistics*\n\n")
	builder.WriteString(fmt.Sprintf("Total Predictions: `%d`\n", stats.TotalPredictions))
	builder.WriteString(fmt.Sprintf("Verified: `%d`\n", stats.VerifiedPredictions))
	builder.WriteString(fmt.Sprintf("Winning: `%d`\n", stats.WinningPredictions))
	builder.WriteString(fmt.Sprintf("Win Rate: `%.2f%%`\n", stats.WinRate))
	builder.WriteString(fmt.Sprintf("Total Prize: `%d`\n\n", stats.TotalPrize))
	builder.WriteString("💡 *Note*: Statistics are based on verified predictions")
	return builder.String()
}

// formatBroadcastMessage 新一期预测推送
func formatBroadcastMessage(latest *database.DrawRecord, target string, mode predictor.Mode,
	results []predictor.PredictionResult, report *predictor.Report) string {
	var builder strings.Builder

	builder.WriteString("🚨 *New Draw Prediction Push*\n\n")
	if latest != nil {
		builder.WriteString(fmt.Sprintf("📊 Issue `%s`: %s\n\n", latest.Issue, formatDraw(latest)))
	}
	builder.WriteString(formatPredictionMessage(target, mode, results, report))
	return builder.String()
}

// formatVerificationMessage 验证结果推送
func formatVerificationMessage(s *predictor.VerificationSummary) string {
	var builder strings.Builder

	builder.WriteString("✅ *Prediction Verification Result*\n\n")
	builder.WriteString(fmt.Sprintf("Issue: `%s`\n", s.Issue))
	if s.Draw != nil {
		builder.WriteString(fmt.Sprintf("Numbers: %s\n\n", formatDraw(s.Draw)))
	}
	for _, r := range s.Results {
		builder.WriteString(fmt.Sprintf("%d. `%s + %s` %d+%d %s\n", r.Seq,
			database.FormatNumbers(r.Front), database.FormatNumbers(r.Back),
			r.Prize.FrontHits, r.Prize.BackHits, r.Prize.Level))
	}
	if s.Winning > 0 {
		builder.WriteString(fmt.Sprintf("\n🎉 %d winning, prize `%d`, best %s", s.Winning, s.TotalPrize, s.BestLevel))
	} else {
		builder.WriteString("\n😅 No winning predictions this time")
	}
	return builder.String()
}

// inlineKeyboard 预测消息下方的快捷按钮
func inlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Latest", "refresh_latest"),
			tgbotapi.NewInlineKeyboardButtonData("🔮 Again", "predict_again"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔥 Hot/Cold", "view_hotcold"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Stats", "view_stats"),
		),
	)
}
