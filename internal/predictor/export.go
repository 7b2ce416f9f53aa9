package predictor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"

	"github.com/google/uuid"
)

// Export 预测结果导出格式
type Export struct {
	BatchID           string             `json:"batchId"`
	TargetPeriod      string             `json:"targetPeriod"`
	PredictionMode    Mode               `json:"predictionMode"`
	PredictionCount   int                `json:"predictionCount"`
	FrontBallCount    int                `json:"frontBallCount"`
	BackBallCount     int                `json:"backBallCount"`
	AnalysisToggles   config.Toggles     `json:"analysisToggles"`
	PredictionResults []PredictionResult `json:"predictionResults"`
	// StabilityScore 不足三注未做验证时为 null
	StabilityScore *int   `json:"stabilityScore"`
	Timestamp      string `json:"timestamp"`
}

// NewExport 组装一批预测结果，批次号为新的 UUID
func NewExport(cfg RunConfig, results []PredictionResult, report *Report, now time.Time) *Export {
	ex := &Export{
		BatchID:           uuid.NewString(),
		TargetPeriod:      cfg.TargetIssue,
		PredictionMode:    cfg.Mode,
		PredictionCount:   len(results),
		FrontBallCount:    cfg.FrontCount,
		BackBallCount:     cfg.BackCount,
		AnalysisToggles:   cfg.Toggles,
		PredictionResults: results,
		Timestamp:         now.Format(time.RFC3339),
	}
	if report != nil {
		score := report.StabilityScore
		ex.StabilityScore = &score
	}
	return ex
}

// WriteJSON 以两空格缩进写出
func (ex *Export) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ex); err != nil {
		return fmt.Errorf("failed to encode prediction export: %w", err)
	}
	return nil
}

// FileName 默认导出文件名
func (ex *Export) FileName() string {
	date := ex.Timestamp
	if len(date) >= 10 {
		date = date[:10]
	}
	return fmt.Sprintf("智能预测结果_%s_%s.json", ex.TargetPeriod, date)
}

// SaveFile 写入目录 dir，返回文件路径
func (ex *Export) SaveFile(dir string) (string, error) {
	path := filepath.Join(dir, ex.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := ex.writeAndClose(f); err != nil {
		return "", err
	}
	return path, nil
}

// writeAndClose 写出后关闭 w，写出成功时返回关闭的错误
func (ex *Export) writeAndClose(w io.WriteCloser) error {
	if err := ex.WriteJSON(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

// Records 转换为数据库预测记录
func (ex *Export) Records(predictedAt time.Time) []database.PredictionRecord {
	score := 0
	if ex.StabilityScore != nil {
		score = *ex.StabilityScore
	}
	records := make([]database.PredictionRecord, 0, len(ex.PredictionResults))
	for _, p := range ex.PredictionResults {
		records = append(records, database.PredictionRecord{
			BatchID:        ex.BatchID,
			TargetIssue:    ex.TargetPeriod,
			Mode:           string(ex.PredictionMode),
			Seq:            p.ID,
			FrontNumbers:   database.FormatNumbers(p.Front),
			BackNumbers:    database.FormatNumbers(p.Back),
			Analysis:       p.Analysis,
			Optimized:      p.Optimized,
			StabilityScore: score,
			PredictedAt:    predictedAt,
		})
	}
	return records
}
