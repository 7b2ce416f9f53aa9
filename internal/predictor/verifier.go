package predictor

import (
	"fmt"
	"time"

	"dlt-predictor/internal/database"
	"dlt-predictor/internal/logger"
	"dlt-predictor/internal/prize"
)

// VerificationStore 验证所需的存储操作
type VerificationStore interface {
	GetPendingPredictions(targetIssue string) ([]database.PredictionRecord, error)
	UpdatePredictionVerification(id int64, frontHits, backHits int, level string, amount int64) error
}

// VerificationResult 单注验证结果
type VerificationResult struct {
	PredictionID int64         `json:"prediction_id"`
	Seq          int           `json:"seq"`
	Front        []int         `json:"front"`
	Back         []int         `json:"back"`
	Prize        *prize.Result `json:"prize"`
}

// VerificationSummary 一期的验证汇总
type VerificationSummary struct {
	Issue          string               `json:"issue"`
	Draw           *database.DrawRecord `json:"draw"`
	Results        []VerificationResult `json:"results"`
	Winning        int                  `json:"winning"`
	TotalPrize     int64                `json:"total_prize"`
	TotalCost      int64                `json:"total_cost"`
	BestLevel      string               `json:"best_level"`
	ValidationTime time.Time            `json:"validation_time"`
}

// Verifier 预测验证器：新一期开奖后对照奖级表结算该期的预测
type Verifier struct {
	store VerificationStore
}

// NewVerifier 创建验证器
func NewVerifier(store VerificationStore) *Verifier {
	return &Verifier{store: store}
}

// VerifyDraw 验证目标期号为该期的全部未验证预测
func (v *Verifier) VerifyDraw(draw *database.DrawRecord) (*VerificationSummary, error) {
	if draw == nil {
		return nil, fmt.Errorf("%w: nil draw", database.ErrInvalidDraw)
	}
	logger.Infof("Verifying predictions for issue: %s", draw.Issue)

	pending, err := v.store.GetPendingPredictions(draw.Issue)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending predictions: %w", err)
	}

	summary := &VerificationSummary{
		Issue:          draw.Issue,
		Draw:           draw,
		BestLevel:      prize.NoPrize,
		ValidationTime: time.Now(),
	}
	bestRank := len(prize.Table)

	for _, p := range pending {
		res, err := v.verifyOne(p, draw)
		if err != nil {
			logger.Warnf("Failed to verify prediction %d: %v", p.ID, err)
			continue
		}

		if err := v.store.UpdatePredictionVerification(p.ID, res.Prize.FrontHits, res.Prize.BackHits,
			res.Prize.Level, res.Prize.Amount); err != nil {
			return summary, err
		}

		summary.Results = append(summary.Results, *res)
		summary.TotalPrize += res.Prize.Amount
		summary.TotalCost += res.Prize.Cost
		if res.Prize.Won() {
			summary.Winning++
			if rank := levelRank(res.Prize.Level); rank < bestRank {
				bestRank = rank
				summary.BestLevel = res.Prize.Level
			}
		}
	}

	logger.Infof("Verification completed for %s: %d/%d winning, prize %d",
		draw.Issue, summary.Winning, len(summary.Results), summary.TotalPrize)
	return summary, nil
}

func (v *Verifier) verifyOne(p database.PredictionRecord, draw *database.DrawRecord) (*VerificationResult, error) {
	front, err := database.ParseNumbers(p.FrontNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse front numbers: %w", err)
	}
	back, err := database.ParseNumbers(p.BackNumbers)
	if err != nil {
		return nil, fmt.Errorf("failed to parse back numbers: %w", err)
	}

	res, err := prize.Evaluate(front, back, draw)
	if err != nil {
		return nil, err
	}
	return &VerificationResult{PredictionID: p.ID, Seq: p.Seq, Front: front, Back: back, Prize: res}, nil
}

func levelRank(level string) int {
	for i, tier := range prize.Table {
		if tier.Level == level {
			return i
		}
	}
	return len(prize.Table)
}
