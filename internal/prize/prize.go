// Package prize implements the Super Lotto prize table and the winning-note
// arithmetic for single and compound selections.
package prize

import (
	"errors"
	"fmt"

	"dlt-predictor/internal/database"
	"dlt-predictor/internal/tickets"
)

// PricePerNote 每注 2 元
const PricePerNote = 2

// NoPrize 未中奖
const NoPrize = "未中奖"

var (
	// ErrInvalidSelection 选号个数不合法
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrHitsExceedSelection 命中数大于选择数
	ErrHitsExceedSelection = errors.New("hits exceed selection")
)

// Tier 奖级
type Tier struct {
	Level  string `json:"level"`
	Front  int    `json:"front"`
	Back   int    `json:"back"`
	Amount int64  `json:"amount"`
}

// Table 奖级表，按奖级从高到低
var Table = []Tier{
	{Level: "一等奖", Front: 5, Back: 2, Amount: 5000000},
	{Level: "二等奖", Front: 5, Back: 1, Amount: 250000},
	{Level: "三等奖", Front: 5, Back: 0, Amount: 10000},
	{Level: "四等奖", Front: 4, Back: 2, Amount: 3000},
	{Level: "五等奖", Front: 4, Back: 1, Amount: 300},
	{Level: "六等奖", Front: 3, Back: 2, Amount: 200},
	{Level: "七等奖", Front: 4, Back: 0, Amount: 100},
	{Level: "八等奖", Front: 3, Back: 1, Amount: 15},
	{Level: "八等奖", Front: 2, Back: 2, Amount: 15},
	{Level: "九等奖", Front: 3, Back: 0, Amount: 5},
	{Level: "九等奖", Front: 2, Back: 1, Amount: 5},
	{Level: "九等奖", Front: 1, Back: 2, Amount: 5},
	{Level: "九等奖", Front: 0, Back: 2, Amount: 5},
}

// Result 中奖计算结果
type Result struct {
	FrontHits int    `json:"frontHits"`
	BackHits  int    `json:"backHits"`
	Level     string `json:"level"`
	Notes     int64  `json:"notes"`
	Amount    int64  `json:"amount"`
	Cost      int64  `json:"cost"`
	Profit    int64  `json:"profit"`
}

// Won 是否中奖
func (r *Result) Won() bool {
	return r.Notes > 0
}

// Cost 投注成本：C(前区,5)·C(后区,2)·2 元
func Cost(frontSelected, backSelected int) int64 {
	return tickets.Combination(frontSelected, database.FrontSize) *
		tickets.Combination(backSelected, database.BackSize) * PricePerNote
}

// Calculate 按选择数与命中数计算各奖级中奖注数与奖金
//
// 复式投注会同时命中多个奖级，Level 取最高的一个，Amount 为全部奖级之和。
func Calculate(frontSelected, backSelected, frontHits, backHits int) (*Result, error) {
	if frontSelected < database.FrontSize || frontSelected > database.FrontMax ||
		backSelected < database.BackSize || backSelected > database.BackMax {
		return nil, fmt.Errorf("%w: %d+%d", ErrInvalidSelection, frontSelected, backSelected)
	}
	if frontHits < 0 || backHits < 0 || frontHits > database.FrontSize || backHits > database.BackSize {
		return nil, fmt.Errorf("%w: hits %d+%d", ErrInvalidSelection, frontHits, backHits)
	}
	if frontHits > frontSelected || backHits > backSelected {
		return nil, ErrHitsExceedSelection
	}

	res := &Result{
		FrontHits: frontHits,
		BackHits:  backHits,
		Level:     NoPrize,
		Cost:      Cost(frontSelected, backSelected),
	}
	for _, tier := range Table {
		if frontHits < tier.Front || backHits < tier.Back {
			continue
		}
		notes := tickets.Combination(frontHits, tier.Front) *
			tickets.Combination(frontSelected-frontHits, database.FrontSize-tier.Front) *
			tickets.Combination(backHits, tier.Back) *
			tickets.Combination(backSelected-backHits, database.BackSize-tier.Back)
		if notes == 0 {
			continue
		}
		if res.Notes == 0 {
			res.Level = tier.Level
		}
		res.Notes += notes
		res.Amount += notes * tier.Amount
	}
	res.Profit = res.Amount - res.Cost
	return res, nil
}

// Evaluate 对照开奖号码计算一组选号的中奖情况
func Evaluate(front, back []int, draw *database.DrawRecord) (*Result, error) {
	if draw == nil {
		return nil, fmt.Errorf("%w: missing draw", ErrInvalidSelection)
	}
	return Calculate(len(front), len(back), Hits(front, draw.Front), Hits(back, draw.Back))
}

// Hits 命中个数
func Hits(selected, drawn []int) int {
	set := make(map[int]bool, len(drawn))
	for _, n := range drawn {
		set[n] = true
	}
	hits := 0
	for _, n := range selected {
		if set[n] {
			hits++
			delete(set, n)
		}
	}
	return hits
}
