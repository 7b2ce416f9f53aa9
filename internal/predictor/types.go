package predictor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mode 预测模式
type Mode string

const (
	// ModeSingle 单式：5+2，严格校验
	ModeSingle Mode = "single"
	// ModeCompound 复式：前区 6-35 个，后区 2-12 个
	ModeCompound Mode = "compound"
)

// 预测配置错误
var (
	ErrInvalidPredictionCount = errors.New("invalid prediction count")
	ErrInvalidBallCount       = errors.New("invalid ball count")
	ErrUnknownMode            = errors.New("unknown prediction mode")
)

// ParseMode 解析预测模式，兼容 multiple 写法
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return ModeSingle, nil
	case "compound", "multiple":
		return ModeCompound, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, s)
	}
}

// PredictionResult 一注预测结果
type PredictionResult struct {
	ID        int    `json:"id"`
	Front     []int  `json:"frontNumbers"`
	Back      []int  `json:"backNumbers"`
	Analysis  string `json:"analysis"`
	Optimized bool   `json:"optimized"`
}

// CandidateScore 候选号码评分
type CandidateScore struct {
	Number    int
	Score     float64
	Stability float64
}

// Selection 一次生成的前后区号码
type Selection struct {
	Front []int
	Back  []int
	// FrontSatisfied 前区是否在尝试次数内满足全部约束
	FrontSatisfied bool
	// BackSatisfied 后区是否在尝试次数内满足全部约束
	BackSatisfied bool
}

// GenerateRequest 单注生成请求
type GenerateRequest struct {
	Mode       Mode
	FrontCount int
	BackCount  int
	// Index 本批次中的序号，决定轮换策略
	Index    int
	Analysis *Analysis
}

func numbersOf(cands []CandidateScore) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.Number
	}
	return out
}

// sortByScore 分数降序，分数相同保持号码顺序
func sortByScore(cands []CandidateScore) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}

// sortPrecision 分数差小于 tie 时比较稳定性，稳定性相同再比分数，最后按号码
func sortPrecision(cands []CandidateScore, tie float64) {
	sort.SliceStable(cands, func(i, j int) bool {
		diff := cands[i].Score - cands[j].Score
		if diff < tie && diff > -tie && cands[i].Stability != cands[j].Stability {
			return cands[i].Stability > cands[j].Stability
		}
		if diff != 0 {
			return diff > 0
		}
		return cands[i].Number < cands[j].Number
	})
}

// slice 按 [start,end) 截取，越界时收缩，区间为空返回 nil
func slice(nums []int, start, end int) []int {
	if start < 0 {
		start = 0
	}
	if end > len(nums) {
		end = len(nums)
	}
	if start >= end {
		return nil
	}
	return append([]int(nil), nums[start:end]...)
}

// appendUnique 追加未出现过的号码，最多保留 limit 个
func appendUnique(dst []int, limit int, src ...int) []int {
	for _, n := range src {
		if len(dst) >= limit {
			break
		}
		if !containsInt(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// padBest 用剩余候选中分数最高的号码补齐
func padBest(selected []int, ranked []CandidateScore, count int) []int {
	for _, c := range ranked {
		if len(selected) >= count {
			break
		}
		if !containsInt(selected, c.Number) {
			selected = append(selected, c.Number)
		}
	}
	return selected
}

func without(cands []CandidateScore, selected []int) []CandidateScore {
	out := make([]CandidateScore, 0, len(cands))
	for _, c := range cands {
		if !containsInt(selected, c.Number) {
			out = append(out, c)
		}
	}
	return out
}

func containsInt(nums []int, n int) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}
	return false
}

func isAllSame(nums []int, pred func(int) bool) bool {
	c := 0
	for _, n := range nums {
		if pred(n) {
			c++
		}
	}
	return c == 0 || c == len(nums)
}
