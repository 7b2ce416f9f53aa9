package database

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// FrontMax 前区号码上限
	FrontMax = 35
	// BackMax 后区号码上限
	BackMax = 12
	// FrontSize 每期前区号码个数
	FrontSize = 5
	// BackSize 每期后区号码个数
	BackSize = 2
)

// ErrInvalidDraw 开奖记录不合法
var ErrInvalidDraw = errors.New("invalid draw record")

// DrawRecord 开奖数据模型
type DrawRecord struct {
	ID        int64     `json:"id,omitempty" db:"id"`
	Issue     string    `json:"issue" db:"issue"`
	DrawDate  time.Time `json:"date" db:"draw_date"`
	Front     []int     `json:"frontNumbers" db:"front_numbers"`
	Back      []int     `json:"backNumbers" db:"back_numbers"`
	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Validate 校验号码个数、范围与唯一性
func (r *DrawRecord) Validate() error {
	if strings.TrimSpace(r.Issue) == "" {
		return fmt.Errorf("%w: empty issue", ErrInvalidDraw)
	}
	if err := checkNumbers(r.Front, FrontSize, FrontMax); err != nil {
		return fmt.Errorf("%w: issue %s front: %v", ErrInvalidDraw, r.Issue, err)
	}
	if err := checkNumbers(r.Back, BackSize, BackMax); err != nil {
		return fmt.Errorf("%w: issue %s back: %v", ErrInvalidDraw, r.Issue, err)
	}
	return nil
}

func checkNumbers(nums []int, size, max int) error {
	if len(nums) != size {
		return fmt.Errorf("want %d numbers, got %d", size, len(nums))
	}
	seen := make(map[int]bool, size)
	for _, n := range nums {
		if n < 1 || n > max {
			return fmt.Errorf("number %d out of range 1-%d", n, max)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = true
	}
	return nil
}

// PredictionRecord 预测记录模型
type PredictionRecord struct {
	ID             int64      `json:"id" db:"id"`
	BatchID        string     `json:"batch_id" db:"batch_id"`
	TargetIssue    string     `json:"target_issue" db:"target_issue"`
	Mode           string     `json:"mode" db:"mode"`
	Seq            int        `json:"seq" db:"seq"`
	FrontNumbers   string     `json:"front_numbers" db:"front_numbers"`
	BackNumbers    string     `json:"back_numbers" db:"back_numbers"`
	Analysis       string     `json:"analysis" db:"analysis"`
	Optimized      bool       `json:"optimized" db:"optimized"`
	StabilityScore int        `json:"stability_score" db:"stability_score"`
	FrontHits      *int       `json:"front_hits" db:"front_hits"`
	BackHits       *int       `json:"back_hits" db:"back_hits"`
	PrizeLevel     *string    `json:"prize_level" db:"prize_level"`
	PrizeAmount    *int64     `json:"prize_amount" db:"prize_amount"`
	PredictedAt    time.Time  `json:"predicted_at" db:"predicted_at"`
	VerifiedAt     *time.Time `json:"verified_at" db:"verified_at"`
}

// PredictionStats 预测统计模型
type PredictionStats struct {
	TotalPredictions    int     `json:"total_predictions" db:"total_predictions"`
	VerifiedPredictions int     `json:"verified_predictions" db:"verified_predictions"`
	WinningPredictions  int     `json:"winning_predictions" db:"winning_predictions"`
	TotalPrize          int64   `json:"total_prize" db:"total_prize"`
	WinRate             float64 `json:"win_rate" db:"win_rate"`
}

// APIResponse 开奖数据接口响应
type APIResponse struct {
	Data    []APIDrawData `json:"data"`
	Message string        `json:"message"`
}

// APIDrawData 接口返回的单期开奖数据
type APIDrawData struct {
	Issue string `json:"issue"`
	Date  string `json:"date"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FormatNumbers 格式化号码为两位数空格分隔
func FormatNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}

// ParseNumbers 解析号码字符串，支持空格、逗号分隔
func ParseNumbers(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '，' || r == '\t'
	})

	nums := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse number %q: %w", f, err)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// SortedCopy 返回升序副本
func SortedCopy(nums []int) []int {
	out := append([]int(nil), nums...)
	sort.Ints(out)
	return out
}

// NextIssue 计算下一期期号，格式为 yyNNN
func NextIssue(issue string) (string, error) {
	if len(issue) != 5 {
		return "", fmt.Errorf("invalid issue format: %s", issue)
	}

	year, err := strconv.Atoi(issue[:2])
	if err != nil {
		return "", fmt.Errorf("invalid issue year: %s", issue)
	}
	seq, err := strconv.Atoi(issue[2:])
	if err != nil {
		return "", fmt.Errorf("invalid issue sequence: %s", issue)
	}

	if seq >= 999 {
		return fmt.Sprintf("%02d001", (year+1)%100), nil
	}
	return fmt.Sprintf("%02d%03d", year, seq+1), nil
}

// Chronological 按期号升序排序，期号相同保持原顺序
func Chronological(records []DrawRecord) []DrawRecord {
	out := append([]DrawRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Issue < out[j].Issue
	})
	return out
}
