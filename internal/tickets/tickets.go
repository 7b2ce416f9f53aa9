// Package tickets models the purchased-ticket corpus (single tickets, compound
// tickets and known non-winning front combinations) and derives the purchase
// statistics the generator uses to steer away from crowded numbers.
package tickets

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dlt-predictor/internal/database"
)

// TotalFrontCombos 前区全部五码组合数 C(35,5)
const TotalFrontCombos = 324632

// 最少购买号码的选取个数
const (
	LeastFrontCount = 15
	LeastBackCount  = 5
)

// ErrInvalidTicket 票据数据不合法
var ErrInvalidTicket = errors.New("invalid ticket")

// SingleTicket 单式票
type SingleTicket struct {
	Front      []int `json:"front"`
	Back       []int `json:"back"`
	Multiplier int   `json:"multiplier"`
}

// NewSingleTicket 校验并创建单式票，倍数小于 1 时按 1 计
func NewSingleTicket(front, back []int, multiplier int) (SingleTicket, error) {
	if err := checkSet(front, database.FrontSize, database.FrontSize, database.FrontMax); err != nil {
		return SingleTicket{}, fmt.Errorf("%w: front %v", ErrInvalidTicket, err)
	}
	if err := checkSet(back, database.BackSize, database.BackSize, database.BackMax); err != nil {
		return SingleTicket{}, fmt.Errorf("%w: back %v", ErrInvalidTicket, err)
	}
	if multiplier < 1 {
		multiplier = 1
	}
	return SingleTicket{Front: database.SortedCopy(front), Back: database.SortedCopy(back), Multiplier: multiplier}, nil
}

// CompoundTicket 复式票
type CompoundTicket struct {
	Front []int `json:"front"`
	Back  []int `json:"back"`
}

// NewCompoundTicket 去重、校验并创建复式票：前区 6-18 个，后区 2-12 个
func NewCompoundTicket(front, back []int) (CompoundTicket, error) {
	front, back = dedupe(front), dedupe(back)
	if err := checkSet(front, 6, 18, database.FrontMax); err != nil {
		return CompoundTicket{}, fmt.Errorf("%w: front %v", ErrInvalidTicket, err)
	}
	if err := checkSet(back, 2, 12, database.BackMax); err != nil {
		return CompoundTicket{}, fmt.Errorf("%w: back %v", ErrInvalidTicket, err)
	}
	return CompoundTicket{Front: front, Back: back}, nil
}

// Splits 拆分成单式的注数
func (t CompoundTicket) Splits() int64 {
	return Combination(len(t.Front), database.FrontSize) * Combination(len(t.Back), database.BackSize)
}

// NewCombo 校验不中组合：五个不重复的前区号码
func NewCombo(front []int) ([]int, error) {
	if err := checkSet(front, database.FrontSize, database.FrontSize, database.FrontMax); err != nil {
		return nil, fmt.Errorf("%w: combo %v", ErrInvalidTicket, err)
	}
	return database.SortedCopy(front), nil
}

// Corpus 购票数据
type Corpus struct {
	Singles    []SingleTicket   `json:"singles"`
	Compounds  []CompoundTicket `json:"compounds"`
	NonWinning [][]int          `json:"nonWinning"`
}

// HasPurchases 是否有单式或复式购票数据
func (c *Corpus) HasPurchases() bool {
	return c != nil && (len(c.Singles) > 0 || len(c.Compounds) > 0)
}

// PurchasedStats 购票统计
type PurchasedStats struct {
	// LeastFront 购买最少的前区号码
	LeastFront []int `json:"leastFront"`
	// LeastBack 购买最少的后区号码
	LeastBack []int `json:"leastBack"`
	// FrontCounts 前区号码购买次数（按倍数计）
	FrontCounts map[int]int `json:"frontCounts"`
	// BackCounts 后区号码购买次数（按倍数计）
	BackCounts map[int]int `json:"backCounts"`
	// TotalTickets 参与统计的票数
	TotalTickets int `json:"totalTickets"`
}

// Empty 是否没有任何购票数据
func (s *PurchasedStats) Empty() bool {
	return s == nil || s.TotalTickets == 0
}

// IsLeastFront 是否为购买最少的前区号码
func (s *PurchasedStats) IsLeastFront(n int) bool {
	return s != nil && contains(s.LeastFront, n)
}

// IsLeastBack 是否为购买最少的后区号码
func (s *PurchasedStats) IsLeastBack(n int) bool {
	return s != nil && contains(s.LeastBack, n)
}

// MaxBackCount 后区最大购买次数
func (s *PurchasedStats) MaxBackCount() int {
	max := 0
	if s == nil {
		return max
	}
	for _, c := range s.BackCounts {
		if c > max {
			max = c
		}
	}
	return max
}

// Analyze 统计购票数据
//
// 单式票按倍数计次，复式票每个号码计一次。未被购买过的号码次数为 0，
// 同样参与最少购买排序，次数相同时号码小的在前。
func Analyze(c *Corpus) *PurchasedStats {
	stats := &PurchasedStats{FrontCounts: make(map[int]int), BackCounts: make(map[int]int)}
	if !c.HasPurchases() {
		return stats
	}

	for _, t := range c.Singles {
		for _, n := range t.Front {
			stats.FrontCounts[n] += t.Multiplier
		}
		for _, n := range t.Back {
			stats.BackCounts[n] += t.Multiplier
		}
	}
	for _, t := range c.Compounds {
		for _, n := range t.Front {
			stats.FrontCounts[n]++
		}
		for _, n := range t.Back {
			stats.BackCounts[n]++
		}
	}

	stats.TotalTickets = len(c.Singles) + len(c.Compounds)
	stats.LeastFront = leastPurchased(stats.FrontCounts, database.FrontMax, LeastFrontCount)
	stats.LeastBack = leastPurchased(stats.BackCounts, database.BackMax, LeastBackCount)
	return stats
}

func leastPurchased(counts map[int]int, max, limit int) []int {
	nums := make([]int, 0, max)
	for n := 1; n <= max; n++ {
		nums = append(nums, n)
	}
	sort.SliceStable(nums, func(i, j int) bool {
		return counts[nums[i]] < counts[nums[j]]
	})
	return nums[:limit]
}

// ExcludedSet 需要排除的前区组合
type ExcludedSet map[string]struct{}

// ComboKey 组合键：排序后逗号连接
func ComboKey(front []int) string {
	sorted := database.SortedCopy(front)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Contains 组合是否被排除
func (s ExcludedSet) Contains(front []int) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[ComboKey(front)]
	return ok
}

// Excluded 从不中组合构建排除集合
func Excluded(c *Corpus) ExcludedSet {
	set := make(ExcludedSet)
	if c == nil {
		return set
	}
	for _, combo := range c.NonWinning {
		set[ComboKey(combo)] = struct{}{}
	}
	return set
}

// Coverage 购票覆盖统计
type Coverage struct {
	SingleTickets   int   `json:"singleTickets"`
	Multiplier      int   `json:"multiplier"`
	CompoundTickets int   `json:"compoundTickets"`
	SplitSingles    int64 `json:"splitSingles"`
	NonWinning      int   `json:"nonWinning"`
	// UniqueCombos 去重后的前区组合数
	UniqueCombos int `json:"uniqueCombos"`
	// RemainingCombos 尚未覆盖的前区组合数
	RemainingCombos int `json:"remainingCombos"`
}

// Cover 计算单式、复式拆分与不中组合共同覆盖的前区组合
func Cover(c *Corpus) Coverage {
	var cov Coverage
	if c == nil {
		cov.RemainingCombos = TotalFrontCombos
		return cov
	}

	seen := make(map[string]struct{})
	for _, t := range c.Singles {
		cov.Multiplier += t.Multiplier
		seen[ComboKey(t.Front)] = struct{}{}
	}
	for _, t := range c.Compounds {
		cov.SplitSingles += t.Splits()
		for _, combo := range Combinations(t.Front, database.FrontSize) {
			seen[ComboKey(combo)] = struct{}{}
		}
	}
	for _, combo := range c.NonWinning {
		seen[ComboKey(combo)] = struct{}{}
	}

	cov.SingleTickets = len(c.Singles)
	cov.CompoundTickets = len(c.Compounds)
	cov.NonWinning = len(c.NonWinning)
	cov.UniqueCombos = len(seen)
	cov.RemainingCombos = TotalFrontCombos - cov.UniqueCombos
	if cov.RemainingCombos < 0 {
		cov.RemainingCombos = 0
	}
	return cov
}

// Combination 组合数 C(n, r)
func Combination(n, r int) int64 {
	if r < 0 || r > n {
		return 0
	}
	if r > n-r {
		r = n - r
	}
	result := int64(1)
	for i := 0; i < r; i++ {
		result = result * int64(n-i) / int64(i+1)
	}
	return result
}

// Combinations 枚举 nums 中所有 r 个元素的组合，保持原有顺序
func Combinations(nums []int, r int) [][]int {
	var out [][]int
	if r <= 0 || r > len(nums) {
		return out
	}

	current := make([]int, 0, r)
	var walk func(start int)
	walk = func(start int) {
		if len(current) == r {
			out = append(out, append([]int(nil), current...))
			return
		}
		for i := start; i <= len(nums)-(r-len(current)); i++ {
			current = append(current, nums[i])
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)
	return out
}

func checkSet(nums []int, minSize, maxSize, max int) error {
	if len(nums) < minSize || len(nums) > maxSize {
		return fmt.Errorf("want %d-%d numbers, got %d", minSize, maxSize, len(nums))
	}
	seen := make(map[int]bool, len(nums))
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

func dedupe(nums []int) []int {
	seen := make(map[int]bool, len(nums))
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func contains(nums []int, n int) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}
	return false
}
