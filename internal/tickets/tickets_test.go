package tickets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewSingleTicket tests single ticket validation
func TestNewSingleTicket(t *testing.T) {
	ticket, err := NewSingleTicket([]int{23, 1, 5, 12, 35}, []int{11, 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 12, 23, 35}, ticket.Front)
	assert.Equal(t, []int{3, 11}, ticket.Back)
	assert.Equal(t, 1, ticket.Multiplier)

	_, err = NewSingleTicket([]int{1, 5, 12, 23, 36}, []int{3, 11}, 1)
	assert.ErrorIs(t, err, ErrInvalidTicket)
	_, err = NewSingleTicket([]int{1, 5, 12, 23, 35}, []int{3, 3}, 1)
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

// TestNewCompoundTicket tests dedupe and size limits
func TestNewCompoundTicket(t *testing.T) {
	ticket, err := NewCompoundTicket([]int{7, 1, 2, 3, 4, 5, 7}, []int{2, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 7}, ticket.Front)
	assert.Equal(t, []int{1, 2}, ticket.Back)
	assert.Equal(t, int64(6), ticket.Splits())

	_, err = NewCompoundTicket([]int{1, 2, 3, 4, 5}, []int{1, 2})
	assert.ErrorIs(t, err, ErrInvalidTicket)
	_, err = NewCompoundTicket([]int{1, 2, 3, 4, 5, 6}, []int{1})
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

// TestCombination tests binomial coefficients
func TestCombination(t *testing.T) {
	assert.Equal(t, int64(TotalFrontCombos), Combination(35, 5))
	assert.Equal(t, int64(66), Combination(12, 2))
	assert.Equal(t, int64(1), Combination(5, 5))
	assert.Equal(t, int64(0), Combination(4, 5))
	assert.Len(t, Combinations([]int{1, 2, 3, 4, 5, 6}, 5), 6)
	assert.Equal(t, [][]int{{1, 2}, {1, 3}, {2, 3}}, Combinations([]int{1, 2, 3}, 2))
	assert.Empty(t, Combinations([]int{1, 2}, 3))
}

// TestAnalyze tests multiplier weighting and least-purchased ordering
func TestAnalyze(t *testing.T) {
	s1, _ := NewSingleTicket([]int{1, 2, 3, 4, 5}, []int{1, 2}, 3)
	s2, _ := NewSingleTicket([]int{1, 6, 7, 8, 9}, []int{1, 3}, 1)
	c1, _ := NewCompoundTicket([]int{10, 11, 12, 13, 14, 15}, []int{4, 5})
	corpus := &Corpus{Singles: []SingleTicket{s1, s2}, Compounds: []CompoundTicket{c1}}

	stats := Analyze(corpus)
	assert.Equal(t, 3, stats.TotalTickets)
	assert.Equal(t, 4, stats.FrontCounts[1])
	assert.Equal(t, 3, stats.FrontCounts[2])
	assert.Equal(t, 4, stats.BackCounts[1])
	assert.Equal(t, 4, stats.MaxBackCount())

	require.Len(t, stats.LeastFront, LeastFrontCount)
	assert.Equal(t, 16, stats.LeastFront[0])
	assert.False(t, stats.IsLeastFront(1))
	assert.True(t, stats.IsLeastFront(16))

	assert.Equal(t, []int{6, 7, 8, 9, 10}, stats.LeastBack)
	assert.True(t, stats.IsLeastBack(6))
	assert.False(t, stats.IsLeastBack(1))
}

// TestAnalyzeEmpty tests graceful degradation without tickets
func TestAnalyzeEmpty(t *testing.T) {
	stats := Analyze(nil)
	assert.True(t, stats.Empty())
	assert.Empty(t, stats.LeastFront)
	assert.False(t, stats.IsLeastFront(1))

	var none *PurchasedStats
	assert.True(t, none.Empty())
	assert.False(t, none.IsLeastBack(1))
	assert.Zero(t, none.MaxBackCount())
}

// TestExcluded tests the non-winning combination set
func TestExcluded(t *testing.T) {
	set := Excluded(&Corpus{NonWinning: [][]int{{1, 2, 3, 4, 5}, {10, 20, 30, 31, 35}}})

	assert.Len(t, set, 2)
	assert.True(t, set.Contains([]int{5, 4, 3, 2, 1}))
	assert.False(t, set.Contains([]int{1, 2, 3, 4, 6}))
	assert.Equal(t, "1,2,3,4,5", ComboKey([]int{5, 4, 3, 2, 1}))
	assert.False(t, Excluded(nil).Contains([]int{1, 2, 3, 4, 5}))
}

// TestCover tests unique combination coverage across ticket kinds
func TestCover(t *testing.T) {
	s1, _ := NewSingleTicket([]int{1, 2, 3, 4, 5}, []int{1, 2}, 2)
	c1, _ := NewCompoundTicket([]int{1, 2, 3, 4, 5, 6}, []int{1, 2, 3})
	corpus := &Corpus{
		Singles:    []SingleTicket{s1},
		Compounds:  []CompoundTicket{c1},
		NonWinning: [][]int{{1, 2, 3, 4, 6}, {20, 21, 22, 23, 24}},
	}

	cov := Cover(corpus)
	assert.Equal(t, 2, cov.Multiplier)
	assert.Equal(t, int64(18), cov.SplitSingles)
	assert.Equal(t, 7, cov.UniqueCombos)
	assert.Equal(t, TotalFrontCombos-7, cov.RemainingCombos)
	assert.Equal(t, TotalFrontCombos, Cover(nil).RemainingCombos)
}

// TestReadSingleCSV tests header skipping and row validation
func TestReadSingleCSV(t *testing.T) {
	in := strings.Join([]string{
		"前区,,,,,后区,,倍数",
		"1,5,12,23,35,3,11,2",
		"1,5,12,23,36,3,11,1",
		"2,6,13,24,34,4,10,",
		"short,row",
	}, "\n")

	got, err := ReadSingleCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Multiplier)
	assert.Equal(t, 1, got[1].Multiplier)
}

// TestReadCompoundCSV tests column layout and blank cells
func TestReadCompoundCSV(t *testing.T) {
	header := strings.Repeat(",", 25)
	row := "1,2,3,4,5,6,7,,,,,,,,,,,,1,2,3,,,,,"
	bad := "1,2,3,4,5,,,,,,,,,,,,,,1,2,,,,,,"

	got, err := ReadCompoundCSV(strings.NewReader(header + "\n" + row + "\n" + bad))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, got[0].Front)
	assert.Equal(t, []int{1, 2, 3}, got[0].Back)
}

// TestReadNonWinningCSV tests combo rows without header
func TestReadNonWinningCSV(t *testing.T) {
	in := "5,4,3,2,1\n1,1,2,3,4\n10,20,30,31,35\n"

	got, err := ReadNonWinningCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}, {10, 20, 30, 31, 35}}, got)
}

// TestLoadCorpus tests file loading and missing files
func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.csv")
	require.NoError(t, os.WriteFile(single, []byte("h\n1,5,12,23,35,3,11,1\n"), 0o644))

	c, err := LoadCorpus(single, "", "")
	require.NoError(t, err)
	assert.Len(t, c.Singles, 1)
	assert.True(t, c.HasPurchases())

	_, err = LoadCorpus(filepath.Join(dir, "missing.csv"), "", "")
	assert.Error(t, err)
}
