package database

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDrawRecordValidate tests shape and range checks
func TestDrawRecordValidate(t *testing.T) {
	cases := []struct {
		name   string
		record DrawRecord
		ok     bool
	}{
		{"valid", DrawRecord{Issue: "24001", Front: []int{1, 5, 12, 23, 35}, Back: []int{3, 11}}, true},
		{"empty issue", DrawRecord{Front: []int{1, 5, 12, 23, 35}, Back: []int{3, 11}}, false},
		{"short front", DrawRecord{Issue: "24001", Front: []int{1, 5, 12, 23}, Back: []int{3, 11}}, false},
		{"front out of range", DrawRecord{Issue: "24001", Front: []int{1, 5, 12, 23, 36}, Back: []int{3, 11}}, false},
		{"duplicate front", DrawRecord{Issue: "24001", Front: []int{1, 5, 5, 23, 35}, Back: []int{3, 11}}, false},
		{"back out of range", DrawRecord{Issue: "24001", Front: []int{1, 5, 12, 23, 35}, Back: []int{0, 11}}, false},
		{"duplicate back", DrawRecord{Issue: "24001", Front: []int{1, 5, 12, 23, 35}, Back: []int{4, 4}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.record.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidDraw)
			}
		})
	}
}

// TestFormatAndParseNumbers tests number string helpers
func TestFormatAndParseNumbers(t *testing.T) {
	assert.Equal(t, "01 05 12", FormatNumbers([]int{1, 5, 12}))
	assert.Equal(t, "", FormatNumbers(nil))

	nums, err := ParseNumbers("01 05,12， 23\t35")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 12, 23, 35}, nums)

	_, err = ParseNumbers("01 x5")
	assert.Error(t, err)
}

// TestNextIssue tests issue increment and year rollover
func TestNextIssue(t *testing.T) {
	next, err := NextIssue("24001")
	require.NoError(t, err)
	assert.Equal(t, "24002", next)

	next, err = NextIssue("24150")
	require.NoError(t, err)
	assert.Equal(t, "24151", next)

	next, err = NextIssue("99999")
	require.NoError(t, err)
	assert.Equal(t, "00001", next)

	_, err = NextIssue("2024001")
	assert.Error(t, err)
	_, err = NextIssue("ab001")
	assert.Error(t, err)
}

// TestChronological tests stable ordering by issue
func TestChronological(t *testing.T) {
	in := []DrawRecord{{Issue: "24003"}, {Issue: "24001", ID: 1}, {Issue: "24002"}, {Issue: "24001", ID: 2}}
	out := Chronological(in)

	require.Len(t, out, 4)
	assert.Equal(t, "24001", out[0].Issue)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
	assert.Equal(t, "24003", out[3].Issue)
	assert.Equal(t, "24003", in[0].Issue, "input must not be reordered")
}

// TestGenerateMockDraws tests that generated draws are valid and dated every 3 days
func TestGenerateMockDraws(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	draws := GenerateMockDraws(210, start, rand.New(rand.NewSource(7)))

	require.Len(t, draws, 210)
	for _, d := range draws {
		require.NoError(t, d.Validate())
	}
	assert.Equal(t, "20001", draws[0].Issue)
	assert.Equal(t, "20104", draws[103].Issue)
	assert.Equal(t, "21001", draws[104].Issue)
	assert.Equal(t, start.AddDate(0, 0, 30), draws[10].DrawDate)
}

// TestDrawsCSVRoundTrip tests the CSV reader against the writer output
func TestDrawsCSVRoundTrip(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.Local)
	draws := GenerateMockDraws(5, start, rand.New(rand.NewSource(1)))

	var buf bytes.Buffer
	require.NoError(t, WriteDrawsCSV(&buf, draws))

	got, err := ReadDrawsCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := range draws {
		assert.Equal(t, draws[i].Issue, got[i].Issue)
		assert.Equal(t, draws[i].Front, got[i].Front)
		assert.Equal(t, draws[i].Back, got[i].Back)
		assert.True(t, draws[i].DrawDate.Equal(got[i].DrawDate))
	}
}

// TestReadDrawsCSVSkipsBadRows tests that invalid rows are dropped
func TestReadDrawsCSVSkipsBadRows(t *testing.T) {
	in := strings.Join([]string{
		"issue,date,f1,f2,f3,f4,f5,b1,b2",
		"24002,2024-01-03,3,9,17,22,30,2,7",
		"24001,2024/01/01,1,5,12,23,35,3,11",
		"24003,2024-01-06,1,5,12,23,36,3,11",
		"24004,2024-01-08,1,5,12,,35,3,11",
		"24005,not-a-date,1,5,12,23,35,3,11",
	}, "\n")

	got, err := ReadDrawsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "24001", got[0].Issue)
	assert.Equal(t, []int{3, 9, 17, 22, 30}, got[1].Front)
}
