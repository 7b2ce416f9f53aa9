package database

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dlt-predictor/internal/logger"
)

// drawDateLayouts 支持的开奖日期格式
var drawDateLayouts = []string{"2006-01-02", "2006/01/02", "2006/1/2", "20060102"}

// LoadDrawsCSV 从CSV文件读取开奖数据
func LoadDrawsCSV(path string) ([]DrawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open draw file: %w", err)
	}
	defer f.Close()

	return ReadDrawsCSV(f)
}

// ReadDrawsCSV 读取开奖CSV: 期号,日期,前区1..5,后区1..2
//
// 表头行与不合法的行会被跳过并记录警告，返回按期号正序排列的记录。
func ReadDrawsCSV(r io.Reader) ([]DrawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read draw csv: %w", err)
	}

	var records []DrawRecord
	for i, row := range rows {
		record, err := parseDrawRow(row)
		if err != nil {
			if i > 0 {
				logger.Warnf("Skipping draw csv line %d: %v", i+1, err)
			}
			continue
		}
		records = append(records, *record)
	}

	return Chronological(records), nil
}

func parseDrawRow(row []string) (*DrawRecord, error) {
	if len(row) < 9 {
		return nil, fmt.Errorf("want 9 columns, got %d", len(row))
	}

	date, err := ParseDrawDate(row[1])
	if err != nil {
		return nil, err
	}

	nums, err := ParseNumbers(strings.Join(row[2:9], " "))
	if err != nil {
		return nil, err
	}
	if len(nums) != FrontSize+BackSize {
		return nil, fmt.Errorf("want %d numbers, got %d", FrontSize+BackSize, len(nums))
	}

	record := &DrawRecord{
		Issue:    strings.TrimSpace(row[0]),
		DrawDate: date,
		Front:    SortedCopy(nums[:FrontSize]),
		Back:     SortedCopy(nums[FrontSize:]),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// ParseDrawDate 解析开奖日期，支持 2006-01-02、2006/01/02 等格式
func ParseDrawDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range drawDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized draw date %q", s)
}

// WriteDrawsCSV 写出开奖CSV，格式与 ReadDrawsCSV 对应
func WriteDrawsCSV(w io.Writer, records []DrawRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"issue", "date", "f1", "f2", "f3", "f4", "f5", "b1", "b2"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range records {
		row := []string{r.Issue, r.DrawDate.Format("2006-01-02")}
		for _, n := range append(append([]int(nil), r.Front...), r.Back...) {
			row = append(row, fmt.Sprintf("%d", n))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write draw %s: %w", r.Issue, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
