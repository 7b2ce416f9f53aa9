package tickets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"dlt-predictor/internal/logger"
)

// maxTicketRows 单式与复式文件最多读取的数据行（不含表头）
const maxTicketRows = 499

// LoadSingleCSV 读取单式票文件
func LoadSingleCSV(path string) ([]SingleTicket, error) {
	var out []SingleTicket
	err := withFile(path, func(r io.Reader) (err error) {
		out, err = ReadSingleCSV(r)
		return err
	})
	return out, err
}

// ReadSingleCSV 单式票：首行为表头，每行前区 5 列、后区 2 列、倍数 1 列
func ReadSingleCSV(r io.Reader) ([]SingleTicket, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	var out []SingleTicket
	for i, row := range dataRows(rows) {
		if len(row) < 8 {
			continue
		}
		front := numbers(row[0:5])
		back := numbers(row[5:7])
		multiplier, _ := strconv.Atoi(strings.TrimSpace(row[7]))

		t, err := NewSingleTicket(front, back, multiplier)
		if err != nil {
			logger.Debugf("Skipping single ticket row %d: %v", i+2, err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadCompoundCSV 读取复式票文件
func LoadCompoundCSV(path string) ([]CompoundTicket, error) {
	var out []CompoundTicket
	err := withFile(path, func(r io.Reader) (err error) {
		out, err = ReadCompoundCSV(r)
		return err
	})
	return out, err
}

// ReadCompoundCSV 复式票：首行为表头，前 18 列为前区，其后 8 列为后区，空格子忽略
func ReadCompoundCSV(r io.Reader) ([]CompoundTicket, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	var out []CompoundTicket
	for i, row := range dataRows(rows) {
		if len(row) < 20 {
			continue
		}
		end := len(row)
		if end > 26 {
			end = 26
		}
		front := inRange(numbers(row[0:18]), 35)
		back := inRange(numbers(row[18:end]), 12)

		t, err := NewCompoundTicket(front, back)
		if err != nil {
			logger.Debugf("Skipping compound ticket row %d: %v", i+2, err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadNonWinningCSV 读取不中组合文件
func LoadNonWinningCSV(path string) ([][]int, error) {
	var out [][]int
	err := withFile(path, func(r io.Reader) (err error) {
		out, err = ReadNonWinningCSV(r)
		return err
	})
	return out, err
}

// ReadNonWinningCSV 不中组合：没有表头，每行 5 个前区号码
func ReadNonWinningCSV(r io.Reader) ([][]int, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}

	var out [][]int
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		combo, err := NewCombo(numbers(row[0:5]))
		if err != nil {
			continue
		}
		out = append(out, combo)
	}
	return out, nil
}

// LoadCorpus 按路径读取购票数据，空路径跳过
func LoadCorpus(single, compound, nonWinning string) (*Corpus, error) {
	c := &Corpus{}
	var err error
	if single != "" {
		if c.Singles, err = LoadSingleCSV(single); err != nil {
			return nil, err
		}
	}
	if compound != "" {
		if c.Compounds, err = LoadCompoundCSV(compound); err != nil {
			return nil, err
		}
	}
	if nonWinning != "" {
		if c.NonWinning, err = LoadNonWinningCSV(nonWinning); err != nil {
			return nil, err
		}
	}

	logger.Infof("Loaded ticket corpus: %d single, %d compound, %d non-winning",
		len(c.Singles), len(c.Compounds), len(c.NonWinning))
	return c, nil
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ticket file: %w", err)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func readRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// dataRows 跳过表头并限制行数
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	rows = rows[1:]
	if len(rows) > maxTicketRows {
		rows = rows[:maxTicketRows]
	}
	return rows
}

// numbers 解析单元格，非数字的格子忽略
func numbers(cells []string) []int {
	out := make([]int, 0, len(cells))
	for _, cell := range cells {
		n, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func inRange(nums []int, max int) []int {
	out := nums[:0]
	for _, n := range nums {
		if n >= 1 && n <= max {
			out = append(out, n)
		}
	}
	return out
}
