package database

import (
	"fmt"
	"math/rand"
	"time"
)

// drawsPerYear 每年约104期（每周一、三、六开奖）
const drawsPerYear = 104

// GenerateMockDraws 生成模拟开奖数据，按时间正序返回
func GenerateMockDraws(count int, start time.Time, rng *rand.Rand) []DrawRecord {
	records := make([]DrawRecord, 0, count)
	for i := 0; i < count; i++ {
		year := start.Year() + i/drawsPerYear
		seq := i%drawsPerYear + 1

		records = append(records, DrawRecord{
			Issue:    fmt.Sprintf("%02d%03d", year%100, seq),
			DrawDate: start.AddDate(0, 0, i*3),
			Front:    SortedCopy(uniqueNumbers(rng, FrontSize, FrontMax)),
			Back:     SortedCopy(uniqueNumbers(rng, BackSize, BackMax)),
		})
	}
	return records
}

func uniqueNumbers(rng *rand.Rand, count, max int) []int {
	perm := rng.Perm(max)[:count]
	nums := make([]int, count)
	for i, p := range perm {
		nums[i] = p + 1
	}
	return nums
}
