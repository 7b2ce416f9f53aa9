package features

import (
	"fmt"
	"hash/fnv"
	"time"

	"dlt-predictor/internal/database"
)

// Context 某个数据集版本对应的特征
//
// 由 NewContext 构建一次后只读，可以在多次预测之间共享。
type Context struct {
	// Key 数据集指纹
	Key string
	// Features 历史特征
	Features *Features
	// LatestIssue 数据集中最新的期号，无数据时为空
	LatestIssue string
	// BuiltAt 构建时间
	BuiltAt time.Time
}

// NewContext 从开奖记录构建特征上下文
func NewContext(records []database.DrawRecord, opts ...Option) *Context {
	ctx := &Context{
		Key:      Fingerprint(records),
		Features: Extract(records, opts...),
		BuiltAt:  time.Now(),
	}
	if len(records) > 0 {
		ctx.LatestIssue = records[len(records)-1].Issue
	}
	return ctx
}

// Fingerprint 计算数据集指纹，期号与号码任一变化都会得到不同的值
func Fingerprint(records []database.DrawRecord) string {
	h := fnv.New64a()
	for _, r := range records {
		fmt.Fprintf(h, "%s|%v|%v;", r.Issue, r.Front, r.Back)
	}
	return fmt.Sprintf("%d-%016x", len(records), h.Sum64())
}
