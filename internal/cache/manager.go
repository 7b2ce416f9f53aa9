package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/logger"
)

// 缓存键前缀
const (
	featuresPrefix    = "features:"
	drawsPrefix       = "draws:"
	predictionsPrefix = "predictions:"
	statsKey          = "stats:predictions"
)

// ErrNoStore 没有配置数据库时读取存储数据
var ErrNoStore = errors.New("cache has no backing store")

// Store 缓存背后的数据库操作
type Store interface {
	GetDrawHistory(limit int) ([]database.DrawRecord, error)
	GetLatestPredictions(limit int) ([]database.PredictionRecord, error)
	GetPredictionStats() (*database.PredictionStats, error)
}

// Manager 缓存管理器
//
// 特征上下文按数据集指纹缓存，开奖数据、预测记录和统计按查询参数缓存，
// 新开奖或新预测写入后由事件方法失效相关的键。
type Manager struct {
	memory  *MemoryCache
	store   Store
	ttl     time.Duration
	options []features.Option

	// building 串行化特征构建，同一指纹只构建一次
	building sync.Mutex
}

// NewManager 创建缓存管理器，store 可以为 nil
func NewManager(store Store, cfg config.Analysis) *Manager {
	ttl := cfg.FeatureCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	m := &Manager{
		memory: NewMemoryCache(cfg.FeatureCacheSize),
		store:  store,
		ttl:    ttl,
	}
	if cfg.RecentWindow > 0 {
		m.options = append(m.options, features.WithRecentWindow(cfg.RecentWindow))
	}

	logger.Infof("Cache manager initialized (size %d, ttl %v)", cfg.FeatureCacheSize, ttl)
	return m
}

// Memory 底层内存缓存
func (m *Manager) Memory() *MemoryCache {
	return m.memory
}

// Context 返回记录集对应的特征上下文，未命中时构建并缓存
func (m *Manager) Context(records []database.DrawRecord) *features.Context {
	key := featuresPrefix + features.Fingerprint(records)
	if v, ok := m.memory.Get(key); ok {
		return v.(*features.Context)
	}

	m.building.Lock()
	defer m.building.Unlock()
	if v, ok := m.memory.Get(key); ok {
		return v.(*features.Context)
	}

	start := time.Now()
	fctx := features.NewContext(records, m.options...)
	m.memory.Set(key, fctx, m.ttl)
	logger.Debugf("Built feature context %s in %v", fctx.Key, time.Since(start))
	return fctx
}

// History 最近 limit 期开奖数据，旧到新
func (m *Manager) History(limit int) ([]database.DrawRecord, error) {
	key := fmt.Sprintf("%shistory:%d", drawsPrefix, limit)
	if v, ok := m.memory.Get(key); ok {
		return append([]database.DrawRecord(nil), v.([]database.DrawRecord)...), nil
	}
	if m.store == nil {
		return nil, ErrNoStore
	}

	records, err := m.store.GetDrawHistory(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw history from database: %w", err)
	}
	m.memory.Set(key, records, m.ttl)
	return append([]database.DrawRecord(nil), records...), nil
}

// LatestPredictions 最近 limit 条预测记录
func (m *Manager) LatestPredictions(limit int) ([]database.PredictionRecord, error) {
	key := fmt.Sprintf("%slatest:%d", predictionsPrefix, limit)
	if v, ok := m.memory.Get(key); ok {
		return append([]database.PredictionRecord(nil), v.([]database.PredictionRecord)...), nil
	}
	if m.store == nil {
		return nil, ErrNoStore
	}

	records, err := m.store.GetLatestPredictions(limit)
	if err != nil {
		return nil, err
	}
	m.memory.Set(key, records, m.ttl)
	return append([]database.PredictionRecord(nil), records...), nil
}

// PredictionStats 预测统计
func (m *Manager) PredictionStats() (*database.PredictionStats, error) {
	if v, ok := m.memory.Get(statsKey); ok {
		stats := *v.(*database.PredictionStats)
		return &stats, nil
	}
	if m.store == nil {
		return nil, ErrNoStore
	}

	stats, err := m.store.GetPredictionStats()
	if err != nil {
		return nil, err
	}
	m.memory.Set(statsKey, stats, m.ttl)
	out := *stats
	return &out, nil
}

// OnNewDraw 新开奖数据入库后失效开奖和特征缓存
func (m *Manager) OnNewDraw(draw *database.DrawRecord) {
	n := m.memory.DeletePattern(drawsPrefix+"*") + m.memory.DeletePattern(featuresPrefix+"*")
	logger.Infof("Cache updated for new draw %s: %d entries invalidated", draw.Issue, n)
}

// OnPredictionsSaved 新预测入库后失效预测缓存
func (m *Manager) OnPredictionsSaved(targetIssue string) {
	m.memory.DeletePattern(predictionsPrefix + "*")
	m.memory.Delete(statsKey)
	logger.Debugf("Cache updated for new predictions: %s", targetIssue)
}

// OnPredictionsVerified 验证结果写入后失效预测和统计缓存
func (m *Manager) OnPredictionsVerified(issue string) {
	m.memory.DeletePattern(predictionsPrefix + "*")
	m.memory.Delete(statsKey)
	logger.Debugf("Cache updated for verified predictions: %s", issue)
}
