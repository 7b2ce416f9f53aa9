package predictor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/logger"
	"dlt-predictor/internal/tickets"

	"github.com/sirupsen/logrus"
)

// MaxPredictionCount 单次运行最多生成的注数
const MaxPredictionCount = 100

// RunConfig 一次预测运行的参数
type RunConfig struct {
	Mode            Mode           `json:"predictionMode" validate:"oneof=single compound"`
	PredictionCount int            `json:"predictionCount"`
	FrontCount      int            `json:"frontBallCount" validate:"min=5,max=35"`
	BackCount       int            `json:"backBallCount" validate:"min=2,max=12"`
	TargetIssue     string         `json:"targetPeriod"`
	Toggles         config.Toggles `json:"analysisToggles"`

	// History 开奖记录，旧到新
	History []database.DrawRecord `json:"-"`
}

// RunConfigFrom 由配置文件的预测参数构造运行参数
func RunConfigFrom(p config.Prediction) RunConfig {
	mode, err := ParseMode(p.Mode)
	if err != nil {
		mode = ModeSingle
	}
	return RunConfig{
		Mode:            mode,
		PredictionCount: p.Count,
		FrontCount:      p.FrontCount,
		BackCount:       p.BackCount,
		Toggles:         p.Toggles,
	}
}

// Normalize 校验参数；单式固定为 5+2，复式前区至少 6 个；未指定目标期号时取最新一期的下一期
func (c *RunConfig) Normalize() error {
	if c.PredictionCount < 1 || c.PredictionCount > MaxPredictionCount {
		return fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidPredictionCount, c.PredictionCount, MaxPredictionCount)
	}
	if c.Mode == "" {
		c.Mode = ModeSingle
	}

	switch c.Mode {
	case ModeSingle:
		c.FrontCount = features.Front.Size()
		c.BackCount = features.Back.Size()
	case ModeCompound:
		if c.FrontCount < features.Front.Size()+1 || c.FrontCount > features.Front.Max() {
			return fmt.Errorf("%w: compound front count %d (want 6-35)", ErrInvalidBallCount, c.FrontCount)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, c.Mode)
	}
	if err := config.ValidateStruct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBallCount, err)
	}

	if c.TargetIssue == "" {
		c.TargetIssue = NextTargetIssue(c.History)
	}
	return nil
}

// NextTargetIssue 最新一期期号的下一期，没有记录或期号不合法时为空
func NextTargetIssue(records []database.DrawRecord) string {
	if len(records) == 0 {
		return ""
	}
	latest := database.Chronological(records)[len(records)-1]
	next, err := database.NextIssue(latest.Issue)
	if err != nil {
		logger.Debugf("Cannot derive target issue from %q: %v", latest.Issue, err)
		return ""
	}
	return next
}

// ContextProvider 提供特征上下文，实现方可以按数据版本缓存
type ContextProvider interface {
	Context(records []database.DrawRecord) *features.Context
}

type directProvider struct{}

func (directProvider) Context(records []database.DrawRecord) *features.Context {
	return features.NewContext(records)
}

// Observer 运行指标回调
type Observer interface {
	ObserveRun(mode string, predictions int, elapsed time.Duration, score int, optimized bool)
	ObserveSamplingExhausted(area string)
}

// Engine 预测引擎，可以被多个 goroutine 同时调用 Run
type Engine struct {
	limits    Limits
	provider  ContextProvider
	corpus    *tickets.Corpus
	observer  Observer
	stepDelay time.Duration

	// seeds 只用于派生每次运行的随机源
	mu    sync.Mutex
	seeds Source
}

// EngineOption 引擎选项
type EngineOption func(*Engine)

// WithContextProvider 使用带缓存的特征上下文
func WithContextProvider(p ContextProvider) EngineOption {
	return func(e *Engine) { e.provider = p }
}

// WithCorpus 设置购票数据
func WithCorpus(c *tickets.Corpus) EngineOption {
	return func(e *Engine) { e.corpus = c }
}

// WithObserver 设置指标回调
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// WithStepDelay 每个步骤之间的停顿
func WithStepDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.stepDelay = d }
}

// WithLimits 设置拒绝采样次数
func WithLimits(l Limits) EngineOption {
	return func(e *Engine) { e.limits = l }
}

// NewEngine 创建预测引擎
func NewEngine(src Source, opts ...EngineOption) *Engine {
	if src == nil {
		src = NewTimeSource()
	}
	e := &Engine{seeds: src, limits: DefaultLimits(), provider: directProvider{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.limits.MaxFrontAttempts < 1 || e.limits.MaxBackAttempts < 1 {
		e.limits = DefaultLimits()
	}
	return e
}

// runSource 从引擎的种子源派生一次运行独占的随机源，固定种子的引擎仍然可复现
func (e *Engine) runSource() Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return NewSource(int64(e.seeds.Next() * math.MaxInt64))
}

type runState struct {
	cfg       RunConfig
	src       Source
	generator *Generator
	optimizer *Optimizer

	fctx    *features.Context
	an      *Analysis
	results []PredictionResult
	report  *Report
}

type step struct {
	name string
	run  func(*runState)
}

// Run 按步骤执行一次预测
//
// 只有参数错误和取消会返回错误；历史数据不足时使用默认特征，仍然生成完整的结果。
// 不少于三注时做多期验证，评分低于 60 时优化一次，报告附加在第一注的说明后。
func (e *Engine) Run(ctx context.Context, cfg RunConfig) ([]PredictionResult, *Report, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	src := e.runSource()
	st := &runState{
		cfg:       cfg,
		src:       src,
		generator: NewGenerator(src, e.limits),
		optimizer: NewOptimizer(src),
	}

	steps := e.steps()
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("prediction cancelled before step %q: %w", s.name, err)
		}
		logger.WithFields(logrus.Fields{
			"step":  fmt.Sprintf("%d/%d", i+1, len(steps)),
			"issue": cfg.TargetIssue,
		}).Debug(s.name)
		s.run(st)

		if e.stepDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, fmt.Errorf("prediction cancelled after step %q: %w", s.name, ctx.Err())
			case <-time.After(e.stepDelay):
			}
		}
	}

	score := -1
	optimized := false
	if st.report != nil {
		score = st.report.StabilityScore
		optimized = st.report.Optimized
	}
	if e.observer != nil {
		e.observer.ObserveRun(string(cfg.Mode), len(st.results), time.Since(start), score, optimized)
	}

	logger.Infof("Generated %d %s predictions for issue %s (stability %d)",
		len(st.results), cfg.Mode, cfg.TargetIssue, score)
	return st.results, st.report, nil
}

func (e *Engine) steps() []step {
	return []step{
		{"读取上传数据", e.loadData},
		{"执行被购买实票分析", e.purchasedAnalysis},
		{"应用保底中奖机制", e.guarantee},
		{"删除不中红球组合", e.removeNonWinning},
		{"调用组合分析算法", e.combinationAnalysis},
		{"特征工程学习机制", e.featureEngineering},
		{"多策略测算机制", e.multiStrategy},
		{"彩票常规测算机制", e.conventional},
		{"运行AI预测算法", e.generate},
		{"生成预测结果", e.finalize},
	}
}

func (e *Engine) loadData(st *runState) {
	st.fctx = e.provider.Context(st.cfg.History)
	st.an = NewAnalysis(st.fctx.Features)
	st.an.HasTickets = e.corpus.HasPurchases()

	cov := tickets.Cover(e.corpus)
	logger.Debugf("History %d records (fallback=%v), tickets: %d single, %d compound, %d non-winning, %d combos remaining",
		st.fctx.Features.RecordCount, st.fctx.Features.Fallback,
		cov.SingleTickets, cov.CompoundTickets, cov.NonWinning, cov.RemainingCombos)
}

func (e *Engine) purchasedAnalysis(st *runState) {
	if !st.cfg.Toggles.PurchasedAnalysis {
		return
	}
	st.an.Purchased = tickets.Analyze(e.corpus)
	logger.Debugf("Least purchased front %v, back %v", st.an.Purchased.LeastFront, st.an.Purchased.LeastBack)
}

func (e *Engine) guarantee(st *runState) {
	st.an.Guarantee = DefaultGuarantee()
}

func (e *Engine) removeNonWinning(st *runState) {
	if !st.cfg.Toggles.RemoveNonWinning {
		return
	}
	st.an.Excluded = tickets.Excluded(e.corpus)
	logger.Debugf("Excluding %d non-winning front combinations", len(st.an.Excluded))
}

func (e *Engine) combinationAnalysis(st *runState) {
	st.an.Combos = AnalyzeCombos(st.an.Features, st.src)
	logger.Debugf("Combination analysis: %d distinct sub-combinations, most frequent triples %v",
		st.an.Combos.HistoricalMatches, st.an.Combos.TopThree(3))
}

func (e *Engine) featureEngineering(st *runState) {
	st.an.Profile = BuildProfile(st.an.Features.Recent)
}

func (e *Engine) multiStrategy(st *runState) {
	for _, w := range TrendWindows {
		st.an.Dynamic(w)
	}
}

func (e *Engine) conventional(st *runState) {
	st.an.Conventional = BuildConventional(st.an.Features)
}

func (e *Engine) generate(st *runState) {
	st.results = make([]PredictionResult, 0, st.cfg.PredictionCount)
	for i := 0; i < st.cfg.PredictionCount; i++ {
		sel := st.generator.Generate(GenerateRequest{
			Mode:       st.cfg.Mode,
			FrontCount: st.cfg.FrontCount,
			BackCount:  st.cfg.BackCount,
			Index:      i,
			Analysis:   st.an,
		})
		if e.observer != nil {
			if !sel.FrontSatisfied {
				e.observer.ObserveSamplingExhausted(features.Front.String())
			}
			if !sel.BackSatisfied {
				e.observer.ObserveSamplingExhausted(features.Back.String())
			}
		}

		st.results = append(st.results, PredictionResult{
			ID:       i + 1,
			Front:    sel.Front,
			Back:     sel.Back,
			Analysis: Narrate(st.an),
		})
	}
}

func (e *Engine) finalize(st *runState) {
	st.report = Validate(st.results, st.an.Features.Recent)
	if st.report == nil {
		return
	}
	if st.report.NeedsOptimization() {
		st.results = st.optimizer.Optimize(st.results, st.report, st.an, st.cfg.FrontCount, st.cfg.BackCount)
		st.report.Optimized = true
	}
	st.results[0].Analysis += st.report.Summary()
}
