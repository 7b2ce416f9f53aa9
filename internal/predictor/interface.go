package predictor

import (
	"fmt"
	"sort"

	"dlt-predictor/internal/logger"
)

// Strategy 选号策略接口
type Strategy interface {
	// Name 策略名称
	Name() string

	// Generate 生成一注号码，总是返回要求的个数
	Generate(req GenerateRequest) Selection
}

// Generator 选号策略管理器，按预测模式分派
type Generator struct {
	strategies map[Mode]Strategy
}

// NewGenerator 创建选号器并注册单式、复式策略
func NewGenerator(src Source, limits Limits) *Generator {
	g := &Generator{strategies: make(map[Mode]Strategy)}
	g.Register(ModeSingle, NewSingleStrategy(src, limits))
	g.Register(ModeCompound, NewCompoundStrategy(src))
	return g
}

// Register 注册策略，已存在时覆盖
func (g *Generator) Register(mode Mode, s Strategy) {
	g.strategies[mode] = s
}

// Strategy 获取模式对应的策略
func (g *Generator) Strategy(mode Mode) (Strategy, error) {
	s, ok := g.strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	return s, nil
}

// Modes 已注册的模式
func (g *Generator) Modes() []Mode {
	modes := make([]Mode, 0, len(g.strategies))
	for m := range g.strategies {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// Generate 使用请求模式的策略生成一注，未注册的模式退回单式
func (g *Generator) Generate(req GenerateRequest) Selection {
	s, err := g.Strategy(req.Mode)
	if err != nil {
		logger.Warnf("%v (registered %v), falling back to %s", err, g.Modes(), ModeSingle)
		s = g.strategies[ModeSingle]
		req.Mode = ModeSingle
	}
	if req.Analysis == nil {
		req.Analysis = NewAnalysis(nil)
	}
	return s.Generate(req)
}
