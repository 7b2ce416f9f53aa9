// Package metrics exposes prediction, sync and verification counters through Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 预测服务的 Prometheus 指标，实现 predictor.Observer
type Recorder struct {
	runs           *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	stability      *prometheus.GaugeVec
	exhausted      *prometheus.CounterVec
	drawsSynced    prometheus.Counter
	latestIssue    prometheus.Gauge
	verified       *prometheus.CounterVec
	prizeAmount    prometheus.Counter
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	commandsServed *prometheus.CounterVec
}

// New 在 reg 上注册指标，reg 为 nil 时使用默认注册表
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlt_prediction_runs_total",
				Help: "Total number of prediction runs",
			},
			[]string{"mode", "optimized"},
		),
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlt_predictions_generated_total",
				Help: "Total number of predictions generated",
			},
			[]string{"mode"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dlt_prediction_duration_seconds",
				Help:    "Duration of prediction runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		stability: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dlt_stability_score",
				Help: "Stability score of the last validated batch",
			},
			[]string{"mode"},
		),
		exhausted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlt_sampling_exhausted_total",
				Help: "Number of selections padded after rejection sampling ran out of attempts",
			},
			[]string{"area"},
		),
		drawsSynced: factory.NewCounter(prometheus.CounterOpts{
			Name: "dlt_draws_synced_total",
			Help: "Total number of new draws saved from the upstream API",
		}),
		latestIssue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dlt_latest_issue",
			Help: "Latest draw issue number stored",
		}),
		verified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlt_predictions_verified_total",
				Help: "Total number of verified predictions by prize level",
			},
			[]string{"level"},
		),
		prizeAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "dlt_prize_amount_total",
			Help: "Total prize amount won by verified predictions",
		}),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlt_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dlt_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		commandsServed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlt_bot_commands_total",
				Help: "Total number of bot commands handled",
			},
			[]string{"command"},
		),
	}
}

// ObserveRun 记录一次预测运行，score 小于 0 表示未做多期验证
func (r *Recorder) ObserveRun(mode string, predictions int, elapsed time.Duration, score int, optimized bool) {
	r.runs.WithLabelValues(mode, strconv.FormatBool(optimized)).Inc()
	r.predictions.WithLabelValues(mode).Add(float64(predictions))
	r.runDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if score >= 0 {
		r.stability.WithLabelValues(mode).Set(float64(score))
	}
}

// ObserveSamplingExhausted 记录拒绝采样用尽
func (r *Recorder) ObserveSamplingExhausted(area string) {
	r.exhausted.WithLabelValues(area).Inc()
}

// RecordDrawSynced 记录新入库的开奖数据
func (r *Recorder) RecordDrawSynced(issue string) {
	r.drawsSynced.Inc()
	if n, err := strconv.Atoi(issue); err == nil {
		r.latestIssue.Set(float64(n))
	}
}

// RecordVerification 记录一注预测的验证结果
func (r *Recorder) RecordVerification(level string, amount int64) {
	r.verified.WithLabelValues(level).Inc()
	if amount > 0 {
		r.prizeAmount.Add(float64(amount))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordCommand 记录机器人命令
func (r *Recorder) RecordCommand(command string) {
	r.commandsServed.WithLabelValues(command).Inc()
}
