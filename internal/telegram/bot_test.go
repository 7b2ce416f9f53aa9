package telegram

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/predictor"
	"dlt-predictor/internal/prize"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests int
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type fakeData struct {
	draws []database.DrawRecord
	preds []database.PredictionRecord
	err   error
}

func (d *fakeData) History(limit int) ([]database.DrawRecord, error) {
	if d.err != nil {
		return nil, d.err
	}
	if limit < len(d.draws) {
		return d.draws[len(d.draws)-limit:], nil
	}
	return d.draws, nil
}

func (d *fakeData) LatestPredictions(limit int) ([]database.PredictionRecord, error) {
	return d.preds, d.err
}

func (d *fakeData) PredictionStats() (*database.PredictionStats, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &database.PredictionStats{TotalPredictions: 10, VerifiedPredictions: 5, WinningPredictions: 1, WinRate: 20, TotalPrize: 15}, nil
}

func (d *fakeData) Context(records []database.DrawRecord) *features.Context {
	return features.NewContext(records)
}

type commandCounter struct{ commands []string }

func (c *commandCounter) RecordCommand(command string) { c.commands = append(c.commands, command) }

func newTestBot(data *fakeData) (*Bot, *fakeSender) {
	s := &fakeSender{}
	defaults := config.Prediction{Mode: "single", Count: 5, FrontCount: 5, BackCount: 2}
	b := newBot(s, data, predictor.NewEngine(predictor.NewSource(1)), defaults, 100)
	return b, s
}

func testDraws(n int) []database.DrawRecord {
	return database.GenerateMockDraws(n, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rand.New(rand.NewSource(3)))
}

// TestSubscription tests /start and /stop
func TestSubscription(t *testing.T) {
	b, _ := newTestBot(&fakeData{})
	counter := &commandCounter{}
	b.SetRecorder(counter)
	ctx := context.Background()

	assert.Equal(t, welcomeText, b.handleCommand(ctx, 42, "start", ""))
	b.handleCommand(ctx, 7, "start", "")
	assert.Equal(t, []int64{7, 42}, b.Subscribers())

	b.handleCommand(ctx, 42, "stop", "")
	assert.Equal(t, []int64{7}, b.Subscribers())
	assert.Equal(t, []string{"start", "start", "stop"}, counter.commands)

	assert.Contains(t, b.handleCommand(ctx, 7, "nope", ""), "Unknown command")
	assert.Equal(t, helpText, b.handleCommand(ctx, 7, "help", ""))
}

// TestLatestAndHistory tests draw replies
func TestLatestAndHistory(t *testing.T) {
	level := "五等奖"
	data := &fakeData{
		draws: testDraws(40),
		preds: []database.PredictionRecord{
			{BatchID: "b2", TargetIssue: "24041", Seq: 2, FrontNumbers: "02 09 16 23 30", BackNumbers: "02 08"},
			{BatchID: "b2", TargetIssue: "24041", Seq: 1, FrontNumbers: "01 08 15 22 29", BackNumbers: "01 07", PrizeLevel: &level},
			{BatchID: "b1", TargetIssue: "24040", Seq: 1, FrontNumbers: "03 10 17 24 31", BackNumbers: "03 09"},
		},
	}
	b, _ := newTestBot(data)
	ctx := context.Background()

	latest := b.handleCommand(ctx, 1, "latest", "")
	assert.Contains(t, latest, "Issue: `24040`")
	assert.Contains(t, latest, "Predictions for 24041")
	assert.Contains(t, latest, "1. `01 08 15 22 29 + 01 07` 五等奖")
	assert.NotContains(t, latest, "03 10 17 24 31")
	assert.Less(t, strings.Index(latest, "1. `"), strings.Index(latest, "2. `"))

	history := b.handleCommand(ctx, 1, "history", "3")
	assert.Contains(t, history, "Recent 3 Draws")
	assert.Less(t, strings.Index(history, "`24040`"), strings.Index(history, "`24038`"))

	assert.Contains(t, b.handleCommand(ctx, 1, "history", "500"), "Recent 30 Draws")
	assert.Contains(t, b.handleText(ctx, 1, "历史"), "Recent 10 Draws")

	data.err = errors.New("db down")
	assert.Contains(t, b.handleCommand(ctx, 1, "latest", ""), "Failed")
	assert.Contains(t, b.handleCommand(ctx, 1, "stats", ""), "Failed")
}

// TestPredictCommand tests argument parsing and engine output
func TestPredictCommand(t *testing.T) {
	b, _ := newTestBot(&fakeData{draws: testDraws(60)})
	ctx := context.Background()

	reply := b.handleCommand(ctx, 1, "predict", "")
	assert.Contains(t, reply, "Predictions for 24061")
	assert.Contains(t, reply, "(single)")
	assert.Contains(t, reply, "5. `")
	assert.Contains(t, reply, "Stability score")

	reply = b.handleCommand(ctx, 1, "predict", "2 compound 8 3")
	assert.Contains(t, reply, "(compound)")
	assert.Contains(t, reply, "2. `")
	assert.NotContains(t, reply, "3. `")
	assert.NotContains(t, reply, "Stability score")

	assert.Contains(t, b.handleCommand(ctx, 1, "predict", "lucky"), "Usage")
	assert.Contains(t, b.handleCommand(ctx, 1, "predict", "50"), "count must be 1-20")
	assert.Contains(t, b.handleCommand(ctx, 1, "predict", "1 compound 40"), "Prediction failed")
}

// TestParsePredictArgs tests compound defaults
func TestParsePredictArgs(t *testing.T) {
	b, _ := newTestBot(&fakeData{})

	cfg, err := b.parsePredictArgs("multiple")
	require.NoError(t, err)
	assert.Equal(t, predictor.ModeCompound, cfg.Mode)
	assert.Equal(t, 6, cfg.FrontCount)
	assert.Equal(t, 5, cfg.PredictionCount)

	cfg, err = b.parsePredictArgs("3 compound 10 4")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.PredictionCount)
	assert.Equal(t, 10, cfg.FrontCount)
	assert.Equal(t, 4, cfg.BackCount)
}

// TestHotColdAndStats tests summary replies
func TestHotColdAndStats(t *testing.T) {
	b, _ := newTestBot(&fakeData{draws: testDraws(50)})
	ctx := context.Background()

	reply := b.handleCommand(ctx, 1, "hotcold", "")
	assert.Contains(t, reply, "Hot & Cold Numbers* (50 draws)")
	assert.Contains(t, reply, "Front hot: `")

	stats := b.handleText(ctx, 1, "统计")
	assert.Contains(t, stats, "Win Rate: `20.00%`")

	empty, _ := newTestBot(&fakeData{})
	assert.Contains(t, empty.handleCommand(ctx, 1, "hotcold", ""), "Not enough draw history")
}

// TestBroadcast tests pushes to subscribers only
func TestBroadcast(t *testing.T) {
	b, s := newTestBot(&fakeData{})
	ctx := context.Background()
	b.handleCommand(ctx, 11, "start", "")
	b.handleCommand(ctx, 12, "start", "")

	latest := &database.DrawRecord{Issue: "24100", Front: []int{1, 2, 3, 4, 5}, Back: []int{1, 2}}
	results := []predictor.PredictionResult{{ID: 1, Front: []int{3, 9, 16, 24, 30}, Back: []int{4, 9}}}
	b.BroadcastPredictions(latest, "24101", predictor.ModeSingle, results, nil)

	require.Len(t, s.messages, 2)
	assert.Equal(t, int64(11), s.messages[0].ChatID)
	assert.Contains(t, s.messages[0].Text, "Issue `24100`")
	assert.Contains(t, s.messages[0].Text, "1. `03 09 16 24 30 + 04 09`")
	assert.NotNil(t, s.messages[0].ReplyMarkup)
	assert.Equal(t, tgbotapi.ModeMarkdown, s.messages[0].ParseMode)

	res, err := prize.Calculate(5, 2, 0, 0)
	require.NoError(t, err)
	b.BroadcastVerification(&predictor.VerificationSummary{
		Issue:   "24101",
		Results: []predictor.VerificationResult{{Seq: 1, Front: results[0].Front, Back: results[0].Back, Prize: res}},
	})
	require.Len(t, s.messages, 4)
	assert.Contains(t, s.messages[3].Text, "No winning predictions")

	b.BroadcastVerification(&predictor.VerificationSummary{Issue: "24102"})
	assert.Len(t, s.messages, 4)

	b.sendMessage(-100, "group", false)
	assert.Len(t, s.messages, 4)
}
