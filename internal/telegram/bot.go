package telegram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/logger"
	"dlt-predictor/internal/predictor"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// 机器人命令的限制
const (
	maxBotPredictions = 20
	defaultHistory    = 10
	maxHistory        = 30
	predictTimeout    = 30 * time.Second
)

// DataSource 机器人读取的数据，由缓存管理器实现
type DataSource interface {
	History(limit int) ([]database.DrawRecord, error)
	LatestPredictions(limit int) ([]database.PredictionRecord, error)
	PredictionStats() (*database.PredictionStats, error)
	Context(records []database.DrawRecord) *features.Context
}

// Runner 预测引擎
type Runner interface {
	Run(ctx context.Context, cfg predictor.RunConfig) ([]predictor.PredictionResult, *predictor.Report, error)
}

// CommandRecorder 命令指标
type CommandRecorder interface {
	RecordCommand(command string)
}

// sender 发送消息的 Bot API 子集
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot Telegram机器人
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   sender
	timeout  time.Duration
	data     DataSource
	runner   Runner
	defaults config.Prediction
	history  int
	recorder CommandRecorder

	mu          sync.RWMutex
	subscribers map[int64]bool
}

// NewBot 创建新的Telegram机器人
func NewBot(cfg *config.Telegram, data DataSource, runner Runner, defaults config.Prediction, historyLimit int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	api.Debug = false
	logger.Infof("Telegram bot authorized on account: %s", api.Self.UserName)

	b := newBot(api, data, runner, defaults, historyLimit)
	b.api = api
	b.timeout = cfg.Timeout
	return b, nil
}

func newBot(s sender, data DataSource, runner Runner, defaults config.Prediction, historyLimit int) *Bot {
	return &Bot{
		sender:      s,
		data:        data,
		runner:      runner,
		defaults:    defaults,
		history:     historyLimit,
		subscribers: make(map[int64]bool),
	}
}

// SetRecorder 设置命令指标
func (b *Bot) SetRecorder(r CommandRecorder) {
	b.recorder = r
}

// Run 接收更新直到 ctx 结束
func (b *Bot) Run(ctx context.Context) {
	if b.api == nil {
		return
	}
	logger.Infof("Starting Telegram bot...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.timeout.Seconds())
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message != nil && update.Message.Chat.IsPrivate() {
				go b.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil && update.CallbackQuery.Message != nil &&
				update.CallbackQuery.Message.Chat.IsPrivate() {
				go b.handleCallbackQuery(ctx, update.CallbackQuery)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logger.Infof("Telegram bot stopped")
			return
		}
	}
}

// handleMessage 处理私聊消息
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	var reply string
	if message.IsCommand() {
		logger.Debugf("Received private command: %s from user: %d", message.Command(), chatID)
		reply = b.handleCommand(ctx, chatID, message.Command(), message.CommandArguments())
	} else {
		reply = b.handleText(ctx, chatID, strings.TrimSpace(message.Text))
	}
	b.sendMessage(chatID, reply, message.Command() == "predict")
}

// handleCommand 处理命令并返回回复内容
func (b *Bot) handleCommand(ctx context.Context, chatID int64, command, args string) string {
	if b.recorder != nil {
		b.recorder.RecordCommand(command)
	}

	switch command {
	case "start":
		b.subscribe(chatID)
		return welcomeText
	case "stop":
		b.unsubscribe(chatID)
		return "🔕 Unsubscribed. Send /start to receive new predictions again."
	case "help":
		return helpText
	case "latest":
		return b.latest()
	case "history":
		return b.historyReply(args)
	case "predict":
		return b.predict(ctx, args)
	case "hotcold":
		return b.hotCold()
	case "stats":
		return b.stats()
	default:
		return "Unknown command. Type /help to view available commands."
	}
}

// handleText 简单的关键词回复
func (b *Bot) handleText(ctx context.Context, chatID int64, text string) string {
	switch text {
	case "最新", "开奖":
		return b.handleCommand(ctx, chatID, "latest", "")
	case "历史", "历史记录":
		return b.handleCommand(ctx, chatID, "history", "")
	case "预测":
		return b.handleCommand(ctx, chatID, "predict", "")
	case "冷热", "冷热号":
		return b.handleCommand(ctx, chatID, "hotcold", "")
	case "统计":
		return b.handleCommand(ctx, chatID, "stats", "")
	default:
		return "Please use commands or keywords, type /help for help."
	}
}

// handleCallbackQuery 处理内联键盘回调
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	logger.Debugf("Received private callback: %s from user: %d", callback.Data, chatID)

	var reply string
	switch callback.Data {
	case "refresh_latest":
		reply = b.handleCommand(ctx, chatID, "latest", "")
	case "predict_again":
		reply = b.handleCommand(ctx, chatID, "predict", "")
	case "view_hotcold":
		reply = b.handleCommand(ctx, chatID, "hotcold", "")
	case "view_stats":
		reply = b.handleCommand(ctx, chatID, "stats", "")
	}
	if reply != "" {
		b.sendMessage(chatID, reply, callback.Data == "predict_again")
	}

	if _, err := b.sender.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logger.Debugf("Failed to answer callback %s: %v", callback.ID, err)
	}
}

func (b *Bot) latest() string {
	draws, err := b.data.History(1)
	if err != nil || len(draws) == 0 {
		logger.Errorf("Failed to get latest draw: %v", err)
		return "❌ Failed to get the latest draw, please try again later."
	}
	preds, err := b.data.LatestPredictions(maxBotPredictions)
	if err != nil {
		logger.Warnf("Failed to get latest predictions: %v", err)
	}
	return formatLatestMessage(&draws[0], latestBatch(preds))
}

func (b *Bot) historyReply(args string) string {
	limit := defaultHistory
	if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 {
		limit = n
	}
	if limit > maxHistory {
		limit = maxHistory
	}

	draws, err := b.data.History(limit)
	if err != nil {
		logger.Errorf("Failed to get draw history: %v", err)
		return "❌ Failed to get history records, please try again later."
	}
	return formatHistoryMessage(draws)
}

// predict 参数：[注数] [single|compound] [前区个数] [后区个数]
func (b *Bot) predict(ctx context.Context, args string) string {
	cfg, err := b.parsePredictArgs(args)
	if err != nil {
		return "❌ " + err.Error() + "\nUsage: `/predict [count] [single|compound] [front] [back]`"
	}

	history, err := b.data.History(b.history)
	if err != nil {
		logger.Warnf("Predicting without history: %v", err)
	}
	cfg.History = history

	ctx, cancel := context.WithTimeout(ctx, predictTimeout)
	defer cancel()
	results, report, err := b.runner.Run(ctx, cfg)
	if err != nil {
		logger.Errorf("Bot prediction failed: %v", err)
		return "❌ Prediction failed: " + err.Error()
	}
	return formatPredictionMessage(cfg.TargetIssue, cfg.Mode, results, report)
}

func (b *Bot) parsePredictArgs(args string) (predictor.RunConfig, error) {
	cfg := predictor.RunConfigFrom(b.defaults)
	if cfg.PredictionCount > maxBotPredictions {
		cfg.PredictionCount = maxBotPredictions
	}

	fields := strings.Fields(args)
	ints := make([]int, 0, 3)
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			ints = append(ints, n)
			continue
		}
		mode, err := predictor.ParseMode(f)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}

	if len(ints) > 0 {
		if ints[0] < 1 || ints[0] > maxBotPredictions {
			return cfg, fmt.Errorf("count must be 1-%d", maxBotPredictions)
		}
		cfg.PredictionCount = ints[0]
	}
	if cfg.Mode == predictor.ModeCompound {
		if cfg.FrontCount <= 5 {
			cfg.FrontCount = 6
		}
		if len(ints) > 1 {
			cfg.FrontCount = ints[1]
		}
		if len(ints) > 2 {
			cfg.BackCount = ints[2]
		}
	}
	return cfg, nil
}

func (b *Bot) hotCold() string {
	history, err := b.data.History(b.history)
	if err != nil || len(history) == 0 {
		logger.Errorf("Failed to get history for hot/cold: %v", err)
		return "❌ Not enough draw history for hot/cold analysis."
	}
	fctx := b.data.Context(history)
	return formatHotColdMessage(features.Summarize(fctx.Features, 5))
}

func (b *Bot) stats() string {
	stats, err := b.data.PredictionStats()
	if err != nil {
		logger.Errorf("Failed to get prediction stats: %v", err)
		return "❌ Failed to get statistics, please try again later."
	}
	return formatStatsMessage(stats)
}

// latestBatch 最近记录中属于最新一批的预测，按序号排列
func latestBatch(preds []database.PredictionRecord) []database.PredictionRecord {
	if len(preds) == 0 {
		return nil
	}
	batchID := preds[0].BatchID
	var out []database.PredictionRecord
	for _, p := range preds {
		if p.BatchID == batchID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (b *Bot) subscribe(chatID int64) {
	b.mu.Lock()
	b.subscribers[chatID] = true
	b.mu.Unlock()
}

func (b *Bot) unsubscribe(chatID int64) {
	b.mu.Lock()
	delete(b.subscribers, chatID)
	b.mu.Unlock()
}

// Subscribers 当前订阅推送的私聊用户
func (b *Bot) Subscribers() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]int64, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sendMessage 发送消息（仅发送给私聊）
func (b *Bot) sendMessage(chatID int64, text string, withKeyboard bool) {
	// 正数ID为用户，负数ID为群组
	if chatID < 0 {
		logger.Debugf("Skipping message to group chat %d", chatID)
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if withKeyboard {
		msg.ReplyMarkup = inlineKeyboard()
	}
	if _, err := b.sender.Send(msg); err != nil {
		logger.Errorf("Failed to send message to user %d: %v", chatID, err)
	}
}

// BroadcastPredictions 向订阅用户推送新一期预测
func (b *Bot) BroadcastPredictions(latest *database.DrawRecord, target string, mode predictor.Mode,
	results []predictor.PredictionResult, report *predictor.Report) {
	text := formatBroadcastMessage(latest, target, mode, results, report)
	users := b.Subscribers()
	for _, id := range users {
		b.sendMessage(id, text, true)
	}
	logger.Infof("Broadcasted predictions for %s to %d private users", target, len(users))
}

// BroadcastVerification 向订阅用户推送上一期预测的验证结果
func (b *Bot) BroadcastVerification(summary *predictor.VerificationSummary) {
	if summary == nil || len(summary.Results) == 0 {
		return
	}
	text := formatVerificationMessage(summary)
	for _, id := range b.Subscribers() {
		b.sendMessage(id, text, false)
	}
}
