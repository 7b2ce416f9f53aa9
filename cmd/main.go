package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"
	"dlt-predictor/internal/features"
	"dlt-predictor/internal/logger"
	"dlt-predictor/internal/output"
	"dlt-predictor/internal/predictor"
	"dlt-predictor/internal/tickets"

	"github.com/spf13/cobra"
)

// rootFlags 全局参数
type rootFlags struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg *config.Config
}

// predictFlags predict 子命令参数
type predictFlags struct {
	historyCSV string
	fromDB     bool
	mock       int
	seed       int64

	mode      string
	count     int
	front     int
	back      int
	target    string
	purchased bool
	guarantee bool
	removeNW  bool

	singleFile     string
	compoundFile   string
	nonWinningFile string

	exportDir string
	jsonOut   bool
	save      bool
	hotCold   bool
}

var errMissingConfig = errors.New("config file is required for this command")

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "dlt-predictor",
		Short: "大乐透智能预测",
		Long: `dlt-predictor generates 大乐透 predictions from draw history,
verifies stored predictions against new draws and serves them over Telegram.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return flags.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "configs/config.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newPredictCmd(flags))
	root.AddCommand(newImportCmd(flags))
	root.AddCommand(newVerifyCmd(flags))
	root.AddCommand(newMockCmd(flags))
	root.AddCommand(newServeCmd(flags))
	return root
}

// setup 读取配置并初始化日志，配置文件不存在时使用默认值
func (f *rootFlags) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(f.configPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return err
	}
	f.cfg = cfg

	level := cfg.App.LogLevel
	if f.logLevel != "" {
		level = f.logLevel
	}
	logger.InitLoggerWithOutput(level, cmd.ErrOrStderr())
	return nil
}

func (f *rootFlags) renderer(cmd *cobra.Command) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), f.noColor)
}

func (f *rootFlags) openDB() (*database.MySQLDB, error) {
	return database.NewMySQLDB(&f.cfg.Database)
}

func newPredictCmd(root *rootFlags) *cobra.Command {
	flags := &predictFlags{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Generate one batch of predictions",
		Long: `Generate one batch of predictions from a CSV history, the database or
mock draws. Without any history the built-in fallback features are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd, root, flags)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&flags.historyCSV, "history", "", "CSV file with draw history")
	fs.BoolVar(&flags.fromDB, "db", false, "Load draw history from MySQL")
	fs.IntVar(&flags.mock, "mock", 0, "Use N generated mock draws as history")
	fs.Int64Var(&flags.seed, "seed", 0, "Random seed, 0 uses the current time")

	fs.StringVarP(&flags.mode, "mode", "m", "", "Prediction mode: single or compound")
	fs.IntVarP(&flags.count, "count", "n", 0, "Number of predictions")
	fs.IntVar(&flags.front, "front", 0, "Front numbers per compound prediction (6-35)")
	fs.IntVar(&flags.back, "back", 0, "Back numbers per compound prediction (2-12)")
	fs.StringVar(&flags.target, "target", "", "Target issue, defaults to the issue after the latest draw")
	fs.BoolVar(&flags.purchased, "purchased", false, "Steer towards least purchased numbers")
	fs.BoolVar(&flags.guarantee, "guarantee", false, "Enable the guarantee step")
	fs.BoolVar(&flags.removeNW, "remove-non-winning", false, "Exclude known non-winning front combinations")

	fs.StringVar(&flags.singleFile, "single-tickets", "", "CSV file with purchased single tickets")
	fs.StringVar(&flags.compoundFile, "compound-tickets", "", "CSV file with purchased compound tickets")
	fs.StringVar(&flags.nonWinningFile, "non-winning", "", "CSV file with non-winning front combinations")

	fs.StringVarP(&flags.exportDir, "export", "o", "", "Directory to write the JSON export to")
	fs.BoolVar(&flags.jsonOut, "json", false, "Print the JSON export instead of the colored summary")
	fs.BoolVar(&flags.save, "save", false, "Save the batch to MySQL")
	fs.BoolVar(&flags.hotCold, "hotcold", false, "Print the hot/cold summary of the history")
	return cmd
}

func runPredict(cmd *cobra.Command, root *rootFlags, flags *predictFlags) error {
	cfg := root.cfg
	out := root.renderer(cmd)

	var db *database.MySQLDB
	if flags.fromDB || flags.save {
		var err error
		if db, err = root.openDB(); err != nil {
			return err
		}
		defer db.Close()
	}

	history, err := loadHistory(cfg, flags, db)
	if err != nil {
		return err
	}

	files := cfg.Prediction.Tickets
	if flags.singleFile != "" {
		files.Single = flags.singleFile
	}
	if flags.compoundFile != "" {
		files.Compound = flags.compoundFile
	}
	if flags.nonWinningFile != "" {
		files.NonWinning = flags.nonWinningFile
	}
	corpus, err := tickets.LoadCorpus(files.Single, files.Compound, files.NonWinning)
	if err != nil {
		return err
	}

	rc := predictor.RunConfigFrom(cfg.Prediction)
	if err := applyPredictFlags(cmd, flags, &rc); err != nil {
		return err
	}
	rc.History = history
	if err := rc.Normalize(); err != nil {
		return err
	}

	src := predictor.NewTimeSource()
	if flags.seed != 0 {
		src = predictor.NewSource(flags.seed)
	}
	engine := predictor.NewEngine(src,
		predictor.WithCorpus(corpus),
		predictor.WithStepDelay(cfg.Prediction.StepDelay),
		predictor.WithLimits(predictor.Limits{
			MaxFrontAttempts: cfg.Prediction.MaxFrontAttempts,
			MaxBackAttempts:  cfg.Prediction.MaxBackAttempts,
		}),
		predictor.WithContextProvider(featureProvider(cfg.Analysis)),
	)

	results, report, err := engine.Run(cmd.Context(), rc)
	if err != nil {
		return err
	}

	now := time.Now()
	export := predictor.NewExport(rc, results, report, now)
	if flags.jsonOut {
		if err := export.WriteJSON(cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		if flags.hotCold {
			out.HotCold(features.Summarize(features.Extract(history, features.WithRecentWindow(cfg.Analysis.RecentWindow)), 5))
		}
		if corpus.HasPurchases() || len(corpus.NonWinning) > 0 {
			out.Coverage(tickets.Cover(corpus))
		}
		out.Predictions(rc.TargetIssue, rc.Mode, results)
		out.Report(report)
	}

	if flags.exportDir != "" {
		path, err := export.SaveFile(flags.exportDir)
		if err != nil {
			return err
		}
		out.Successf("Exported %d predictions to %s", len(results), path)
	}
	if flags.save {
		if rc.TargetIssue == "" {
			return fmt.Errorf("cannot save predictions without a target issue")
		}
		if err := db.SavePredictionBatch(export.Records(now)); err != nil {
			return err
		}
		out.Successf("Saved batch %s for issue %s", export.BatchID, rc.TargetIssue)
	}
	return nil
}

// applyPredictFlags 命令行参数覆盖配置文件中的预测参数
func applyPredictFlags(cmd *cobra.Command, flags *predictFlags, rc *predictor.RunConfig) error {
	fs := cmd.Flags()
	if fs.Changed("mode") {
		mode, err := predictor.ParseMode(flags.mode)
		if err != nil {
			return err
		}
		rc.Mode = mode
	}
	if fs.Changed("count") {
		rc.PredictionCount = flags.count
	}
	if fs.Changed("front") {
		rc.FrontCount = flags.front
	}
	if fs.Changed("back") {
		rc.BackCount = flags.back
	}
	if fs.Changed("purchased") {
		rc.Toggles.PurchasedAnalysis = flags.purchased
	}
	if fs.Changed("guarantee") {
		rc.Toggles.GuaranteeWin = flags.guarantee
	}
	if fs.Changed("remove-non-winning") {
		rc.Toggles.RemoveNonWinning = flags.removeNW
	}
	rc.TargetIssue = flags.target
	return nil
}

func loadHistory(cfg *config.Config, flags *predictFlags, db *database.MySQLDB) ([]database.DrawRecord, error) {
	switch {
	case flags.historyCSV != "":
		return database.LoadDrawsCSV(flags.historyCSV)
	case flags.fromDB:
		return db.GetDrawHistory(cfg.App.HistoryLimit)
	case flags.mock > 0:
		rng := rand.New(rand.NewSource(mockSeed(flags.seed)))
		start := time.Now().AddDate(0, 0, -3*flags.mock)
		return database.GenerateMockDraws(flags.mock, start, rng), nil
	default:
		logger.Warnf("No draw history given, using fallback features")
		return nil, nil
	}
}

func mockSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

type analysisProvider struct {
	opts []features.Option
}

func (p analysisProvider) Context(records []database.DrawRecord) *features.Context {
	return features.NewContext(records, p.opts...)
}

// featureProvider 不带缓存的特征上下文，按配置的近期窗口构建
func featureProvider(cfg config.Analysis) predictor.ContextProvider {
	return analysisProvider{opts: []features.Option{features.WithRecentWindow(cfg.RecentWindow)}}
}

func newImportCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <draws.csv>",
		Short: "Import draw history from CSV into MySQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := root.renderer(cmd)
			records, err := database.LoadDrawsCSV(args[0])
			if err != nil {
				return err
			}

			db, err := root.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			saved := 0
			for i := range records {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := db.SaveDrawRecord(&records[i]); err != nil {
					out.Warnf("Skipping issue %s: %v", records[i].Issue, err)
					continue
				}
				saved++
			}
			out.Successf("Imported %d of %d draws", saved, len(records))
			return nil
		},
	}
}

func newVerifyCmd(root *rootFlags) *cobra.Command {
	var front, back, date string

	cmd := &cobra.Command{
		Use:   "verify <issue>",
		Short: "Verify stored predictions against a draw",
		Long: `Verify the pending predictions of an issue. The draw is read from MySQL
unless --front and --back are given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			draw, err := resolveDraw(db, args[0], front, back, date)
			if err != nil {
				return err
			}

			summary, err := predictor.NewVerifier(db).VerifyDraw(draw)
			if err != nil {
				return err
			}
			root.renderer(cmd).Verification(summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&front, "front", "", `Drawn front numbers, e.g. "01 05 12 23 35"`)
	cmd.Flags().StringVar(&back, "back", "", `Drawn back numbers, e.g. "03 11"`)
	cmd.Flags().StringVar(&date, "date", "", "Draw date (YYYY-MM-DD)")
	return cmd
}

// resolveDraw 命令行给出号码时直接构造开奖记录，否则从数据库读取
func resolveDraw(db *database.MySQLDB, issue, front, back, date string) (*database.DrawRecord, error) {
	if front == "" && back == "" {
		draw, err := db.GetDrawByIssue(issue)
		if err != nil {
			return nil, err
		}
		if draw == nil {
			return nil, fmt.Errorf("draw %s not found, pass --front and --back", issue)
		}
		return draw, nil
	}

	draw := &database.DrawRecord{Issue: issue, DrawDate: time.Now()}
	var err error
	if draw.Front, err = database.ParseNumbers(front); err != nil {
		return nil, err
	}
	if draw.Back, err = database.ParseNumbers(back); err != nil {
		return nil, err
	}
	if date != "" {
		if draw.DrawDate, err = database.ParseDrawDate(date); err != nil {
			return nil, err
		}
	}
	if err := draw.Validate(); err != nil {
		return nil, err
	}
	return draw, nil
}

func newMockCmd(root *rootFlags) *cobra.Command {
	var count int
	var seed int64
	var outPath string

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Generate mock draw history as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			rng := rand.New(rand.NewSource(mockSeed(seed)))
			start := time.Now().AddDate(0, 0, -3*count)
			records := database.GenerateMockDraws(count, start, rng)

			if outPath == "" || outPath == "-" {
				return database.WriteDrawsCSV(cmd.OutOrStdout(), records)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer f.Close()
			if err := database.WriteDrawsCSV(f, records); err != nil {
				return err
			}
			root.renderer(cmd).Successf("Wrote %d mock draws to %s", len(records), outPath)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 100, "Number of draws")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 uses the current time")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output file, - for stdout")
	return cmd
}

func newServeCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the draw sync loop, the Telegram bot and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(root.configPath); err != nil {
				return fmt.Errorf("%w: %v", errMissingConfig, err)
			}

			app, err := NewApp(root.cfg)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}
