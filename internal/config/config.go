package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

// Config 应用程序配置结构
type Config struct {
	Database   Database   `yaml:"database"`
	Telegram   Telegram   `yaml:"telegram"`
	API        API        `yaml:"api"`
	App        App        `yaml:"app"`
	Prediction Prediction `yaml:"prediction"`
	Analysis   Analysis   `yaml:"analysis"`
}

// Database 数据库配置
type Database struct {
	Host            string        `yaml:"host" default:"127.0.0.1"`
	Port            int           `yaml:"port" default:"3306" validate:"min=1,max=65535"`
	Username        string        `yaml:"username"`
	Database        string        `yaml:"database" default:"dlt"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"10" validate:"min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5" validate:"min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"1h"`
}

// Telegram Bot配置
type Telegram struct {
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout" default:"60s"`
}

// API 开奖数据源配置
type API struct {
	URL        string        `yaml:"url" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" default:"10s"`
	RetryCount int           `yaml:"retry_count" default:"3" validate:"min=0,max=10"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"2s"`
}

// App 应用程序配置
type App struct {
	PollingInterval time.Duration `yaml:"polling_interval" default:"5m"`
	LogLevel        string        `yaml:"log_level" default:"info" validate:"oneof=debug info warn warning error"`
	HistoryLimit    int           `yaml:"history_limit" default:"500" validate:"min=1"`
	MetricsAddr     string        `yaml:"metrics_addr" default:":9090"`
}

// Prediction 预测参数
type Prediction struct {
	Mode             string        `yaml:"mode" default:"single" validate:"oneof=single compound"`
	Count            int           `yaml:"count" default:"5" validate:"min=1,max=100"`
	FrontCount       int           `yaml:"front_count" default:"5" validate:"min=5,max=35"`
	BackCount        int           `yaml:"back_count" default:"2" validate:"min=2,max=12"`
	MaxFrontAttempts int           `yaml:"max_front_attempts" default:"500" validate:"min=1"`
	MaxBackAttempts  int           `yaml:"max_back_attempts" default:"200" validate:"min=1"`
	StepDelay        time.Duration `yaml:"step_delay"`
	Toggles          Toggles       `yaml:"toggles"`
	Tickets          TicketFiles   `yaml:"tickets"`
}

// Toggles 智能分析开关
type Toggles struct {
	PurchasedAnalysis bool `yaml:"purchased_analysis" json:"purchasedAnalysis"`
	GuaranteeWin      bool `yaml:"guarantee_win" json:"guaranteeWin"`
	RemoveNonWinning  bool `yaml:"remove_non_winning" json:"removeNonWinning"`
}

// TicketFiles 购票数据文件
type TicketFiles struct {
	Single     string `yaml:"single"`
	Compound   string `yaml:"compound"`
	NonWinning string `yaml:"non_winning"`
}

// Analysis 特征分析参数
type Analysis struct {
	RecentWindow     int           `yaml:"recent_window" default:"30" validate:"min=1,max=500"`
	FeatureCacheTTL  time.Duration `yaml:"feature_cache_ttl" default:"30m"`
	FeatureCacheSize int           `yaml:"feature_cache_size" default:"16" validate:"min=1"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse 解析YAML配置并填充默认值
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default 返回全部默认值的配置
func Default() *Config {
	var config Config
	if err := defaults.Set(&config); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &config
}

// GetDSN 获取数据库连接字符串
func (d *Database) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}
