package config

import (
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"strconv"
	"strings"
	"sync"
	"time"
)

var once sync.Once

// Settings is the immutable runtime configuration, read once at startup
type Settings struct {
	TelegramToken    string
	ChatID           int64
	CheckInterval    time.Duration
	Threshold        float64
	ChartDays        int
	HTTPTimeout      time.Duration
	PriceSource      string
	CoinGeckoBaseURL string
	APIProKey        string
	ImageDir         string
	ChartFont        string
	HistorySize      int
	StartupAttempts  int
	DBPath           string
	MetricsPort      int
	Debug            bool
	LogLevel         string
	Lang             string
}

func InitConfig() {
	once.Do(func() {
		// a missing .env is fine, the environment alone is enough
		_ = godotenv.Load(".env")

		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN", "BOT_TOKEN")
		viper.BindEnv("chat_id", "CHAT_ID")
		viper.BindEnv("check_interval", "CHECK_INTERVAL")
		viper.BindEnv("threshold", "THRESHOLD")
		viper.BindEnv("chart_days", "CHART_DAYS")
		viper.BindEnv("http_timeout", "HTTP_TIMEOUT")
		viper.BindEnv("price_source", "PRICE_SOURCE")
		viper.BindEnv("coingecko_base_url", "COINGECKO_BASE_URL")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("image_dir", "IMAGE_DIR")
		viper.BindEnv("chart_font", "CHART_FONT")
		viper.BindEnv("history_size", "HISTORY_SIZE")
		viper.BindEnv("startup_attempts", "STARTUP_ATTEMPTS")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("log_level", "LOG_LEVEL")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("check_interval", 333*time.Second)
		viper.SetDefault("threshold", 5.00)
		viper.SetDefault("chart_days", 1)
		viper.SetDefault("http_timeout", 10*time.Second)
		viper.SetDefault("price_source", "coingecko")
		viper.SetDefault("coingecko_base_url", "https://api.coingecko.com/api/v3")
		viper.SetDefault("image_dir", "img")
		viper.SetDefault("history_size", 512)
		viper.SetDefault("startup_attempts", 3)
		viper.SetDefault("db_path", "data/bot.db")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("log_level", "info")
		viper.SetDefault("lang", "en")
	})
}

// Load reads every setting and validates the ones the bot cannot run without
func Load() (Settings, error) {
	InitConfig()

	s := Settings{
		TelegramToken:    GetString("telegram_bot_token"),
		ChatID:           GetInt64("chat_id"),
		CheckInterval:    GetDuration("check_interval"),
		Threshold:        GetFloat64("threshold"),
		ChartDays:        GetInt("chart_days"),
		HTTPTimeout:      GetDuration("http_timeout"),
		PriceSource:      GetString("price_source"),
		CoinGeckoBaseURL: GetString("coingecko_base_url"),
		APIProKey:        GetString("api_pro_key"),
		ImageDir:         GetString("image_dir"),
		ChartFont:        GetString("chart_font"),
		HistorySize:      GetInt("history_size"),
		StartupAttempts:  GetInt("startup_attempts"),
		DBPath:           GetString("db_path"),
		MetricsPort:      GetInt("metrics_port"),
		Debug:            GetBool("debug"),
		LogLevel:         GetString("log_level"),
		Lang:             GetString("lang"),
	}

	return s, s.Validate()
}

// durationSetting accepts Go durations ("5m30s") and bare numbers, read as seconds
func durationSetting(key string) time.Duration {
	raw := strings.TrimSpace(viper.GetString(key))
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return viper.GetDuration(key)
}

// Validate checks required values and ranges
func (s Settings) Validate() error {
	if s.TelegramToken == "" {
		return errors.New("telegram_bot_token is required")
	}
	if s.ChatID == 0 {
		return errors.New("chat_id is required")
	}
	if s.CheckInterval <= 0 {
		return errors.Errorf("check_interval must be positive, got %s", s.CheckInterval)
	}
	if s.Threshold <= 0 {
		return errors.Errorf("threshold must be positive, got %v", s.Threshold)
	}
	if s.ChartDays <= 0 {
		return errors.Errorf("chart_days must be positive, got %d", s.ChartDays)
	}
	if s.HTTPTimeout <= 0 {
		return errors.Errorf("http_timeout must be positive, got %s", s.HTTPTimeout)
	}
	switch s.PriceSource {
	case "coingecko", "coinpaprika":
	default:
		return errors.Errorf("unknown price_source %q", s.PriceSource)
	}
	return nil
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetFloat64(key string) float64 {
	InitConfig()
	return viper.GetFloat64(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return durationSetting(key)
}
