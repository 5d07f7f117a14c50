package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"dip_bot/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatIDTelegramENV = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	upbitAccessENV    = "UPBIT_ACCESS_KEY"
	upbitSecretENV    = "UPBIT_SECRET_KEY"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Upbit struct {
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		BaseURL   string `yaml:"base_url"`
		WSURL     string `yaml:"ws_url"`
	} `yaml:"upbit"`

	// Торгуем одну пару, например "KRW-BTC".
	Market string `yaml:"market"`

	// Параметры лесенки. Загружаются один раз, дальше не мутируют.
	Strategy struct {
		MinDip               float64 `yaml:"min_dip"`   // % от цены открытия
		MaxDip               float64 `yaml:"max_dip"`   // minDip <= maxDip
		DipStep              float64 `yaml:"dip_step"`  // шаг между ступенями, > 0
		BaseQuoteAmount      float64 `yaml:"base_quote_amount"`      // KRW на первую ступень
		QuoteAmountIncrement float64 `yaml:"quote_amount_increment"` // добавка на каждую следующую
		PriceTickSize        float64 `yaml:"price_tick_size"`        // шаг цены биржи
	} `yaml:"strategy"`

	Schedule struct {
		Start        string        `yaml:"start"`    // "00:15" — размещение лесенки
		End          string        `yaml:"end"`      // "23:45" — отмена и отчёт
		Timezone     string        `yaml:"timezone"` // "UTC"
		BoundaryPoll time.Duration `yaml:"boundary_poll"` // как часто проверяем границы дня
		FillPoll     time.Duration `yaml:"fill_poll"`     // как часто опрашиваем исполнения
		TickTimeout  time.Duration `yaml:"tick_timeout"`  // бюджет одного тика, меньше интервала
	} `yaml:"schedule"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		Market: getenvDefault("MARKET", "KRW-BTC"),
	}
	config.Strategy.MinDip = floatFromEnv("MIN_DIP", 1)
	config.Strategy.MaxDip = floatFromEnv("MAX_DIP", 10)
	config.Strategy.DipStep = floatFromEnv("DIP_STEP", 1)
	config.Strategy.BaseQuoteAmount = floatFromEnv("BASE_QUOTE_AMOUNT", 6000)
	config.Strategy.QuoteAmountIncrement = floatFromEnv("QUOTE_AMOUNT_INCREMENT", 1000)
	config.Strategy.PriceTickSize = floatFromEnv("PRICE_TICK_SIZE", 1000)
	config.Schedule.Start = getenvDefault("START_TIME", "00:15")
	config.Schedule.End = getenvDefault("END_TIME", "23:45")
	config.Schedule.Timezone = getenvDefault("TIMEZONE", "UTC")
	config.Schedule.BoundaryPoll = durationFromEnv("BOUNDARY_POLL", "30s")
	config.Schedule.FillPoll = durationFromEnv("FILL_POLL", "45s")
	config.Schedule.TickTimeout = durationFromEnv("TICK_TIMEOUT", "20s")
	config.Upbit.BaseURL = getenvDefault("UPBIT_BASE_URL", "https://api.upbit.com")
	config.Upbit.WSURL = getenvDefault("UPBIT_WS_URL", "wss://api.upbit.com/websocket/v1")
	config.Health.Addr = getenvDefault("HEALTH_ADDR", ":8080")

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv(chatIDTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}
	if v := os.Getenv(upbitAccessENV); v != "" {
		config.Upbit.AccessKey = v
	}
	if v := os.Getenv(upbitSecretENV); v != "" {
		config.Upbit.SecretKey = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate — InvalidConfiguration фатальна: с кривыми параметрами не стартуем.
func (c *Config) Validate() error {
	s := c.Strategy
	for name, v := range map[string]float64{
		"min_dip": s.MinDip, "max_dip": s.MaxDip, "dip_step": s.DipStep,
		"base_quote_amount":      s.BaseQuoteAmount,
		"quote_amount_increment": s.QuoteAmountIncrement,
		"price_tick_size":        s.PriceTickSize,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: strategy.%s is not finite", models.ErrInvalidConfiguration, name)
		}
	}
	if s.MinDip > s.MaxDip {
		return fmt.Errorf("%w: min_dip %v > max_dip %v", models.ErrInvalidConfiguration, s.MinDip, s.MaxDip)
	}
	if s.DipStep <= 0 {
		return fmt.Errorf("%w: dip_step must be > 0", models.ErrInvalidConfiguration)
	}
	if s.BaseQuoteAmount <= 0 {
		return fmt.Errorf("%w: base_quote_amount must be > 0", models.ErrInvalidConfiguration)
	}
	if s.QuoteAmountIncrement < 0 {
		return fmt.Errorf("%w: quote_amount_increment must be >= 0", models.ErrInvalidConfiguration)
	}
	if s.PriceTickSize <= 0 {
		return fmt.Errorf("%w: price_tick_size must be > 0", models.ErrInvalidConfiguration)
	}

	startH, startM, err := parseClock(c.Schedule.Start)
	if err != nil {
		return fmt.Errorf("%w: schedule.start: %v", models.ErrInvalidConfiguration, err)
	}
	endH, endM, err := parseClock(c.Schedule.End)
	if err != nil {
		return fmt.Errorf("%w: schedule.end: %v", models.ErrInvalidConfiguration, err)
	}
	// Конец дня строго раньше следующего старта: между ними blackout-пауза,
	// чтобы цикл отмены не пересёкся с размещением следующего дня.
	if endH*60+endM <= startH*60+startM {
		return fmt.Errorf("%w: schedule.end %s must be after schedule.start %s",
			models.ErrInvalidConfiguration, c.Schedule.End, c.Schedule.Start)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("%w: schedule.timezone: %v", models.ErrInvalidConfiguration, err)
	}
	if c.Schedule.TickTimeout >= c.Schedule.BoundaryPoll || c.Schedule.TickTimeout >= c.Schedule.FillPoll {
		return fmt.Errorf("%w: tick_timeout must be shorter than poll intervals", models.ErrInvalidConfiguration)
	}
	return nil
}

// StartClock возвращает часы и минуты дневной границы старта.
func (c *Config) StartClock() (int, int) {
	h, m, _ := parseClock(c.Schedule.Start)
	return h, m
}

// EndClock возвращает часы и минуты дневной границы завершения.
func (c *Config) EndClock() (int, int) {
	h, m, _ := parseClock(c.Schedule.End)
	return h, m
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseClock(v string) (int, int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
