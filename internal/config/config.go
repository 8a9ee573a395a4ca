package config

import (
	"os"
	"strconv"
	"strings"

	"offerwall/internal/logger"

	"github.com/joho/godotenv"
)

// ProviderCredentials holds per-network CPA credentials. A provider with an
// empty API key or publisher ID is treated as not configured.
type ProviderCredentials struct {
	APIKey         string
	PublisherID    string
	PostbackSecret string
}

type Config struct {
	AppPort     string
	DatabaseURL string
	RedisAddr   string
	RedisPass   string
	RedisDB     int

	BotToken    string
	BotUsername string
	JWTSecret   string

	// CPA networks
	CPAGrip       ProviderCredentials
	OGAds         ProviderCredentials
	AdGate        ProviderCredentials
	MarginPercent int     // platform share of the network payout
	TonUSDRate    float64 // used when converting network payouts to nano

	// Withdrawals
	WithdrawalsEnabled bool
	MinWithdrawalNano  int64
	DailyCapNano       int64

	// TON chain access
	TonNetwork string
	TonAPIKey  string

	// IP intelligence
	IPIntelURL string
	IPIntelKey string

	// Offer sync
	OfferSyncSpec string

	// IP rate limit for unauthenticated traffic
	APIRateLimit  int
	APIRateWindow int // seconds

	AdminTelegramIDs []int64
}

// Load reads configuration from the environment. Required variables are
// fatal when missing.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	cfg := &Config{
		AppPort:     envOr("APP_PORT", "8080"),
		DatabaseURL: dbURL,
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:     envInt("REDIS_DB", 0),

		BotToken:    botToken,
		BotUsername: envOr("BOT_USERNAME", "OfferwallBot"),
		JWTSecret:   jwtSecret,

		CPAGrip: ProviderCredentials{
			APIKey:         os.Getenv("CPAGRIP_API_KEY"),
			PublisherID:    os.Getenv("CPAGRIP_PUBLISHER_ID"),
			PostbackSecret: os.Getenv("CPAGRIP_POSTBACK_SECRET"),
		},
		OGAds: ProviderCredentials{
			APIKey:         os.Getenv("OGADS_API_KEY"),
			PublisherID:    os.Getenv("OGADS_PUBLISHER_ID"),
			PostbackSecret: os.Getenv("OGADS_POSTBACK_SECRET"),
		},
		AdGate: ProviderCredentials{
			APIKey:         os.Getenv("ADGATE_API_KEY"),
			PublisherID:    os.Getenv("ADGATE_PUBLISHER_ID"),
			PostbackSecret: os.Getenv("ADGATE_POSTBACK_SECRET"),
		},
		MarginPercent: envInt("CPA_MARGIN_PERCENT", 55),
		TonUSDRate:    envFloat("TON_USD_RATE", 2.0),

		WithdrawalsEnabled: os.Getenv("ENABLE_WITHDRAWALS") != "false",
		MinWithdrawalNano:  envInt64("MIN_WITHDRAWAL_NANO", 1_000_000_000),
		DailyCapNano:       envInt64("WITHDRAWAL_DAILY_CAP_NANO", 10_000_000_000),

		TonNetwork: envOr("TON_NETWORK", "mainnet"),
		TonAPIKey:  os.Getenv("TONAPI_KEY"),

		IPIntelURL: os.Getenv("IPINTEL_URL"),
		IPIntelKey: os.Getenv("IPINTEL_API_KEY"),

		OfferSyncSpec: envOr("OFFER_SYNC_CRON", "@every 30m"),

		APIRateLimit:  envInt("API_RATE_LIMIT", 60),
		APIRateWindow: envInt("API_RATE_WINDOW_SECONDS", 60),
	}

	if idsStr := os.Getenv("ADMIN_TELEGRAM_IDS"); idsStr != "" {
		for _, idStr := range strings.Split(idsStr, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64); err == nil {
				cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
			}
		}
	}

	if cfg.MarginPercent < 0 || cfg.MarginPercent > 100 {
		logger.Fatal("CPA_MARGIN_PERCENT must be within [0,100]", "value", cfg.MarginPercent)
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
