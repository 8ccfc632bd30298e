package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string
	Env  string

	PostgresConnStr string
	MongoURI        string
	MemoryDBPath    string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIEmbedModel string
	EmbedDimensions  int

	NTPAddr    string
	NTPTimeout time.Duration

	RateMaxReactions int
	RateWindow       time.Duration

	CascadeMaxDepth int
	PulseCron       string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MemoryDBPath:    getEnv("MEMORY_DB_PATH", "./persona_memory.db"),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEmbedModel: getEnv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		EmbedDimensions:  getEnvInt("EMBED_DIMENSIONS", 1536),

		NTPAddr:    getEnv("NTP_ADDR", "pool.ntp.org:123"),
		NTPTimeout: time.Duration(getEnvInt("NTP_TIMEOUT_MS", 3000)) * time.Millisecond,

		RateMaxReactions: getEnvInt("RATE_MAX_REACTIONS", 10),
		RateWindow:       time.Duration(getEnvInt("RATE_WINDOW_MINUTES", 10)) * time.Minute,

		CascadeMaxDepth: getEnvInt("CASCADE_MAX_DEPTH", 8),
		PulseCron:       getEnv("PULSE_CRON", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
