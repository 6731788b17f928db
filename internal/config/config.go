package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Reply modes for chats that already finalized their order
const (
	FinalizedReplyNotice = "notice"
	FinalizedReplySilent = "silent"
)

// Config holds everything read from the environment at startup
type Config struct {
	Port                     string
	Environment              string
	DisableWebhookValidation bool
	PublicURL                string // used to rebuild webhook URLs for signature checks
	AdminToken               string

	BotIdentity      string
	AllowedChats     []string
	FinalizeKeyword  string // empty means "use the message catalog's keyword"
	FinalizedReply   string
	GreetingDelay    time.Duration
	ExtractorTimeout time.Duration
	MessagesFile     string

	UseMemoryStore bool

	LLM      LLMConfig
	Database DatabaseConfig
	Twilio   TwilioConfig
}

// LLMConfig configures the OpenAI-compatible extraction endpoint
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// DatabaseConfig configures the PostgreSQL order archive
type DatabaseConfig struct {
	User                   string
	Password               string
	Name                   string
	Host                   string
	Port                   string
	InstanceConnectionName string // Cloud SQL socket connection
}

// TwilioConfig holds WhatsApp sender credentials
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string // Format: "whatsapp:+14155238886"
}

// Configured reports whether all Twilio credentials are present
func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.WhatsAppFrom != ""
}

// LoadEnvFiles loads the first .env file found. Missing files are not an error;
// variables already set in the environment win.
func LoadEnvFiles(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{".env", "environments/.env.development"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	log.Println("⚠️  No .env file found - checking environment variables")
	return ""
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:                     withDefault(getenv("PORT"), "8080"),
		Environment:              withDefault(getenv("ENVIRONMENT"), "production"),
		DisableWebhookValidation: getenv("DISABLE_WEBHOOK_VALIDATION") == "true",
		PublicURL:                strings.TrimRight(strings.TrimSpace(getenv("PUBLIC_URL")), "/"),
		AdminToken:               strings.TrimSpace(getenv("ADMIN_TOKEN")),
		BotIdentity:              NormalizeChatID(getenv("BOT_IDENTITY")),
		AllowedChats:             splitList(getenv("ALLOWED_CHATS")),
		FinalizeKeyword:          strings.TrimSpace(getenv("FINALIZE_KEYWORD")),
		FinalizedReply:           withDefault(strings.ToLower(strings.TrimSpace(getenv("FINALIZED_REPLY"))), FinalizedReplyNotice),
		MessagesFile:             strings.TrimSpace(getenv("MESSAGES_FILE")),
		UseMemoryStore:           getenv("USE_MEMORY_STORE") == "true",
		LLM: LLMConfig{
			BaseURL: withDefault(getenv("LLM_BASE_URL"), "http://localhost:1234/v1"),
			Model:   withDefault(getenv("LLM_MODEL"), "local-model"),
			APIKey:  withDefault(getenv("LLM_API_KEY"), "not-needed"),
		},
		Database: DatabaseConfig{
			User:                   withDefault(getenv("DB_USER"), "postgres"),
			Password:               getenv("DB_PASS"),
			Name:                   withDefault(getenv("DB_NAME"), "orderbot"),
			Host:                   withDefault(getenv("DB_HOST"), "localhost"),
			Port:                   withDefault(getenv("DB_PORT"), "5432"),
			InstanceConnectionName: getenv("INSTANCE_CONNECTION_NAME"),
		},
		Twilio: TwilioConfig{
			AccountSID:   getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:    getenv("TWILIO_AUTH_TOKEN"),
			WhatsAppFrom: getenv("TWILIO_WHATSAPP_FROM"),
		},
	}

	var err error
	if cfg.GreetingDelay, err = durationEnv(getenv, "GREETING_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.ExtractorTimeout, err = durationEnv(getenv, "EXTRACTOR_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.LLM.Temperature, err = floatEnv(getenv, "LLM_TEMPERATURE", 0.1); err != nil {
		return nil, err
	}
	if cfg.LLM.MaxTokens, err = intEnv(getenv, "LLM_MAX_TOKENS", 500); err != nil {
		return nil, err
	}

	if cfg.FinalizedReply != FinalizedReplyNotice && cfg.FinalizedReply != FinalizedReplySilent {
		return nil, fmt.Errorf("config: FINALIZED_REPLY must be %q or %q, got %q", FinalizedReplyNotice, FinalizedReplySilent, cfg.FinalizedReply)
	}
	if cfg.ExtractorTimeout <= 0 {
		return nil, fmt.Errorf("config: EXTRACTOR_TIMEOUT must be positive")
	}
	if cfg.GreetingDelay < 0 {
		return nil, fmt.Errorf("config: GREETING_DELAY must not be negative")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in local development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// NormalizeChatID strips the transport prefix and surrounding whitespace
// so identities from config and webhooks compare equal
func NormalizeChatID(id string) string {
	id = strings.TrimSpace(id)
	return strings.TrimPrefix(id, "whatsapp:")
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if id := NormalizeChatID(part); id != "" {
			items = append(items, id)
		}
	}
	return items
}

func withDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func floatEnv(getenv func(string) string, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return f, nil
}
