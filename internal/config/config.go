package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Neo4j     Neo4jConfig     `mapstructure:"neo4j"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	LLM       LLMConfig       `mapstructure:"llm"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	APIKey          string        `mapstructure:"api_key"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Store drivers
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// StoreConfig selects the risk profile backend
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	// SeedCommunity loads the known scam number list into the shared profile at startup.
	SeedCommunity bool `mapstructure:"seed_community"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	ApprovalTTL time.Duration `mapstructure:"approval_ttl"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type Neo4jConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type NATSConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	StreamName    string `mapstructure:"stream_name"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// NotifyConfig configures the family alerter. URLs use shoutrrr service syntax,
// e.g. telegram://token@telegram?chats=@family
type NotifyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URLs    []string      `mapstructure:"urls"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScoringConfig holds the tunable inputs of the transaction scorer
type ScoringConfig struct {
	HighAmountThreshold    float64  `mapstructure:"high_amount_threshold"`
	ApprovalScoreThreshold int      `mapstructure:"approval_score_threshold"`
	FamilyAllowlist        []string `mapstructure:"family_allowlist"`
	FamilyRelationTerms    []string `mapstructure:"family_relation_terms"`
	CommunityProfileID     string   `mapstructure:"community_profile_id"`
}

// LLM providers accepted for narration
const (
	LLMProviderOllama = "ollama"
	LLMProviderGemini = "gemini"
)

type LLMConfig struct {
	// Enabled routes intent classification and narration through the model.
	// When off, the rule-based router is used and no narration is produced.
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SetDefaults registers every default so the service runs without a config file
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dhankavach")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "0.1.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("store.driver", StoreDriverSQLite)
	v.SetDefault("store.sqlite_path", "./data/dhankavach.db")
	v.SetDefault("store.seed_community", true)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dhankavach")
	v.SetDefault("database.dbname", "dhankavach")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "dhankavach:")
	v.SetDefault("redis.approval_ttl", 72*time.Hour)

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("nats.stream_name", "DHANKAVACH_EVENTS")
	v.SetDefault("nats.subject_prefix", "dhankavach")

	v.SetDefault("notify.timeout", 10*time.Second)

	v.SetDefault("scoring.high_amount_threshold", 10000)
	v.SetDefault("scoring.approval_score_threshold", 5)
	v.SetDefault("scoring.family_relation_terms", DefaultFamilyRelationTerms)
	v.SetDefault("scoring.community_profile_id", "community")

	v.SetDefault("llm.provider", LLMProviderOllama)
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.timeout", "20s")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.requests_per_minute", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// DefaultFamilyRelationTerms mark a recipient label as a family member
var DefaultFamilyRelationTerms = []string{
	"daughter", "son", "wife", "husband", "mother", "father", "brother", "sister",
	"beti", "beta", "mummy", "papa", "bhai", "didi", "maa",
	"बेटी", "बेटा", "पत्नी", "पति", "माँ", "पापा", "भाई", "दीदी",
}

// Load reads configuration from file and environment variables.
// A missing config file is not an error; defaults and env cover everything.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/dhankavach")
	}

	v.SetEnvPrefix("DHANKAVACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// viper doesn't auto-bind nested struct fields
	_ = v.BindEnv("store.driver", "DHANKAVACH_STORE_DRIVER")
	_ = v.BindEnv("store.sqlite_path", "DHANKAVACH_STORE_SQLITE_PATH")
	_ = v.BindEnv("database.host", "DHANKAVACH_DATABASE_HOST")
	_ = v.BindEnv("database.password", "DHANKAVACH_DATABASE_PASSWORD")
	_ = v.BindEnv("redis.enabled", "DHANKAVACH_REDIS_ENABLED")
	_ = v.BindEnv("redis.host", "DHANKAVACH_REDIS_HOST")
	_ = v.BindEnv("redis.password", "DHANKAVACH_REDIS_PASSWORD")
	_ = v.BindEnv("nats.enabled", "DHANKAVACH_NATS_ENABLED")
	_ = v.BindEnv("nats.url", "DHANKAVACH_NATS_URL")
	_ = v.BindEnv("neo4j.enabled", "DHANKAVACH_NEO4J_ENABLED")
	_ = v.BindEnv("neo4j.password", "DHANKAVACH_NEO4J_PASSWORD")
	_ = v.BindEnv("server.api_key", "DHANKAVACH_SERVER_API_KEY")
	_ = v.BindEnv("app.environment", "DHANKAVACH_APP_ENVIRONMENT")
	// GOOGLE_API_KEY and DHANKAVACH_MODEL are accepted for existing deployments
	_ = v.BindEnv("llm.enabled", "DHANKAVACH_LLM_ENABLED")
	_ = v.BindEnv("llm.provider", "DHANKAVACH_LLM_PROVIDER", "DHANKAVACH_MODEL")
	_ = v.BindEnv("llm.api_key", "DHANKAVACH_LLM_API_KEY", "GOOGLE_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

// Validate reports configuration that must stop the process at startup
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case LLMProviderOllama:
	case LLMProviderGemini:
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q (expected %q or %q)",
			c.LLM.Provider, LLMProviderOllama, LLMProviderGemini))
	}

	switch c.Store.Driver {
	case StoreDriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	if c.Scoring.HighAmountThreshold <= 0 {
		errs = append(errs, errors.New("scoring.high_amount_threshold must be positive"))
	}
	if c.Scoring.ApprovalScoreThreshold <= 0 || c.Scoring.ApprovalScoreThreshold > 10 {
		errs = append(errs, errors.New("scoring.approval_score_threshold must be within 1..10"))
	}
	if c.Notify.Enabled && len(c.Notify.URLs) == 0 {
		errs = append(errs, errors.New("notify.urls must not be empty when notify is enabled"))
	}

	return errors.Join(errs...)
}
