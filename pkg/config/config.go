package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultCredentialsFile is read from the working directory unless
// CREDENTIALS_FILE points elsewhere.
const DefaultCredentialsFile = "credentials.json"

type Config struct {
	Env     string
	OpsPort int

	Telegram TelegramConfig
	FTP      FTPConfig
	Remote   RemoteConfig
	Pages    PagesConfig
	Workers  WorkerConfig
	Log      LogConfig
}

// TelegramConfig carries bot credentials and the user allowlist. The first
// allowed user is the privileged one.
type TelegramConfig struct {
	Token        string   `validate:"required"`
	AllowedUsers []string `validate:"min=1"`
	PollTimeout  int
}

type FTPConfig struct {
	Host        string `validate:"required"`
	User        string `validate:"required"`
	Password    string
	DialTimeout time.Duration
}

// RemoteConfig pins the layout of the published artifacts on the store.
type RemoteConfig struct {
	Dir            string
	MenuJSONName   string
	TableIndexName string
	MenuBaseName   string
	TableSuffix    string
	TimeZone       string
	SpoolDir       string
	IndexBaseURL   string
}

// PagesConfig holds the public pages linked from success messages.
type PagesConfig struct {
	MenuPage  string `validate:"required,url"`
	TablePage string `validate:"required,url"`
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the credentials file plus environment overrides. A missing
// credentials file is fatal: the bot cannot do anything without it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultCredentialsFile
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.OpsPort = v.GetInt("OPS_PORT")

	cfg.Telegram = TelegramConfig{
		Token:        v.GetString("token"),
		AllowedUsers: v.GetStringSlice("allowedUsers"),
		PollTimeout:  v.GetInt("POLL_TIMEOUT"),
	}

	cfg.FTP = FTPConfig{
		Host:        v.GetString("host"),
		User:        v.GetString("user"),
		Password:    v.GetString("password"),
		DialTimeout: parseDuration(v.GetString("FTP_DIAL_TIMEOUT"), 10*time.Second),
	}

	cfg.Remote = RemoteConfig{
		Dir:            v.GetString("REMOTE_DIR"),
		MenuJSONName:   v.GetString("MENU_JSON_NAME"),
		TableIndexName: v.GetString("TABLE_INDEX_NAME"),
		MenuBaseName:   v.GetString("MENU_BASE_NAME"),
		TableSuffix:    v.GetString("TABLE_SUFFIX"),
		TimeZone:       v.GetString("TIME_ZONE"),
		SpoolDir:       v.GetString("SPOOL_DIR"),
		IndexBaseURL:   v.GetString("INDEX_BASE_URL"),
	}
	if cfg.Remote.IndexBaseURL == "" {
		cfg.Remote.IndexBaseURL = "http://" + hostOnly(cfg.FTP.Host)
	}

	cfg.Pages = PagesConfig{
		MenuPage:  v.GetString("menuPage"),
		TablePage: v.GetString("tablePage"),
	}

	cfg.Workers = WorkerConfig{
		Count:      v.GetInt("WORKER_COUNT"),
		BufferSize: v.GetInt("WORKER_BUFFER"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PrivilegedUser is the only user allowed to run destructive commands.
func (c *Config) PrivilegedUser() string {
	if len(c.Telegram.AllowedUsers) == 0 {
		return ""
	}
	return c.Telegram.AllowedUsers[0]
}

func validate(cfg *Config) error {
	if len(cfg.Telegram.AllowedUsers) == 0 {
		return fmt.Errorf("allowedUsers must name at least one telegram username")
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("OPS_PORT", 8080)

	v.SetDefault("POLL_TIMEOUT", 30)
	v.SetDefault("FTP_DIAL_TIMEOUT", "10s")

	v.SetDefault("REMOTE_DIR", "/food/")
	v.SetDefault("MENU_JSON_NAME", "menu.json")
	v.SetDefault("TABLE_INDEX_NAME", "food_files.json")
	v.SetDefault("MENU_BASE_NAME", "menu")
	v.SetDefault("TABLE_SUFFIX", "-sm.xlsx")
	v.SetDefault("TIME_ZONE", "Europe/Moscow")
	v.SetDefault("SPOOL_DIR", "./spool")
	v.SetDefault("INDEX_BASE_URL", "")

	v.SetDefault("WORKER_COUNT", 4)
	v.SetDefault("WORKER_BUFFER", 16)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
