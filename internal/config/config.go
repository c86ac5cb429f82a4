// Package config собирает конфигурацию CLI из окружения, .env файла и флагов.
//
// Конфигурация читается один раз при старте и дальше не меняется.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix — префикс переменных окружения (N8N_API_KEY, N8N_API_URL, ...).
	EnvPrefix = "N8N"

	// DefaultAPIURL — инстанс n8n по умолчанию.
	DefaultAPIURL = "https://n8n.blaze.money"

	// DefaultWorkflow — документ, который деплоится без аргументов.
	DefaultWorkflow = "docs/agentic-workflows/n8n-workflows/bug-investigation-template.json"

	// DefaultEnvFile — .env файл, который читается, если существует.
	DefaultEnvFile = ".env"
)

// Имена флагов, которые переопределяют переменные окружения.
const (
	FlagAPIURL      = "api-url"
	FlagWorkflowDir = "workflow-dir"
	FlagMetricsFile = "metrics-file"
	FlagTimeout     = "timeout"
	FlagJSON        = "json"
	FlagEnvFile     = "env-file"
)

// flagKeys — соответствие ключей viper флагам.
var flagKeys = map[string]string{
	"api_url":      FlagAPIURL,
	"workflow_dir": FlagWorkflowDir,
	"metrics_file": FlagMetricsFile,
	"timeout":      FlagTimeout,
	"json":         FlagJSON,
}

// ErrMissingAPIKey — не задан N8N_API_KEY.
var ErrMissingAPIKey = errors.New("N8N_API_KEY environment variable is required")

// Error — ошибка конфигурации.
type Error struct {
	Key  string // переменная окружения или флаг
	Hint string // подсказка для оператора
	Err  error
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap возвращает базовую ошибку.
func (e *Error) Unwrap() error {
	return e.Err
}

// Config — конфигурация CLI.
type Config struct {
	APIURL          string        `mapstructure:"api_url"`
	APIKey          string        `mapstructure:"api_key"`
	WorkflowDir     string        `mapstructure:"workflow_dir"`
	DefaultWorkflow string        `mapstructure:"default_workflow"`
	MetricsFile     string        `mapstructure:"metrics_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
	JSON            bool          `mapstructure:"json"`
}

// RegisterFlags добавляет флаги конфигурации в набор (обычно PersistentFlags корневой команды).
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagAPIURL, "", "n8n instance URL (overrides N8N_API_URL)")
	flags.String(FlagWorkflowDir, "", "Base directory for relative workflow paths (overrides N8N_WORKFLOW_DIR)")
	flags.String(FlagMetricsFile, "", "Write Prometheus metrics to this file on exit")
	flags.Duration(FlagTimeout, 0, "HTTP request timeout, 0 means none")
	flags.Bool(FlagJSON, false, "Output in JSON format")
	flags.String(FlagEnvFile, "", "Load environment from this file (default .env if present)")
}

// Load читает конфигурацию.
//
// Приоритет: флаги > переменные окружения > .env > значения по умолчанию.
// flags может быть nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(flags); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("workflow_dir", ".")
	v.SetDefault("default_workflow", DefaultWorkflow)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("json", false)
	for _, key := range []string{"api_key", "metrics_file"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Key: "config", Err: err}
	}

	cfg.APIURL = normalizeURL(cfg.APIURL)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.WorkflowDir == "" {
		cfg.WorkflowDir = "."
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.APIKey == "" {
		return nil, &Error{
			Key:  EnvPrefix + "_API_KEY",
			Hint: fmt.Sprintf("get your API key from %s/settings/api, then run: export N8N_API_KEY=\"your-key-here\"", cfg.APIURL),
			Err:  ErrMissingAPIKey,
		}
	}

	return &cfg, nil
}

// loadEnvFile подгружает .env. Уже заданные переменные окружения не перезаписываются.
// Отсутствие файла по умолчанию — не ошибка; явно указанного — ошибка.
func loadEnvFile(flags *pflag.FlagSet) error {
	path := ""
	if flags != nil {
		if f := flags.Lookup(FlagEnvFile); f != nil {
			path = f.Value.String()
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &Error{Key: FlagEnvFile, Err: fmt.Errorf("load env file %s: %w", path, err)}
	}
	return nil
}

// normalizeURL убирает пробелы и завершающий слэш.
func normalizeURL(input string) string {
	return strings.TrimRight(strings.TrimSpace(input), "/")
}
