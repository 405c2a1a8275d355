package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Predict   PredictConfig
	Chat      ChatConfig
	Dashboard DashboardConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           int
	APIToken       string
	AllowedOrigins []string
	MCPEnabled     bool
}

type PredictConfig struct {
	BaseURL    string
	UseProfile bool
}

type ChatConfig struct {
	BaseURL string
	Model   string
}

type DashboardConfig struct {
	RevealInterval time.Duration
}

type HTTPConfig struct {
	Timeout time.Duration
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           4100,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Predict: PredictConfig{
			BaseURL:    "http://localhost:8000",
			UseProfile: true,
		},
		Chat: ChatConfig{
			BaseURL: "http://localhost:8000",
			Model:   "llama-3.2-90b-vision-preview",
		},
		Dashboard: DashboardConfig{
			RevealInterval: 800 * time.Millisecond,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/careerdash/config.json, then applies environment
// overrides (CAREERDASH_*). A .env file in the working directory, when
// present, is loaded into the environment first; variables already set win.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	var problems []string
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", cfg.Server.Port))
	}
	if cfg.Predict.BaseURL == "" {
		problems = append(problems, "predict.base_url is empty")
	}
	if cfg.Chat.BaseURL == "" {
		problems = append(problems, "chat.base_url is empty")
	}
	if cfg.Dashboard.RevealInterval <= 0 {
		problems = append(problems, "dashboard.reveal_interval must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
