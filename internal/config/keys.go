package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kDuration
	kList
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "CAREERDASH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "CAREERDASH_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "server.allowed_origins", typ: kList, env: "CAREERDASH_SERVER_ALLOWED_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.AllowedOrigins = v.([]string) },
		extract: func(cfg Config) any { return strings.Join(cfg.Server.AllowedOrigins, ",") },
	},
	{
		key: "server.mcp_enabled", typ: kBool, env: "CAREERDASH_SERVER_MCP_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Server.MCPEnabled },
	},
	{
		key: "predict.base_url", typ: kString, env: "CAREERDASH_PREDICT_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Predict.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Predict.BaseURL },
	},
	{
		key: "predict.use_profile", typ: kBool, env: "CAREERDASH_PREDICT_USE_PROFILE",
		apply:   func(cfg *Config, v any) { cfg.Predict.UseProfile = v.(bool) },
		extract: func(cfg Config) any { return cfg.Predict.UseProfile },
	},
	{
		key: "chat.base_url", typ: kString, env: "CAREERDASH_CHAT_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Chat.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.BaseURL },
	},
	{
		key: "chat.model", typ: kString, env: "CAREERDASH_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Chat.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Model },
	},
	{
		key: "dashboard.reveal_interval", typ: kDuration, env: "CAREERDASH_DASHBOARD_REVEAL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Dashboard.RevealInterval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Dashboard.RevealInterval },
	},
	{
		key: "http.timeout", typ: kDuration, env: "CAREERDASH_HTTP_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.HTTP.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.HTTP.Timeout },
	},
	{
		key: "storage.data_dir", typ: kString, env: "CAREERDASH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "CAREERDASH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

// parseValue converts a raw string to the Go type of a key.
func parseValue(typ keyType, raw string) (any, error) {
	switch typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kDuration:
		return time.ParseDuration(raw)
	case kList:
		return splitList(raw), nil
	default:
		return raw, nil
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}

		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || (raw == "" && s.typ != kString) {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config key %s=%q: %v. Using default value.\n", s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
