// Package config loads gateway configuration from the environment,
// following the plain env-var struct pattern used across the wisefido
// services.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the complete runtime configuration for the gateway process.
type Config struct {
	HTTP struct {
		Addr           string
		AllowedOrigins []string
	}
	Upstream struct {
		APIBase   string // e.g. https://api.example-cloud.com
		AuthHost  string // e.g. https://auth.example-cloud.com
		ClientID  string
		RedirectURI string
		GRPCTarget string
	}
	Auth struct {
		ServerSecret         string
		AccessTokenExpire    time.Duration
		RefreshTokenExpire   time.Duration
		UpstreamRefreshTTL   time.Duration
	}
	Redis struct {
		Host     string
		Port     int
		DB       int
		Password string
	}
	MQTT struct {
		Broker         string
		ChannelPrefix  string
	}
	Log struct {
		Level  string
		Format string
	}
	MediaRoot string
	// DevStubUpstream records GATEWAY_DEV_STUB_UPSTREAM. Nothing in the
	// gateway reads it: the live upstream is used whatever its value.
	DevStubUpstream bool
}

// Load reads configuration from the environment, applying the defaults
// documented in the gateway's operations runbook.
func Load() *Config {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.AllowedOrigins = splitCSV(getEnv("ALLOWED_ORIGINS", "*"))

	cfg.Upstream.APIBase = getEnv("UPSTREAM_API_BASE", "https://api.example-cloud.com")
	cfg.Upstream.AuthHost = getEnv("UPSTREAM_AUTH_HOST", "https://auth.example-cloud.com")
	cfg.Upstream.ClientID = getEnv("UPSTREAM_CLIENT_ID", "ios")
	cfg.Upstream.RedirectURI = getEnv("UPSTREAM_REDIRECT_URI", "example-cloud://login/callback")
	cfg.Upstream.GRPCTarget = getEnv("UPSTREAM_GRPC_TARGET", "grpc.example-cloud.com:443")

	cfg.Auth.ServerSecret = getEnv("SERVER_SECRET", "change-me-in-production")
	cfg.Auth.AccessTokenExpire = parseMinutes(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "30"), 30*time.Minute)
	cfg.Auth.RefreshTokenExpire = parseDays(getEnv("REFRESH_TOKEN_EXPIRE_DAYS", "7"), 7*24*time.Hour)
	cfg.Auth.UpstreamRefreshTTL = 90 * 24 * time.Hour

	cfg.Redis.Host = getEnv("KV_HOST", "localhost")
	cfg.Redis.Port = parseInt(getEnv("KV_PORT", "6379"), 6379)
	cfg.Redis.DB = parseInt(getEnv("KV_DB", "0"), 0)
	cfg.Redis.Password = getEnv("KV_PASSWORD", "")

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ChannelPrefix = getEnv("MQTT_CHANNEL_PREFIX", "panel-notify")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.MediaRoot = getEnv("MEDIA_ROOT", "/var/lib/gateway/media")
	cfg.DevStubUpstream = getEnv("GATEWAY_DEV_STUB_UPSTREAM", "false") == "true"

	return cfg
}

// RedisAddr returns the host:port pair go-redis expects.
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + strconv.Itoa(c.Redis.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseMinutes(s string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Minute
}

func parseDays(s string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return time.Duration(n) * 24 * time.Hour
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
