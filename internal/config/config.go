package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int      `mapstructure:"port"`
	DatabasePath   string   `mapstructure:"database_path"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Admin API auth. Empty APIKey disables auth with a startup warning —
	// the insecure-when-unconfigured behavior is deliberate and documented.
	APIKey       string `mapstructure:"api_key"`
	APIKeyHeader string `mapstructure:"api_key_header"`

	// Workspace namespaces must carry this prefix; everything else is
	// rejected before any subprocess is spawned.
	NamespacePrefix string `mapstructure:"namespace_prefix"`

	HelmBinary        string `mapstructure:"helm_binary"`
	KubectlBinary     string `mapstructure:"kubectl_binary"`
	HelmTimeoutSec    int    `mapstructure:"helm_timeout_sec"`
	KubectlTimeoutSec int    `mapstructure:"kubectl_timeout_sec"`

	CloudflareEnabled    bool   `mapstructure:"cloudflare_enabled"`
	CloudflareAPIToken   string `mapstructure:"cloudflare_api_token"`
	CloudflareAccountID  string `mapstructure:"cloudflare_account_id"`
	CloudflareTunnelID   string `mapstructure:"cloudflare_tunnel_id"`
	CloudflareZoneID     string `mapstructure:"cloudflare_zone_id"`
	CloudflareDomain     string `mapstructure:"cloudflare_domain"`
	CloudflareTimeoutSec int    `mapstructure:"cloudflare_timeout_sec"`

	AccessTokenTTLSec  int `mapstructure:"access_token_ttl_sec"`
	RefreshTokenTTLSec int `mapstructure:"refresh_token_ttl_sec"`
	AuthCodeTTLSec     int `mapstructure:"auth_code_ttl_sec"`

	ShutdownTimeoutSec int `mapstructure:"shutdown_timeout_sec"`
}

func (c *Config) HelmTimeout() time.Duration {
	return time.Duration(c.HelmTimeoutSec) * time.Second
}

func (c *Config) KubectlTimeout() time.Duration {
	return time.Duration(c.KubectlTimeoutSec) * time.Second
}

func (c *Config) CloudflareTimeout() time.Duration {
	return time.Duration(c.CloudflareTimeoutSec) * time.Second
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSec) * time.Second
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLSec) * time.Second
}

func (c *Config) AuthCodeTTL() time.Duration {
	return time.Duration(c.AuthCodeTTLSec) * time.Second
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/paas-operator/")
	viper.AddConfigPath("$HOME/.paas-operator")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8087)
	viper.SetDefault("database_path", "./paas-operator.db")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("api_key", "")
	viper.SetDefault("api_key_header", "X-API-Key")
	viper.SetDefault("namespace_prefix", "paas-ws-")
	viper.SetDefault("helm_binary", "helm")
	viper.SetDefault("kubectl_binary", "kubectl")
	viper.SetDefault("helm_timeout_sec", 300)
	viper.SetDefault("kubectl_timeout_sec", 30)
	viper.SetDefault("cloudflare_enabled", false)
	viper.SetDefault("cloudflare_api_token", "")
	viper.SetDefault("cloudflare_account_id", "")
	viper.SetDefault("cloudflare_tunnel_id", "")
	viper.SetDefault("cloudflare_zone_id", "")
	viper.SetDefault("cloudflare_domain", "")
	viper.SetDefault("cloudflare_timeout_sec", 30)
	viper.SetDefault("access_token_ttl_sec", 3600)     // 1 hour
	viper.SetDefault("refresh_token_ttl_sec", 2592000) // 30 days
	viper.SetDefault("auth_code_ttl_sec", 600)         // 10 minutes
	viper.SetDefault("shutdown_timeout_sec", 15)

	// Environment variables
	viper.SetEnvPrefix("PAAS_OPERATOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
