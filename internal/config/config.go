package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cron    CronConfig    `mapstructure:"cron"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Sources SourcesConfig `mapstructure:"sources"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Window  WindowConfig  `mapstructure:"window"`
	Scoring ScoringConfig `mapstructure:"scoring"`
	Alert   AlertConfig   `mapstructure:"alert"`
	Health  HealthConfig  `mapstructure:"health"`
	Discord DiscordConfig `mapstructure:"discord"`
}

type AppConfig struct {
	Env    string `mapstructure:"env"`
	DryRun bool   `mapstructure:"dry_run"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Pass       string `mapstructure:"pass"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type FetchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Backoff time.Duration `mapstructure:"backoff"`
}

type SourcesConfig struct {
	HackerNews SourceConfig `mapstructure:"hackernews"`
	Reddit     RedditConfig `mapstructure:"reddit"`
}

type SourceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Tier    string `mapstructure:"tier"`
	Limit   int    `mapstructure:"limit"`
}

type RedditConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Tier      string `mapstructure:"tier"`
	Limit     int    `mapstructure:"limit"`
	Subreddit string `mapstructure:"subreddit"`
}

type GitHubConfig struct {
	Token   string        `mapstructure:"token"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WindowConfig struct {
	Hours int `mapstructure:"hours"`
}

type ScoringConfig struct {
	RulesPath string `mapstructure:"rules_path"`
}

type AlertConfig struct {
	Channel              string        `mapstructure:"channel"`
	Threshold            float64       `mapstructure:"threshold"`
	Cooldown             time.Duration `mapstructure:"cooldown"`
	MinScoreDelta        float64       `mapstructure:"min_score_delta"`
	CriticalMultiplier   float64       `mapstructure:"critical_multiplier"`
	MinUniqueSourceCount int           `mapstructure:"min_unique_sources"`
}

type HealthConfig struct {
	RateLimitFailureThreshold int  `mapstructure:"rate_limit_failure_threshold"`
	ReenableOnStart           bool `mapstructure:"reenable_on_start"`
}

type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// ResolveTier falls back to tier A for anything outside A/B/C.
func ResolveTier(tier string) string {
	switch tier {
	case "A", "B", "C":
		return tier
	}
	return "A"
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.dry_run", false)
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.pass", "@every 30m")
	v.SetDefault("cron.run_on_start", true)
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.backoff", "400ms")
	v.SetDefault("sources.hackernews.enabled", true)
	v.SetDefault("sources.hackernews.tier", "A")
	v.SetDefault("sources.hackernews.limit", 20)
	v.SetDefault("sources.reddit.enabled", true)
	v.SetDefault("sources.reddit.tier", "A")
	v.SetDefault("sources.reddit.limit", 20)
	v.SetDefault("sources.reddit.subreddit", "programming")
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.timeout", "10s")
	v.SetDefault("window.hours", 6)
	v.SetDefault("scoring.rules_path", "config/score_rules.v1.json")
	v.SetDefault("alert.channel", "discord")
	v.SetDefault("alert.threshold", 12)
	v.SetDefault("alert.cooldown", "24h")
	v.SetDefault("alert.min_score_delta", 0.5)
	v.SetDefault("alert.critical_multiplier", 2)
	v.SetDefault("alert.min_unique_sources", 1)
	v.SetDefault("health.rate_limit_failure_threshold", 3)
	v.SetDefault("health.reenable_on_start", true)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Sources.HackerNews.Tier = ResolveTier(cfg.Sources.HackerNews.Tier)
	cfg.Sources.Reddit.Tier = ResolveTier(cfg.Sources.Reddit.Tier)
	return cfg, nil
}
