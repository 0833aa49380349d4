package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	SourcesFile    string `mapstructure:"sources_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	StatePath          string `mapstructure:"state_path"`
	FeedPath           string `mapstructure:"feed_path"`
	StateRetentionDays int    `mapstructure:"state_retention_days"`

	TranslateAPIKey     string `mapstructure:"google_translate_api_key"`
	TranslateSourceLang string `mapstructure:"translate_source_lang"`
	TranslateTargetLang string `mapstructure:"translate_target_lang"`
	TranslateEndpoint   string `mapstructure:"translate_endpoint"`

	FeedTitle            string `mapstructure:"feed_title"`
	FeedLink             string `mapstructure:"feed_link"`
	FeedDescription      string `mapstructure:"feed_description"`
	FeedLanguage         string `mapstructure:"feed_language"`
	FeedMaxItems         int    `mapstructure:"feed_max_items"`
	FeedUseTranslateLink bool   `mapstructure:"feed_use_translate_link"`

	CacheType            string        `mapstructure:"cache_type"`
	CachePath            string        `mapstructure:"cache_path"`
	CacheTTLSeconds      int64         `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds  int64         `mapstructure:"cache_cleanup_interval_seconds"`
	CacheTTL             time.Duration `mapstructure:"-"`
	CacheCleanupInterval time.Duration `mapstructure:"-"`
	RunIntervalSeconds   int64         `mapstructure:"run_interval_seconds"`
	RunInterval          time.Duration `mapstructure:"-"`
	HTTPTimeoutSeconds   int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout          time.Duration `mapstructure:"-"`
	StateRetention       time.Duration `mapstructure:"-"`
	FeedS3Bucket         string        `mapstructure:"feed_s3_bucket"`
	FeedS3Key            string        `mapstructure:"feed_s3_key"`
	FeedS3Region         string        `mapstructure:"feed_s3_region"`
	FeedS3CacheControl   string        `mapstructure:"feed_s3_cache_control"`
	FeedS3PathStyle      bool          `mapstructure:"feed_s3_path_style"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	return load(true)
}

// LoadOffline is Load without the translation credential requirement, for commands that
// only read state and render the feed.
func LoadOffline() (*Config, error) {
	return load(false)
}

func load(requireCredential bool) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(requireCredential); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-feed-translator")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("state_path", "state/articles.json")
	v.SetDefault("feed_path", "gh-pages/rss.xml")
	v.SetDefault("state_retention_days", 30)
	v.SetDefault("google_translate_api_key", "")
	v.SetDefault("translate_source_lang", "en")
	v.SetDefault("translate_target_lang", "zh")
	v.SetDefault("translate_endpoint", "")
	v.SetDefault("feed_title", "荷兰新闻 | 本地新闻每日更新")
	v.SetDefault("feed_link", "https://xinwen.nl/")
	v.SetDefault("feed_description", "最新鲜的荷兰本地新闻，每日不间断更新！")
	v.SetDefault("feed_language", "zh-CN")
	v.SetDefault("feed_max_items", 77)
	v.SetDefault("feed_use_translate_link", false)
	v.SetDefault("cache_type", "bbolt")
	v.SetDefault("cache_path", "./data/translations.db")
	v.SetDefault("cache_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("cache_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("run_interval_seconds", 0)
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("feed_s3_bucket", "")
	v.SetDefault("feed_s3_key", "rss.xml")
	v.SetDefault("feed_s3_region", "")
	v.SetDefault("feed_s3_cache_control", "max-age=300")
	v.SetDefault("feed_s3_path_style", false)
}

// normalize validates fields and derives durations. Every failure is a *domain.ConfigurationError.
func (c *Config) normalize(requireCredential bool) error {
	c.TranslateAPIKey = strings.TrimSpace(c.TranslateAPIKey)
	if requireCredential && c.TranslateAPIKey == "" {
		return &domain.ConfigurationError{Key: "GOOGLE_TRANSLATE_API_KEY", Reason: "environment variable is required"}
	}
	if strings.TrimSpace(c.TranslateTargetLang) == "" {
		return &domain.ConfigurationError{Key: "translate_target_lang", Reason: "must not be empty"}
	}

	var err error
	if c.StatePath, err = cleanFilePath("state_path", c.StatePath); err != nil {
		return err
	}
	if c.FeedPath, err = cleanFilePath("feed_path", c.FeedPath); err != nil {
		return err
	}
	if c.StatePath == c.FeedPath {
		return &domain.ConfigurationError{Key: "feed_path", Reason: "must differ from state_path"}
	}

	if c.FeedMaxItems < 0 {
		return &domain.ConfigurationError{Key: "feed_max_items", Reason: "must be zero (unlimited) or positive"}
	}
	if c.StateRetentionDays < 0 {
		return &domain.ConfigurationError{Key: "state_retention_days", Reason: "must be zero (unbounded) or positive"}
	}
	c.StateRetention = time.Duration(c.StateRetentionDays) * 24 * time.Hour

	if c.RunIntervalSeconds < 0 {
		return &domain.ConfigurationError{Key: "run_interval_seconds", Reason: "must be zero (single run) or positive seconds"}
	}
	c.RunInterval = time.Duration(c.RunIntervalSeconds) * time.Second

	if c.HTTPTimeoutSeconds <= 0 {
		return &domain.ConfigurationError{Key: "http_timeout_seconds", Reason: "must be positive seconds"}
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	if c.CacheTTLSeconds <= 0 {
		return &domain.ConfigurationError{Key: "cache_ttl_seconds", Reason: "must be positive seconds"}
	}
	if c.CacheCleanupSeconds <= 0 {
		return &domain.ConfigurationError{Key: "cache_cleanup_interval_seconds", Reason: "must be positive seconds"}
	}
	c.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	c.CacheCleanupInterval = time.Duration(c.CacheCleanupSeconds) * time.Second

	if strings.TrimSpace(c.FeedS3Bucket) != "" && strings.TrimSpace(c.FeedS3Key) == "" {
		return &domain.ConfigurationError{Key: "feed_s3_key", Reason: "required when feed_s3_bucket is set"}
	}
	return nil
}

func cleanFilePath(key, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &domain.ConfigurationError{Key: key, Reason: "must not be empty"}
	}
	if strings.HasSuffix(raw, "/") || strings.HasSuffix(raw, string(filepath.Separator)) {
		return "", &domain.ConfigurationError{Key: key, Reason: fmt.Sprintf("%q names a directory, expected a file", raw)}
	}
	cleaned := filepath.Clean(raw)
	if cleaned == "." {
		return "", &domain.ConfigurationError{Key: key, Reason: fmt.Sprintf("%q is not a file path", raw)}
	}
	return cleaned, nil
}

// Summary returns the loggable settings. The translation credential is never included.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"app_name":             c.AppName,
		"app_env":              c.Env,
		"sources_file":         c.SourcesFile,
		"publishers_file":      c.PublishersFile,
		"state_path":           c.StatePath,
		"feed_path":            c.FeedPath,
		"target_lang":          c.TranslateTargetLang,
		"feed_max_items":       c.FeedMaxItems,
		"state_retention_days": c.StateRetentionDays,
		"cache_type":           c.CacheType,
		"run_interval":         c.RunInterval.String(),
		"feed_s3_bucket":       c.FeedS3Bucket,
	}
}
