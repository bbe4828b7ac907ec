// File path: internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheBackend enumerates the supported TTL cache implementations.
type CacheBackend string

const (
	// CacheBackendMemory keeps cached fetches in-process.
	CacheBackendMemory CacheBackend = "memory"
	// CacheBackendRedis delegates the cache to a Redis/KeyDB instance.
	CacheBackendRedis CacheBackend = "redis"
)

// Config aggregates runtime configuration for the asset-history service.
type Config struct {
	ListenAddr string

	GitHub  GitHubConfig
	Buckets BucketConfig
	Cache   CacheConfig
	LLM     LLMConfig

	// AuditPath is the SQLite database used to persist computed commit
	// summaries. Empty disables the audit store.
	AuditPath string

	// EnrichWorkers bounds concurrent commit-detail fetches. The default of 1
	// keeps outbound pressure on the hosting API minimal.
	EnrichWorkers int

	// CollectTimeout caps the commit-collection phase of one request.
	CollectTimeout time.Duration
}

// GitHubConfig identifies the tracked translation repository.
type GitHubConfig struct {
	BaseURL       string
	Token         string
	Owner         string
	Repo          string
	DefaultBranch string
	// TrackedPaths are the repository paths whose history is summarized when
	// the request names none.
	TrackedPaths []string
	// TranslationCSV is the basename of the tabular translation file; paths
	// ending in it route through the CSV row extractor.
	TranslationCSV string
}

// BucketConfig names the two deployment tiers and the object prefixes the
// correlator inspects.
type BucketConfig struct {
	DevBucket    string
	ProdBucket   string
	CSVObject    string
	XLIFFPrefix  string
	AWSRegion    string
	ForcePathURL string
}

// CacheConfig selects and parameterizes the raw-fetch cache.
type CacheConfig struct {
	Backend CacheBackend
	TTL     time.Duration
	Redis   RedisConfig
}

// RedisConfig carries connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	Database int
}

// LLMConfig parameterizes the optional abstractive summarizer.
type LLMConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// Load reads configuration from environment variables, applying service
// defaults for anything unset.
func Load() Config {
	return Config{
		ListenAddr: envDefault("LISTEN_ADDR", ":8080"),
		GitHub: GitHubConfig{
			BaseURL:        envDefault("GITHUB_API_URL", "https://api.github.com"),
			Token:          os.Getenv("GITHUB_TOKEN"),
			Owner:          envDefault("CONTENT_OWNER", "openassess"),
			Repo:           envDefault("CONTENT_REPO", "translation-content"),
			DefaultBranch:  envDefault("CONTENT_BRANCH", "main"),
			TrackedPaths:   envList("CONTENT_PATHS", []string{"translations", "surveys"}),
			TranslationCSV: envDefault("TRANSLATION_CSV", "item-bank-translations.csv"),
		},
		Buckets: BucketConfig{
			DevBucket:    envDefault("DEV_BUCKET", "assessment-assets-dev"),
			ProdBucket:   envDefault("PROD_BUCKET", "assessment-assets-prod"),
			CSVObject:    envDefault("TRANSLATION_OBJECT", "translations/item-bank-translations.csv"),
			XLIFFPrefix:  envDefault("SURVEY_PREFIX", "surveys/"),
			AWSRegion:    envDefault("AWS_REGION", "us-east-1"),
			ForcePathURL: os.Getenv("S3_ENDPOINT"),
		},
		Cache: CacheConfig{
			Backend: CacheBackend(strings.ToLower(envDefault("CACHE_BACKEND", string(CacheBackendMemory)))),
			TTL:     envDuration("CACHE_TTL", 10*time.Minute),
			Redis: RedisConfig{
				Addr:     os.Getenv("REDIS_ADDR"),
				Username: os.Getenv("REDIS_USERNAME"),
				Password: os.Getenv("REDIS_PASSWORD"),
				Database: envInt("REDIS_DB", 0),
			},
		},
		LLM: LLMConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     envDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			MaxTokens: envInt("OPENAI_MAX_TOKENS", 80),
		},
		AuditPath:      os.Getenv("SUMMARY_AUDIT_PATH"),
		EnrichWorkers:  envInt("ENRICH_WORKERS", 1),
		CollectTimeout: envDuration("COLLECT_TIMEOUT", 25*time.Second),
	}
}

func envDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
