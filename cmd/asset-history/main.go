// File path: cmd/asset-history/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/openassess/asset-history/internal/api"
	"github.com/openassess/asset-history/internal/cache"
	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/config"
	"github.com/openassess/asset-history/internal/deploy"
	"github.com/openassess/asset-history/internal/diffparse"
	"github.com/openassess/asset-history/internal/github"
	"github.com/openassess/asset-history/internal/history"
	"github.com/openassess/asset-history/internal/llm"
	"github.com/openassess/asset-history/internal/sqlite"
	"github.com/openassess/asset-history/internal/storage"
	"github.com/openassess/asset-history/internal/summary"
)

// csvHeaderBytes bounds the ranged read that resolves the translation
// table's column layout.
const csvHeaderBytes = 8 * 1024

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("asset-history: .env file not loaded", "error", err)
	} else {
		logger.Info("asset-history: environment loaded from .env")
	}

	cfg := config.Load()
	addr := flag.String("addr", cfg.ListenAddr, "listen address")
	workers := flag.Int("enrich-workers", cfg.EnrichWorkers, "bounded concurrency for commit enrichment")
	auditPath := flag.String("audit", cfg.AuditPath, "path to the SQLite summary audit database (empty disables)")
	flag.Parse()
	cfg.EnrichWorkers = *workers
	cfg.AuditPath = strings.TrimSpace(*auditPath)

	logger.Info("asset-history: startup initiated",
		"addr", *addr,
		"repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo,
		"branch", cfg.GitHub.DefaultBranch,
		"paths", strings.Join(cfg.GitHub.TrackedPaths, ","),
	)

	fetchCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		logger.Error("asset-history: cache initialization failed", "error", err)
		fmt.Println("cache error:", err)
		os.Exit(1)
	}

	hosting := github.NewClient(cfg.GitHub.BaseURL, cfg.GitHub.Token,
		github.WithCache(fetchCache, cfg.Cache.TTL))
	if !hosting.TokenPresent() {
		logger.Warn("asset-history: no hosting-API token; running under the anonymous quota")
	}

	provider := llm.NewProvider(cfg.LLM)
	if provider != nil {
		logger.Info("asset-history: llm provider ready", "provider", provider.Name())
	}

	header := csvHeaderFunc(hosting, cfg.GitHub)
	synthesizer := summary.New(provider, header, cfg.GitHub.TranslationCSV)

	var audit history.AuditStore
	if cfg.AuditPath != "" {
		store, err := sqlite.Open(cfg.AuditPath)
		if err != nil {
			logger.Error("asset-history: audit store open failed", "path", cfg.AuditPath, "error", err)
			fmt.Println("audit store error:", err)
			os.Exit(1)
		}
		defer store.Close()
		audit = store
		logger.Info("asset-history: summary audit store ready", "path", cfg.AuditPath)
	}

	metaStore := storage.NewS3MetadataStore(s3.New(buildS3Options(cfg.Buckets)))

	fetcher := history.NewFetcher(hosting)
	enricher := history.NewEnricher(hosting, synthesizer, audit, cfg.EnrichWorkers)
	correlator := deploy.NewCorrelator(metaStore, cfg.Buckets)

	server := api.NewServer(cfg, hosting, fetcher, enricher, correlator)

	logger.Info("asset-history: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("asset-history: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend == config.CacheBackendRedis {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		common.Logger().Info("asset-history: redis fetch cache ready", "addr", cfg.Redis.Addr)
		return redisCache, nil
	}
	return cache.NewMemory(), nil
}

// csvHeaderFunc resolves the translation table's current header row through
// the cached raw-content endpoint.
func csvHeaderFunc(hosting *github.Client, gh config.GitHubConfig) summary.HeaderFunc {
	csvPath := ""
	for _, p := range gh.TrackedPaths {
		candidate := strings.TrimRight(p, "/") + "/" + gh.TranslationCSV
		if strings.Contains(p, ".") {
			candidate = p
		}
		if strings.HasSuffix(candidate, gh.TranslationCSV) {
			csvPath = candidate
			break
		}
	}
	if csvPath == "" {
		csvPath = gh.TranslationCSV
	}
	return func(ctx context.Context) (diffparse.Header, bool) {
		head, err := hosting.FetchRawHead(ctx, gh.Owner, gh.Repo, gh.DefaultBranch, csvPath, csvHeaderBytes)
		if err != nil {
			common.Logger().Warn("asset-history: csv header fetch failed", "path", csvPath, "error", err)
			return diffparse.Header{}, false
		}
		line, _, _ := strings.Cut(head, "\n")
		if strings.TrimSpace(line) == "" {
			return diffparse.Header{}, false
		}
		return diffparse.ParseHeader(line), true
	}
}

func buildS3Options(buckets config.BucketConfig) s3.Options {
	opts := s3.Options{Region: buckets.AWSRegion}
	if endpoint := strings.TrimSpace(buckets.ForcePathURL); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" {
		secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
		token := os.Getenv("AWS_SESSION_TOKEN")
		opts.Credentials = aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    token,
				Source:          "environment",
			}, nil
		})
	}
	return opts
}
