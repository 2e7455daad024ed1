package app

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/vidfriends/mediahub/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Store: "memory",
		Auth: config.AuthConfig{
			AccessTokenSecret:  "access",
			RefreshTokenSecret: "refresh",
			AccessTokenTTL:     time.Minute,
			RefreshTokenTTL:    time.Hour,
		},
		Media: config.MediaConfig{
			UploadDir:      "/tmp",
			MaxUploadBytes: 1 << 20,
			FFProbePath:    "ffprobe",
			FFProbeTimeout: time.Second,
			CleanupWorkers: 1,
			CleanupQueue:   4,
		},
		RateLimit:         config.RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 2},
		WatchHistoryLimit: 50,
	}
}

func TestBuildDependenciesMemoryStore(t *testing.T) {
	deps, cleanup, err := buildDependencies(context.Background(), testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() { _ = cleanup(context.Background()) }()

	if deps.Accounts == nil || deps.Catalog == nil {
		t.Fatal("expected catalog service to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected token service to be configured")
	}
	if deps.Reads == nil {
		t.Fatal("expected aggregator to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if deps.Database != nil {
		t.Fatal("expected no database pinger for the memory store")
	}
	if deps.Uploads.MaxBytes != 1<<20 {
		t.Fatalf("unexpected upload limit %d", deps.Uploads.MaxBytes)
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{
		Bucket:        "media",
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		PublicBaseURL: "http://localhost:9000/media",
	}

	deps, cleanup, err := buildDependencies(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deps.Catalog == nil {
		t.Fatal("expected catalog service to be configured")
	}
}

func TestBuildDependenciesPostgresRequiresPool(t *testing.T) {
	cfg := testConfig()
	cfg.Store = "postgres"
	if _, _, err := buildDependencies(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error without a pool")
	}
}

func TestBuildDependenciesRejectsSharedSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.RefreshTokenSecret = cfg.Auth.AccessTokenSecret
	if _, _, err := buildDependencies(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected token service configuration error")
	}
}

func TestBuildDependenciesPassesTrustedProxies(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	deps, cleanup, err := buildDependencies(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = cleanup(context.Background()) }()

	if len(deps.TrustedProxies) != 1 || deps.TrustedProxies[0].String() != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies %v", deps.TrustedProxies)
	}
}

func TestPoolOptionsFromConfig(t *testing.T) {
	opts := poolOptions(config.DBConfig{
		MaxConns:          20,
		MinConns:          2,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Hour,
	})
	if opts.MaxConns != 20 || opts.MinConns != 2 || opts.HealthCheckPeriod != time.Minute || opts.MaxConnIdleTime != time.Hour {
		t.Fatalf("unexpected pool options %+v", opts)
	}
}
