package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeService struct {
	name     string
	startErr error
	blocking bool

	mu      sync.Mutex
	stopped bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.blocking {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeService) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	boom := errors.New("listen failed")
	api := &fakeService{name: "http", startErr: boom}
	worker := &fakeService{name: "worker", blocking: true}

	err := NewRunner(api, worker).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want %v got %v", boom, err)
	}
	if !api.wasStopped() || !worker.wasStopped() {
		t.Fatalf("every service should be stopped")
	}
}

func TestRunnerCancelledContextIsClean(t *testing.T) {
	worker := &fakeService{name: "worker", blocking: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewRunner(worker).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if !worker.wasStopped() {
		t.Fatalf("worker should be stopped")
	}
}

func TestRunnerRejectsEmpty(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
	if err := NewRunner(nil).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestNormalizeOptionsUsesServerShutdown(t *testing.T) {
	opts := normalizeOptions(Options{Config: &config.Config{Server: config.ServerConfig{ShutdownTimeoutSeconds: 3}}})
	if opts.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown timeout want 3s got %s", opts.ShutdownTimeout)
	}
	if opts.Mode != ModeAll || opts.Logger == nil {
		t.Fatalf("unexpected defaults %+v", opts)
	}
}

func TestBuildRunnerRequiresConfig(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
}

func useTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	prev := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = prev })
}

func serviceNames(r *Runner) []string {
	names := make([]string, 0, len(r.services))
	for _, svc := range r.services {
		names = append(names, svc.Name())
	}
	return names
}

func TestBuildRunnerPurgesStorageWithoutQueue(t *testing.T) {
	useTestDB(t)
	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	cfg.Session.RetentionDays = 90
	cfg.Queue.Enabled = false

	runner, err := BuildRunner(cfg, ModeAll)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	names := serviceNames(runner)
	if len(names) != 2 || names[0] != "http" || names[1] != "storage_purge" {
		t.Fatalf("want [http storage_purge] got %v", names)
	}
}

func TestBuildRunnerSkipsPurgeWithoutRetention(t *testing.T) {
	useTestDB(t)
	cfg := &config.Config{}
	cfg.Server.Mode = "debug"

	runner, err := BuildRunner(cfg, ModeAll)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	names := serviceNames(runner)
	if len(names) != 1 || names[0] != "http" {
		t.Fatalf("want [http] got %v", names)
	}

	cfg.Session.RetentionDays = 30
	runner, err = BuildRunner(cfg, ModeAPI)
	if err != nil {
		t.Fatalf("build api runner failed: %v", err)
	}
	if names := serviceNames(runner); len(names) != 1 || names[0] != "http" {
		t.Fatalf("api mode should not purge, got %v", names)
	}
}
