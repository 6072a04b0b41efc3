// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/marioparaschiv/social-dashboard/internal/config"
)

// mockService is a controllable suture.Service.
type mockService struct {
	name       string
	startCount atomic.Int32
	failCount  atomic.Int32
	maxFails   int32
	err        error
	mu         sync.Mutex
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)

	m.mu.Lock()
	err := m.err
	maxFails := m.maxFails
	m.mu.Unlock()

	if maxFails > 0 && m.failCount.Add(1) <= maxFails {
		return errors.New("simulated failure")
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockService) setFailCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxFails = int32(n)
}

func (m *mockService) String() string {
	return m.name
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitStarted(t *testing.T, svcs ...*mockService) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		all := true
		for _, s := range svcs {
			if s.startCount.Load() < 1 {
				all = false
			}
		}
		if all {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	for _, s := range svcs {
		if s.startCount.Load() < 1 {
			t.Errorf("%s was not started", s.name)
		}
	}
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Fatal("root supervisor should not be nil")
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 2,
			FailureBackoff:   time.Second,
		})
		if tree.config.FailureThreshold != 2 {
			t.Errorf("FailureThreshold = %v, want 2", tree.config.FailureThreshold)
		}
		if tree.config.FailureBackoff != time.Second {
			t.Errorf("FailureBackoff = %v, want 1s", tree.config.FailureBackoff)
		}
		if tree.config.FailureDecay != 30 {
			t.Errorf("FailureDecay = %v, want default 30", tree.config.FailureDecay)
		}
	})
}

func TestTreeConfigFrom(t *testing.T) {
	got := TreeConfigFrom(config.SupervisorConfig{
		FailureThreshold: 3,
		FailureDecay:     10,
		FailureBackoff:   2 * time.Second,
		ShutdownTimeout:  4 * time.Second,
	})
	want := TreeConfig{
		FailureThreshold: 3,
		FailureDecay:     10,
		FailureBackoff:   2 * time.Second,
		ShutdownTimeout:  4 * time.Second,
	}
	if got != want {
		t.Errorf("TreeConfigFrom = %+v, want %+v", got, want)
	}
}

func TestSupervisorTreeLayers(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

	ingest := newMockService("gateway-0")
	hub := newMockService("fanout-hub")
	api := newMockService("http-server")
	tree.AddIngestService(ingest)
	tree.AddMessagingService(hub)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitStarted(t, ingest, hub, api)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("expected every service to stop, got %v", report)
	}
}

func TestSupervisorTreeFailureHandling(t *testing.T) {
	t.Run("failing connection is restarted without disturbing others", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})

		failing := newMockService("gateway-1")
		failing.setFailCount(2)
		stable := newMockService("http-server")

		tree.AddIngestService(failing)
		tree.AddAPIService(stable)

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		errCh := tree.ServeBackground(ctx)

		time.Sleep(200 * time.Millisecond)

		if failing.startCount.Load() < 3 {
			t.Errorf("expected at least 3 starts, got %d", failing.startCount.Load())
		}
		if stable.startCount.Load() != 1 {
			t.Errorf("stable service restarted: %d starts", stable.startCount.Load())
		}

		cancel()
		<-errCh
	})

	t.Run("ErrDoNotRestart leaves service stopped", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureBackoff:  10 * time.Millisecond,
			ShutdownTimeout: time.Second,
		})

		exhausted := newMockService("gateway-2")
		exhausted.setError(suture.ErrDoNotRestart)
		tree.AddIngestService(exhausted)

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()
		<-tree.ServeBackground(ctx)

		if exhausted.startCount.Load() != 1 {
			t.Errorf("expected a single start, got %d", exhausted.startCount.Load())
		}
	})
}

func TestRemoveIngestService(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

	svc := newMockService("clientapi-0")
	token := tree.AddIngestService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitStarted(t, svc)

	if err := tree.RemoveIngestService(token); err != nil {
		t.Fatalf("RemoveIngestService: %v", err)
	}

	cancel()
	<-errCh

	if svc.startCount.Load() != 1 {
		t.Errorf("removed service restarted: %d starts", svc.startCount.Load())
	}
}
