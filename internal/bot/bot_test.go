package bot

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edgard/nanotipbot/internal/bot/tasks"
	"github.com/edgard/nanotipbot/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWorker struct {
	started atomic.Bool
}

func (w *fakeWorker) StartWebhook(ctx context.Context) {
	w.started.Store(true)
	<-ctx.Done()
}

func newTestScheduler(t *testing.T, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) *Scheduler {
	t.Helper()
	s, err := NewScheduler(discardLogger(), cfg, taskMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	return s
}

func TestSchedulerStart(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 1)
	noop := func(context.Context) error { return nil }
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"tick": func(context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
		"off":   noop,
		"blank": noop,
		"bad":   noop,
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"tick":  {Enabled: true, Schedule: "* * * * * *"},
		"off":   {Enabled: false, Schedule: "* * * * * *"},
		"blank": {Enabled: true},
		"bad":   {Enabled: true, Schedule: "not a cron line"},
		"ghost": {Enabled: true, Schedule: "* * * * * *"},
	}}

	s := newTestScheduler(t, cfg, taskMap)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	if err := s.Start(); err == nil {
		t.Error("second Start() should fail")
	}
	if jobs := s.Jobs(); !slices.Equal(jobs, []string{"tick"}) {
		t.Errorf("Jobs() = %v, want [tick]", jobs)
	}

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled task did not run")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestSchedulerWithoutTasks(t *testing.T) {
	t.Parallel()
	s := newTestScheduler(t, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(s.Jobs()) != 0 {
		t.Errorf("Jobs() = %v, want none", s.Jobs())
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	worker := &fakeWorker{}
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	b := NewBot(discardLogger(), srv, time.Second, worker, newTestScheduler(t, nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !worker.started.Load() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !worker.started.Load() {
		t.Fatal("telegram worker not started")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestRunFailsWhenServerCannotListen(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	b := NewBot(discardLogger(), srv, time.Second, nil, newTestScheduler(t, nil, nil))

	done := make(chan error, 1)
	go func() { done <- b.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Run() should fail when the address is taken")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
	}
}
