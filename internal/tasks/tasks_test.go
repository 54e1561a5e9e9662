package tasks

import (
	"context"
	"fmt"
	"testing"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/retry"
	"github.com/desertthunder/glx/internal/services"
	tu "github.com/desertthunder/glx/internal/testing"
)

func newTestEngine(t *testing.T, svc *tu.MockExportService, opts EngineOpts) *ExportEngine {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	if opts.Poll.MaxAttempts == 0 {
		opts.Poll = retry.Fixed(DefaultPollAttempts, 0)
	}
	return NewExportEngine(svc, opts)
}

func newState(t *testing.T, projects ...*models.Project) *models.Progress {
	t.Helper()
	state := models.NewProgress()
	for _, p := range projects {
		if err := state.Add(p); err != nil {
			t.Fatalf("failed to seed state: %v", err)
		}
	}
	return state
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestNewExportEngine(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := NewExportEngine(&tu.MockExportService{}, EngineOpts{})

		if e.OutputDir() != "." {
			t.Errorf("expected output dir ., got %s", e.OutputDir())
		}
		if e.opts.Poll.MaxAttempts != 180 || e.opts.Poll.Delay != DefaultPollInterval {
			t.Errorf("unexpected default poll policy %+v", e.opts.Poll)
		}
		if e.opts.Now == nil || e.logger == nil {
			t.Error("expected clock and logger defaults")
		}
	})

	t.Run("sendProgress", func(t *testing.T) {
		t.Run("ignores a nil channel", func(t *testing.T) {
			e := NewExportEngine(&tu.MockExportService{}, EngineOpts{})
			e.sendProgress(context.Background(), nil, ProgressUpdate{Message: "ignored"})
		})

		t.Run("returns once the context is done", func(t *testing.T) {
			e := NewExportEngine(&tu.MockExportService{}, EngineOpts{})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			e.sendProgress(ctx, make(chan ProgressUpdate), ProgressUpdate{Message: "unread"})
		})

		t.Run("delivers every update through an unbuffered channel", func(t *testing.T) {
			remote := make([]services.RemoteProject, 120)
			for i := range remote {
				remote[i] = services.RemoteProject{ID: int64(i + 1), Name: fmt.Sprintf("p%d", i+1), Namespace: "g"}
			}
			svc := &tu.MockExportService{Projects: remote}
			ch := make(chan ProgressUpdate)

			received := make(chan int)
			go func() {
				count := 0
				for range ch {
					count++
				}
				received <- count
			}()

			_, err := newTestEngine(t, svc, EngineOpts{}).Discover(context.Background(), ch, models.NewProgress())
			close(ch)
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if got := <-received; got != len(remote)+1 {
				t.Errorf("received %d updates, want %d", got, len(remote)+1)
			}
		})
	})
}

func TestPhaseString(t *testing.T) {
	phases := map[Phase]string{
		Discovering: "discover",
		Exporting:   "export",
		Polling:     "poll",
		Downloading: "download",
		Completed:   "completed",
		Skipped:     "skipped",
		TimedOut:    "timeout",
		Verifying:   "verify",
		Phase(99):   "",
	}
	for phase, want := range phases {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
