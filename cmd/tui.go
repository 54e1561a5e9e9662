package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/services"
	"github.com/desertthunder/glx/internal/shared"
	"github.com/desertthunder/glx/internal/tasks"
	"github.com/desertthunder/glx/internal/ui"
	"github.com/mattn/go-isatty"
)

// tuiLogPath is where logs go while the TUI owns the terminal.
func tuiLogPath() string {
	return filepath.Join(os.TempDir(), "glx-tui.log")
}

// interactive reports whether output goes to a terminal the TUI can take over.
func (r *Runner) interactive() bool {
	f, ok := r.output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runTUI runs discovery and export behind the interactive progress view.
//
// The engine goroutine has always returned by the time runTUI does, so the caller
// may save state.
func (r *Runner) runTUI(ctx context.Context, svc services.ExportService, filter models.GroupFilter, state *models.Progress) (*tasks.RunResult, error) {
	// Redirect logs to file to avoid interfering with TUI rendering
	if r.config.Log.File == "" {
		fileLogger, err := shared.NewFileLogger(tuiLogPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	engine := r.newEngine(svc, filter, shared.WithLogger(r.logger, "run", shared.GenerateID()))
	model := ui.NewModel(ctx, state, func(ctx context.Context, prog chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
		if _, err := engine.Discover(ctx, prog, state); err != nil {
			return nil, err
		}
		return engine.Run(ctx, prog, state)
	})

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		model.Shutdown()
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Shutdown()
}
