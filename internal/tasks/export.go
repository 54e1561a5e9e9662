package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/repositories"
	"github.com/desertthunder/glx/internal/retry"
	"github.com/desertthunder/glx/internal/shared"
)

// RunResult summarizes a pass of the orchestrator over the store.
//
// On a hard failure [ExportEngine.Run] returns the partial result alongside the error.
type RunResult struct {
	Total       int     // Records in the store
	Downloaded  []int64 // Projects downloaded in this run
	AlreadyDone int     // Records skipped because they were downloaded before
	Filtered    int     // Records skipped by the group filter
	TimedOut    []int64 // Projects whose export never reached a terminal status
}

// Pending returns how many records were neither downloaded nor skipped.
func (r *RunResult) Pending() int {
	return r.Total - len(r.Downloaded) - r.AlreadyDone - r.Filtered
}

// Run drives each eligible record through export, polling and download, in store order.
//
// A poll timeout is a soft failure: the record is left as-is and the batch continues.
// Any other error, cancellation included, stops the batch and is returned with the
// partial result. State is mutated in memory only.
func (e *ExportEngine) Run(ctx context.Context, prog chan<- ProgressUpdate, state *models.Progress) (*RunResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: export service not initialized", shared.ErrServiceUnavailable)
	}

	total := len(state.Projects)
	result := &RunResult{Total: total}

	for i, project := range state.Projects {
		step := i + 1

		if project.Downloaded() {
			result.AlreadyDone++
			e.sendProgress(ctx, prog, skippedUpdate(step, total, project, "already downloaded"))
			continue
		}
		if !e.opts.Filter.Allows(project.GroupName) {
			result.Filtered++
			e.sendProgress(ctx, prog, skippedUpdate(step, total, project, "filtered"))
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := e.exportProject(ctx, prog, step, total, project)
		switch {
		case err == nil:
			result.Downloaded = append(result.Downloaded, project.ID)
			e.sendProgress(ctx, prog, completedUpdate(step, total, project))
		case errors.Is(err, shared.ErrExportTimeout):
			result.TimedOut = append(result.TimedOut, project.ID)
			e.logger.Warn("export timeout, skipping project", "id", project.ID, "name", project.Name, "export_status", project.ExportStatus)
			e.sendProgress(ctx, prog, timedOutUpdate(step, total, project))
		default:
			e.logger.Error("export failed, abandoning batch", "id", project.ID, "name", project.Name, "err", err)
			return result, fmt.Errorf("project %s (ID: %d): %w", project.Name, project.ID, err)
		}
	}

	return result, nil
}

func (e *ExportEngine) exportProject(ctx context.Context, prog chan<- ProgressUpdate, step, total int, project *models.Project) error {
	e.logger.Info("exporting project", "id", project.ID, "name", project.Name, "group", project.GroupName)
	e.sendProgress(ctx, prog, exportingUpdate(step, total, project))

	if !project.ExportStatus.Terminal() {
		if err := e.svc.ScheduleExport(ctx, project.ID); err != nil {
			return fmt.Errorf("failed to request export: %w", err)
		}

		if err := e.waitForExport(ctx, prog, step, total, project); err != nil {
			return err
		}
	}

	e.logger.Info("downloading project", "id", project.ID, "name", project.Name)
	e.sendProgress(ctx, prog, downloadingUpdate(step, total, project))

	return e.download(ctx, project)
}

func (e *ExportEngine) waitForExport(ctx context.Context, prog chan<- ProgressUpdate, step, total int, project *models.Project) error {
	attempts := e.opts.Poll.MaxAttempts

	err := e.opts.Poll.Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
		status, err := e.svc.ExportStatus(ctx, project.ID)
		if err != nil {
			return false, fmt.Errorf("failed to query export status: %w", err)
		}
		project.ExportStatus = status

		e.logger.Debug("export status", "id", project.ID, "status", status, "attempt", attempt, "of", attempts)
		e.sendProgress(ctx, prog, pollingUpdate(step, total, attempt, attempts, project))
		return status.Terminal(), nil
	})
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w after %d checks", shared.ErrExportTimeout, attempts)
	}
	return err
}

func (e *ExportEngine) download(ctx context.Context, project *models.Project) error {
	archive, err := e.svc.DownloadExport(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to download export: %w", err)
	}
	defer archive.Body.Close()

	name, err := ExtractFilename(archive.FilenameToken, FilenameDelimiter)
	if err != nil {
		return err
	}

	hash := sha256.New()
	path := filepath.Join(e.opts.OutputDir, name)
	if err := repositories.WriteFileAtomic(path, io.TeeReader(archive.Body, hash), 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	project.MarkDownloaded(name, hex.EncodeToString(hash.Sum(nil)), e.opts.Now())
	e.logger.Info("project exported and downloaded", "id", project.ID, "name", project.Name, "archive", path, "size", shared.FormatBytes(archive.Size))
	return nil
}
