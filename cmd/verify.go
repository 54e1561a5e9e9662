package main

import (
	"context"
	"errors"

	"github.com/desertthunder/glx/internal/formatter"
	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Verify checks each downloaded archive on disk and resets the records whose
// archive is missing or no longer matches its recorded sha256.
func (r *Runner) Verify(ctx context.Context, cmd *cli.Command) (err error) {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	repo, release, err := r.openStore()
	defer release()
	if err != nil {
		return err
	}

	state, err := repo.Load()
	if err != nil {
		return err
	}
	defer func() {
		if saveErr := repo.Save(state); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}()

	engine := r.newEngine(nil, models.GroupFilter{}, r.logger)

	var result *tasks.VerifyResult
	if cmd.Bool("json") {
		result, err = engine.Verify(ctx, nil, state)
		if err != nil {
			return err
		}
		return r.writeJSON(result, true)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.printUpdates(progressCh)
	result, err = engine.Verify(ctx, progressCh, state)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Verify Complete")
	r.writePlain("Checked: %d archives in %s\n", result.Checked, engine.OutputDir())
	r.writePlain("OK: %d\n", result.OK)
	if result.Unrecorded > 0 {
		r.writePlain("No archive recorded: %d\n", result.Unrecorded)
	}
	if len(result.Reset) > 0 {
		r.writePlain("Reset for download: %d\n", len(result.Reset))
		for _, id := range result.Reset {
			if project := state.Find(id); project != nil {
				r.writePlain("  - %s (ID: %d)\n", project.Name, id)
			}
		}
	}
	r.writePlainln("%s", formatter.SummaryLine(state.Summary()))

	return nil
}
