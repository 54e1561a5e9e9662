package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/glx/internal/formatter"
	"github.com/desertthunder/glx/internal/repositories"
	"github.com/urfave/cli/v3"
)

// Status prints every known project from the progress file. No remote calls are made.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	repo := repositories.NewProgressRepository(r.config.Export.ProgressFile)
	if !repo.Exists() {
		r.logger.Warn("progress file not found, nothing exported yet", "path", repo.Path())
	}

	state, err := repo.Load()
	if err != nil {
		return err
	}

	format := cmd.String("format")
	if out := cmd.String("out"); out != "" {
		if err := formatter.WriteReport(state, out, format); err != nil {
			return err
		}
		r.logger.Info("report written", "path", out, "format", format)
		r.writePlain("Report written to %s\n", out)
		return nil
	}

	data, err := formatter.Render(state, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
