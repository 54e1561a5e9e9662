package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/glx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the built-in example configuration to --config.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		return fmt.Errorf("%w: --config", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set gitlab.api_endpoint and gitlab.access_token (or export %s and %s)\n",
		shared.EnvAPIEndpoint, shared.EnvAccessToken)
	r.writePlain("2. Run 'glx run --config %s' to export every project\n", configPath)

	return nil
}
