package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/livesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to disk.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ Wrote %s\n", path)
	r.writePlain("Fill in [credentials.youtube] and run 'livesync auth login' to obtain a refresh token.\n")
	return nil
}

// ConfigCheck validates the configuration file and the task manifest.
//
// Unlike the sync commands this never falls back to defaults: a missing
// config file is an error.
func (r *Runner) ConfigCheck(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.writePlain("✓ Config parsed: %s\n", path)

	if err := config.ValidateCredentials(); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	r.writePlain("✓ Credentials present\n")

	manifest, err := r.resolveManifest(cmd, config)
	if err != nil {
		return err
	}

	channels := 0
	for _, task := range manifest.Tasks {
		channels += len(task.Channels)
	}
	r.writePlain("✓ Manifest valid: %d tasks, %d channels\n", len(manifest.Tasks), channels)

	return nil
}
