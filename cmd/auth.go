package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthStatus checks both services without touching any playlist.
//
// Spotify is checked with a token request and YouTube Music with the auth file and the proxy's /health endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("checking auth status")

	failed := 0
	check := func(name string, err error) {
		if err != nil {
			failed++
			r.logger.Debug("auth check failed", "service", name, "err", err)
			r.writePlain("%s\n", r.palette.Err(fmt.Sprintf("%s: %v", name, err)))
			return
		}
		r.writePlain("%s\n", r.palette.OK(name+": authenticated"))
	}

	source, err := r.sourceFor(config)
	if err == nil {
		err = source.Authenticate(ctx)
	}
	check("Spotify", err)

	dest := r.destinationFor(config)
	check(dest.Name(), dest.Authenticate(ctx))

	if failed > 0 {
		return fmt.Errorf("%w: %d of 2 services not ready", shared.ErrAuthFailed, failed)
	}
	return nil
}
