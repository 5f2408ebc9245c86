package main

import (
	"context"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the API until the command context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	e, err := r.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.config.Auth.JWTSecret == "change-me" {
		r.logger.Warn("using the example jwt secret; set auth.jwt_secret for anything but local use")
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = e.config.Server.Addr()
	}

	issuer := auth.NewIssuer(e.config.Auth.JWTSecret, e.config.Auth.TokenTTL.Duration)
	srv := server.New(e.engine, issuer, server.Options{
		Server: e.config.Server,
		Auth:   e.config.Auth,
		Logger: r.logger,
	})

	return srv.ListenAndServe(ctx, addr)
}
