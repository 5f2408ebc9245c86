package main

import (
	"context"

	"github.com/desertthunder/playlister/internal/formatter"
	"github.com/urfave/cli/v3"
)

// PlaylistExport renders a playlist to stdout, or to --output when given.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	e, err := r.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	detail, err := e.engine.GetPlaylist(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		return formatter.Export(r.output, detail, format)
	}

	path, err := formatter.WriteExport(detail, format, output)
	if err != nil {
		return err
	}

	r.logger.Info("exported playlist", "playlist", detail.Name, "songs", len(detail.Songs), "path", path)
	return nil
}
