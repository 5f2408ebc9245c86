package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlister/internal/shared"
	"github.com/desertthunder/playlister/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Seed imports a PlaylisterData document from --file or --url.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	file, url := cmd.String("file"), cmd.String("url")

	switch {
	case file == "" && url == "":
		return fmt.Errorf("%w: either --file or --url must be provided", shared.ErrMissingArgument)
	case file != "" && url != "":
		return fmt.Errorf("%w: cannot specify both --file and --url", shared.ErrInvalidArgument)
	}

	source := file
	if url == "default" {
		source = tasks.DefaultSeedURL
	} else if url != "" {
		source = url
	}

	e, err := r.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	asJSON := cmd.Bool("json")
	prog := make(chan tasks.ProgressUpdate, 100)
	done := r.progress(prog, asJSON)

	result, err := r.jobs(e, 0).SeedFrom(ctx, prog, source, tasks.SeedOptions{
		Clear:    cmd.Bool("clear"),
		Password: cmd.String("password"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(result, true)
	}

	r.writePlainln("")
	r.writePlainHeader("Seed complete")
	r.writePlain("Users:     %d created, %d existing, %d skipped\n", result.UsersCreated, result.UsersExisting, result.UsersSkipped)
	r.writePlain("Songs:     %d created, %d skipped\n", result.SongsCreated, result.SongsSkipped)
	r.writePlain("Playlists: %d created, %d skipped\n", result.PlaylistsCreated, result.PlaylistsSkipped)
	r.writePlain("Entries:   %d\n", result.Entries)
	return nil
}

type reconcileReport struct {
	*tasks.ReconcileResult
	Failures map[string]string `json:"failures,omitempty"`
}

// Reconcile recomputes cached listener counts from the ledger.
func (r *Runner) Reconcile(ctx context.Context, cmd *cli.Command) error {
	e, err := r.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	asJSON := cmd.Bool("json")
	prog := make(chan tasks.ProgressUpdate, 100)
	done := r.progress(prog, asJSON)

	result, err := r.jobs(e, int(cmd.Int("workers"))).Reconcile(ctx, prog, cmd.String("playlist-id"))
	close(prog)
	<-done
	if err != nil {
		return err
	}

	report := reconcileReport{ReconcileResult: result}
	if len(result.Failed) > 0 {
		report.Failures = make(map[string]string, len(result.Failed))
		for id, err := range result.Failed {
			report.Failures[id] = err.Error()
		}
	}

	if asJSON {
		if err := r.writeJSON(report, true); err != nil {
			return err
		}
	} else {
		r.writePlainln("")
		r.writePlainHeader("Reconcile complete")
		r.writePlain("Checked:   %d\n", result.Checked)
		r.writePlain("Corrected: %d\n", len(result.Corrections))
		for _, c := range result.Corrections {
			r.writePlain("  %s: %d → %d\n", c.PlaylistID, c.Cached, c.Actual)
		}
		for id, msg := range report.Failures {
			r.writePlain("  ✗ %s: %s\n", id, msg)
		}
	}

	if len(result.Failed) > 0 {
		return fmt.Errorf("%d playlists failed to reconcile", len(result.Failed))
	}
	return nil
}

// Verify checks every playlist for gapless positions, compacting them with --fix.
func (r *Runner) Verify(ctx context.Context, cmd *cli.Command) error {
	e, err := r.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	asJSON, fix := cmd.Bool("json"), cmd.Bool("fix")
	prog := make(chan tasks.ProgressUpdate, 100)
	done := r.progress(prog, asJSON)

	result, err := r.jobs(e, 0).Verify(ctx, prog, fix)
	close(prog)
	<-done
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(result, true)
	}

	r.writePlainln("")
	r.writePlainHeader("Verify complete")
	r.writePlain("Checked: %d\n", result.Checked)
	r.writePlain("Issues:  %d\n", len(result.Issues))
	for _, issue := range result.Issues {
		status := "not fixed"
		if issue.Fixed {
			status = "compacted"
		}
		r.writePlain("  %s: %v (%s)\n", issue.PlaylistID, issue.Positions, status)
	}

	if len(result.Issues) > 0 && !fix {
		r.writePlainln("Run with --fix to compact these playlists.")
	}
	return nil
}

// progress streams updates to the output unless quiet is set, in which case they are
// discarded.
func (r *Runner) progress(prog <-chan tasks.ProgressUpdate, quiet bool) <-chan struct{} {
	if !quiet {
		return r.watch(prog)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range prog {
		}
	}()
	return done
}
