package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

const (
	defaultWorkers = 4
	maxWorkers     = 16
)

// Options configures a [Runner].
type Options struct {
	Workers int          // Concurrent workers for per-playlist jobs (default: 4)
	Client  *http.Client // Client used to fetch remote seed data
	Logger  *log.Logger
}

// Runner executes maintenance and import jobs.
type Runner struct {
	store   *repositories.Store
	engine  *engine.Engine
	client  *http.Client
	workers int
	logger  *log.Logger
}

// New creates a [Runner] over store and eng.
func New(store *repositories.Store, eng *engine.Engine, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Runner{
		store:   store,
		engine:  eng,
		client:  opts.Client,
		workers: opts.Workers,
		logger:  shared.WithLogger(opts.Logger, "component", "tasks"),
	}
}

// ListenerCorrection records one playlist's cached and ledger listener counts.
type ListenerCorrection struct {
	PlaylistID string `json:"playlistId"`
	Cached     int    `json:"cached"`
	Actual     int    `json:"actual"`
}

// ReconcileResult summarizes a [Runner.Reconcile] run.
type ReconcileResult struct {
	Checked     int                  `json:"checked"`
	Corrections []ListenerCorrection `json:"corrections"` // Playlists whose cached count drifted
	Failed      map[string]error     `json:"-"`
}

// targets resolves the playlists a job covers: playlistID alone, or every playlist.
func (r *Runner) targets(ctx context.Context, playlistID string) ([]string, error) {
	if playlistID != "" {
		if _, err := r.store.Repositories().Playlists.Get(ctx, playlistID); err != nil {
			return nil, err
		}
		return []string{playlistID}, nil
	}
	return r.store.Repositories().Playlists.IDs(ctx)
}

type reconcileOutcome struct {
	id         string
	correction ListenerCorrection
	err        error
}

// Reconcile rewrites cached listener counts from the ledger for playlistID, or for every
// playlist when playlistID is empty.
func (r *Runner) Reconcile(ctx context.Context, prog chan<- ProgressUpdate, playlistID string) (*ReconcileResult, error) {
	ids, err := r.targets(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	sendProgress(prog, fetchPlaylistsUpdate(len(ids)))

	jobs := make(chan string, len(ids))
	outcomes := make(chan reconcileOutcome, len(ids))

	var wg sync.WaitGroup
	for range min(r.workers, max(len(ids), 1)) {
		wg.Add(1)
		go r.reconcileWorker(ctx, &wg, jobs, outcomes)
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	result := &ReconcileResult{Failed: map[string]error{}}
	for o := range outcomes {
		result.Checked++
		if o.err != nil {
			result.Failed[o.id] = o.err
			sendProgress(prog, reconcileFailedUpdate(result.Checked, len(ids), o.id, o.err))
			continue
		}
		if o.correction.Cached != o.correction.Actual {
			result.Corrections = append(result.Corrections, o.correction)
		}
		sendProgress(prog, reconciledUpdate(result.Checked, len(ids), o.correction))
	}

	sort.Slice(result.Corrections, func(i, j int) bool {
		return result.Corrections[i].PlaylistID < result.Corrections[j].PlaylistID
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Runner) reconcileWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan string, outcomes chan<- reconcileOutcome) {
	defer wg.Done()

	for id := range jobs {
		if ctx.Err() != nil {
			outcomes <- reconcileOutcome{id: id, err: ctx.Err()}
			continue
		}

		playlist, err := r.store.Repositories().Playlists.Get(ctx, id)
		if err != nil {
			outcomes <- reconcileOutcome{id: id, err: err}
			continue
		}

		actual, err := r.engine.ReconcileListenerCount(ctx, id)
		outcomes <- reconcileOutcome{
			id:         id,
			correction: ListenerCorrection{PlaylistID: id, Cached: playlist.ListenerCount, Actual: actual},
			err:        err,
		}
	}
}

// PositionIssue describes a playlist whose positions are not exactly 0..n-1.
type PositionIssue struct {
	PlaylistID string `json:"playlistId"`
	Positions  []int  `json:"positions"`
	Fixed      bool   `json:"fixed"`
}

// VerifyResult summarizes a [Runner.Verify] run.
type VerifyResult struct {
	Checked int             `json:"checked"`
	Issues  []PositionIssue `json:"issues"`
}

// gapless reports whether positions, in order, are exactly 0..n-1.
func gapless(positions []int) bool {
	for i, p := range positions {
		if p != i {
			return false
		}
	}
	return true
}

// Verify checks every playlist for gapless positions and, when fix is set, compacts those
// that are not.
func (r *Runner) Verify(ctx context.Context, prog chan<- ProgressUpdate, fix bool) (*VerifyResult, error) {
	ids, err := r.targets(ctx, "")
	if err != nil {
		return nil, err
	}
	sendProgress(prog, fetchPlaylistsUpdate(len(ids)))

	result := &VerifyResult{}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		members, err := r.store.Repositories().Memberships.List(ctx, id)
		if err != nil {
			return result, fmt.Errorf("failed to list playlist %s: %w", id, err)
		}
		result.Checked++

		positions := make([]int, len(members))
		for j, m := range members {
			positions[j] = m.Position
		}

		if gapless(positions) {
			sendProgress(prog, verifyUpdate(i+1, len(ids), nil, id))
			continue
		}

		issue := PositionIssue{PlaylistID: id, Positions: positions}
		sendProgress(prog, verifyUpdate(i+1, len(ids), &issue, id))
		r.logger.Warn("positions are not gapless", "playlist", id, "positions", positions)

		if fix {
			if _, err := r.engine.CompactPlaylist(ctx, id); err != nil {
				return result, fmt.Errorf("failed to compact playlist %s: %w", id, err)
			}
			issue.Fixed = true
			sendProgress(prog, compactUpdate(i+1, len(ids), id))
		}
		result.Issues = append(result.Issues, issue)
	}

	return result, nil
}
