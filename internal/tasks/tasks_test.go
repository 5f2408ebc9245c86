package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/playlister/internal/engine"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
	tu "github.com/desertthunder/playlister/internal/testing"
)

func setupRunner(t *testing.T, opts Options) (*Runner, *engine.Engine, *repositories.Store) {
	t.Helper()
	store := tu.NewTestStore(t)
	eng := engine.New(store, engine.Options{})
	return New(store, eng, opts), eng, store
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	close(ch)
	var updates []ProgressUpdate
	for u := range ch {
		updates = append(updates, u)
	}
	return updates
}

func TestPhaseString(t *testing.T) {
	tc := map[Phase]string{
		FetchPlaylists:     "fetch_playlists",
		ReconcileListeners: "reconcile_listeners",
		VerifyPositions:    "verify_positions",
		CompactPositions:   "compact_positions",
		SeedPlaylists:      "seed_playlists",
		Phase(99):          "",
	}
	for p, want := range tc {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}

func TestSendProgress(t *testing.T) {
	sendProgress(nil, ProgressUpdate{})

	ch := make(chan ProgressUpdate, 1)
	sendProgress(ch, ProgressUpdate{Message: "first"})
	sendProgress(ch, ProgressUpdate{Message: "dropped"})

	if got := drain(ch); len(got) != 1 || got[0].Message != "first" {
		t.Errorf("expected only the first update, got %v", got)
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("restores drifted counts", func(t *testing.T) {
		r, eng, store := setupRunner(t, Options{Workers: 3})
		owner := tu.MustCreateUser(t, store, "ada")
		playlists := []string{
			tu.MustCreatePlaylist(t, store, "A", owner.ID).ID,
			tu.MustCreatePlaylist(t, store, "B", owner.ID).ID,
			tu.MustCreatePlaylist(t, store, "C", owner.ID).ID,
		}

		for i, id := range playlists {
			for j := range i + 1 {
				if _, err := eng.RecordListener(ctx, id, "guest_"+string(rune('a'+j))); err != nil {
					t.Fatalf("RecordListener() error: %v", err)
				}
			}
		}

		repos := store.Repositories()
		if err := repos.Playlists.SetListenerCount(ctx, playlists[0], 40); err != nil {
			t.Fatal(err)
		}
		if err := repos.Playlists.SetListenerCount(ctx, playlists[2], 0); err != nil {
			t.Fatal(err)
		}

		prog := make(chan ProgressUpdate, 10)
		result, err := r.Reconcile(ctx, prog, "")
		if err != nil {
			t.Fatalf("Reconcile() error: %v", err)
		}

		if result.Checked != 3 || len(result.Failed) != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(result.Corrections) != 2 {
			t.Fatalf("expected 2 corrections, got %+v", result.Corrections)
		}

		for i, id := range playlists {
			p, err := repos.Playlists.Get(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if p.ListenerCount != i+1 {
				t.Errorf("playlist %d: expected %d listeners, got %d", i, i+1, p.ListenerCount)
			}
		}

		updates := drain(prog)
		if len(updates) != 4 || updates[0].Phase != FetchPlaylists {
			t.Errorf("unexpected progress: %v", updates)
		}
	})

	t.Run("single playlist", func(t *testing.T) {
		r, _, store := setupRunner(t, Options{})
		owner := tu.MustCreateUser(t, store, "ada")
		p := tu.MustCreatePlaylist(t, store, "A", owner.ID)
		if err := store.Repositories().Playlists.SetListenerCount(ctx, p.ID, 7); err != nil {
			t.Fatal(err)
		}

		result, err := r.Reconcile(ctx, nil, p.ID)
		if err != nil {
			t.Fatalf("Reconcile() error: %v", err)
		}
		want := []ListenerCorrection{{PlaylistID: p.ID, Cached: 7, Actual: 0}}
		if !slices.Equal(result.Corrections, want) {
			t.Errorf("corrections = %+v, want %+v", result.Corrections, want)
		}

		if _, err := r.Reconcile(ctx, nil, "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("no playlists", func(t *testing.T) {
		r, _, _ := setupRunner(t, Options{})
		result, err := r.Reconcile(ctx, nil, "")
		if err != nil || result.Checked != 0 {
			t.Errorf("Reconcile() = %+v, %v", result, err)
		}
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	r, _, store := setupRunner(t, Options{})
	owner := tu.MustCreateUser(t, store, "ada")
	songs := tu.Songs(t, store, "S", owner.ID, 3)
	healthy := tu.MustCreatePlaylist(t, store, "Healthy", owner.ID, songs...)
	broken := tu.MustCreatePlaylist(t, store, "Broken", owner.ID, songs...)

	// Open a gap at position 1 without going through the engine.
	if _, err := store.DB().ExecContext(ctx,
		"UPDATE playlist_songs SET position = position + 10 WHERE playlist_id = ? AND position >= 1", broken.ID,
	); err != nil {
		t.Fatalf("failed to corrupt positions: %v", err)
	}

	t.Run("reports without fixing", func(t *testing.T) {
		result, err := r.Verify(ctx, nil, false)
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if result.Checked != 2 || len(result.Issues) != 1 {
			t.Fatalf("unexpected result: %+v", result)
		}

		issue := result.Issues[0]
		if issue.PlaylistID != broken.ID || issue.Fixed || !slices.Equal(issue.Positions, []int{0, 11, 12}) {
			t.Errorf("unexpected issue: %+v", issue)
		}
	})

	t.Run("fixes", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 10)
		result, err := r.Verify(ctx, prog, true)
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if len(result.Issues) != 1 || !result.Issues[0].Fixed {
			t.Fatalf("unexpected result: %+v", result)
		}

		tu.AssertGapless(t, store, broken.ID, tu.IDs(songs...)...)
		tu.AssertGapless(t, store, healthy.ID, tu.IDs(songs...)...)

		phases := []Phase{}
		for _, u := range drain(prog) {
			phases = append(phases, u.Phase)
		}
		if !slices.Contains(phases, CompactPositions) {
			t.Errorf("expected a compaction update, got %v", phases)
		}
	})

	t.Run("clean after fix", func(t *testing.T) {
		result, err := r.Verify(ctx, nil, false)
		if err != nil || len(result.Issues) != 0 {
			t.Errorf("Verify() = %+v, %v", result, err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := r.Verify(cancelled, nil, false); err == nil {
			t.Error("expected an error for a cancelled context")
		}
	})
}

func TestGapless(t *testing.T) {
	tc := []struct {
		positions []int
		want      bool
	}{
		{nil, true},
		{[]int{0, 1, 2}, true},
		{[]int{1, 2}, false},
		{[]int{0, 2}, false},
		{[]int{-1, 0}, false},
	}
	for _, tt := range tc {
		if got := gapless(tt.positions); got != tt.want {
			t.Errorf("gapless(%v) = %v, want %v", tt.positions, got, tt.want)
		}
	}
}
