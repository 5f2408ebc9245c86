package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	ReconcileListeners
	VerifyPositions
	CompactPositions
	FetchSeed
	ClearData
	SeedUsers
	SeedSongs
	SeedPlaylists
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case ReconcileListeners:
		return "reconcile_listeners"
	case VerifyPositions:
		return "verify_positions"
	case CompactPositions:
		return "compact_positions"
	case FetchSeed:
		return "fetch_seed"
	case ClearData:
		return "clear_data"
	case SeedUsers:
		return "seed_users"
	case SeedSongs:
		return "seed_songs"
	case SeedPlaylists:
		return "seed_playlists"
	default:
		return ""
	}
}

// sendProgress delivers u without blocking.
func sendProgress(ch chan<- ProgressUpdate, u ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- u:
	default:
	}
}

func fetchPlaylistsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Total:   total,
		Message: fmt.Sprintf("Found %d playlists", total),
	}
}

func reconciledUpdate(step, total int, c ListenerCorrection) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s: %d listeners", step, total, c.PlaylistID, c.Actual)
	if c.Cached != c.Actual {
		msg = fmt.Sprintf("[%d/%d] %s: corrected %d → %d", step, total, c.PlaylistID, c.Cached, c.Actual)
	}
	return ProgressUpdate{
		Phase:   ReconcileListeners,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    c,
	}
}

func reconcileFailedUpdate(step, total int, id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcileListeners,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
	}
}

func verifyUpdate(step, total int, issue *PositionIssue, id string) ProgressUpdate {
	if issue == nil {
		return ProgressUpdate{
			Phase:   VerifyPositions,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, id),
		}
	}
	return ProgressUpdate{
		Phase:   VerifyPositions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: positions %v", step, total, id, issue.Positions),
		Data:    *issue,
	}
}

func compactUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CompactPositions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] compacted %s", step, total, id),
	}
}

func fetchSeedUpdate(source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSeed,
		Message: fmt.Sprintf("Loading seed data from %s...", source),
	}
}

func clearDataUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearData,
		Message: "Clearing existing data...",
	}
}

func seedUpdate(phase Phase, step, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, message),
	}
}
