// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository runs its statements against a [DBTX], which is either the pool or the
// transaction opened by [Store.Transact]. Constraint failures reported by SQLite are
// translated into the shared error taxonomy: unique and primary key violations wrap
// shared.ErrConflict and foreign key violations wrap shared.ErrNotFound.
//
// Key Implementations:
//   - [UserRepository] : accounts with email and username lookups
//   - [SongRepository] : the song catalog with filtered, sorted listing
//   - [PlaylistRepository] : owned playlists with search predicates and listener counter
//   - [MembershipRepository] : ordered playlist/song join rows with dense positions
//   - [ListenerRepository] : insert-if-absent listener ledger
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42, playlist #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function increments per-table sequence counters in dedicated sequence tables, inside the caller's transaction.
package repositories
