// Package tasks runs long maintenance and import jobs over the playlist store with
// real-time progress reporting.
//
// # Operations
//
//  1. [Runner.Reconcile] : rebuild cached listener counts from the listener ledger
//     - Fans playlists out to a bounded worker pool
//     - Reports every playlist whose cached count drifted
//
//  2. [Runner.Verify] : check that every playlist's positions are gapless
//     - Reports playlists with gaps, duplicates or negative positions
//     - Compacts them in place when asked to fix
//
//  3. [Runner.Seed] : import a PlaylisterData document
//     - Creates users with a shared default password, songs keyed by
//     title/artist/year with the first owner winning, and playlists in source order
//     - Skips invalid records instead of failing the import
//
// # Progress Reporting
//
// All operations accept a progress channel that may be nil. Updates are sent with select
// and default so a slow reader never blocks a job.
package tasks
