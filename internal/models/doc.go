// Package models defines the domain entities of the playlist service and the persistence contract their repositories satisfy.
//
// Entities:
//   - [User] : registered account, owner of songs and playlists
//   - [Song] : catalog entry identified by (title, artist, year, owner)
//   - [Playlist] : named, owned list with a cached listener count
//   - [Membership] : a song's slot in a playlist, at a dense zero-based position
//   - [Listener] : one row of the distinct-listener ledger
//
// Read-side shapes include [PlaylistEntry], [PlaylistDetail] and [PublicUser].
// [PlaylistFilter] and [SongFilter] carry the conjunctive search predicates and sort keys accepted by list operations.
//
// Every persisted entity implements [Model]; [Repository] is the CRUD shape shared by the entity repositories.
package models
