// Package events publishes domain events after committed mutations.
//
// Publishing is best-effort: subscribers learn about changes but the database remains
// the source of truth, so callers log publish failures instead of failing the mutation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Type names a domain event.
type Type string

const (
	PlaylistCreated          Type = "playlist.created"
	PlaylistRenamed          Type = "playlist.renamed"
	PlaylistDeleted          Type = "playlist.deleted"
	PlaylistCopied           Type = "playlist.copied"
	PlaylistSongAdded        Type = "playlist.song_added"
	PlaylistSongRemoved      Type = "playlist.song_removed"
	PlaylistReordered        Type = "playlist.reordered"
	PlaylistListenerRecorded Type = "playlist.listener_recorded"
	SongCreated              Type = "song.created"
	SongCopied               Type = "song.copied"
	SongDeleted              Type = "song.deleted"
)

// Event is the JSON envelope sent to subscribers.
type Event struct {
	Type       Type           `json:"type"`
	PlaylistID string         `json:"playlistId,omitempty"`
	SongID     string         `json:"songId,omitempty"`
	ActorID    string         `json:"actorId,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	At         time.Time      `json:"at"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPublisher publishes JSON events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *log.Logger
}

// NewRedisPublisher connects to the Redis server at url (redis://host:port/db).
func NewRedisPublisher(ctx context.Context, url, channel string, logger *log.Logger) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return NewRedisPublisherWithClient(client, channel, logger), nil
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client *redis.Client, channel string, logger *log.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Publish encodes ev and publishes it. A zero At is stamped with the current time.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", ev.Type, err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, body).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", ev.Type, err)
	}

	if p.logger != nil {
		p.logger.Debug("event published", "type", ev.Type, "channel", p.channel, "receivers", receivers)
	}
	return nil
}

// Close releases the Redis connection pool.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}
