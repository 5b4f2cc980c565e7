// Package session keeps the link a chat user is about to download while they
// pick a format.
package session

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a pending choice stays valid.
const DefaultTTL = 10 * time.Minute

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Entry is one pending choice.
type Entry struct {
	VideoID    string    `json:"video_id,omitempty"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	Title      string    `json:"title"`
	ChatID     int64     `json:"chat_id"`
	MessageID  int       `json:"message_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store maps a user id to their pending Entry. Get and Take return
// ErrExpired for entries older than the store's TTL and drop them. Take
// removes the entry in the same step, so only one caller can claim it.
type Store interface {
	Put(ctx context.Context, userID int64, e Entry) error
	Get(ctx context.Context, userID int64) (Entry, error)
	Take(ctx context.Context, userID int64) (Entry, error)
	Len(ctx context.Context) (int, error)
}

func expired(e Entry, now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.CreatedAt) > ttl
}
