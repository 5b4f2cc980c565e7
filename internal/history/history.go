// Package history records what the bot downloaded and what the bridge
// relayed, for later inspection.
package history

import (
	"context"
	"time"
)

// Entry kinds.
const (
	KindDownload = "download"
	KindRelay    = "relay"
)

// Entry is one recorded event.
type Entry struct {
	Kind     string    `bson:"kind"`
	ChatID   int64     `bson:"chat_id"`
	From     string    `bson:"from,omitempty"`
	Target   string    `bson:"target,omitempty"`
	Media    string    `bson:"media,omitempty"` // text | photo | video | document | audio
	Title    string    `bson:"title,omitempty"`
	FileName string    `bson:"file_name,omitempty"`
	Bytes    int64     `bson:"bytes,omitempty"`
	Success  bool      `bson:"success"`
	Error    string    `bson:"error,omitempty"`
	At       time.Time `bson:"at"`
}

// Recorder persists entries. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close(ctx context.Context) error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
func (Nop) Close(context.Context) error         { return nil }
