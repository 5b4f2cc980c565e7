package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeColl struct {
	docs []interface{}
	err  error
}

func (f *fakeColl) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, doc)
	return &mongo.InsertOneResult{InsertedID: len(f.docs)}, nil
}

func TestMongo_Record(t *testing.T) {
	coll := &fakeColl{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := &Mongo{coll: coll, now: func() time.Time { return at }}

	if err := m.Record(context.Background(), Entry{Kind: KindRelay, Media: "text", Success: true}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(coll.docs) != 1 {
		t.Fatalf("expected one insert, got %d", len(coll.docs))
	}
	got := coll.docs[0].(Entry)
	if !got.At.Equal(at) || got.Kind != KindRelay {
		t.Errorf("unexpected doc %+v", got)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Errorf("Close without client: %v", err)
	}
}

func TestMongo_RecordError(t *testing.T) {
	m := &Mongo{coll: &fakeColl{err: errors.New("no primary")}, now: time.Now}
	if err := m.Record(context.Background(), Entry{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	if err := r.Record(context.Background(), Entry{}); err != nil {
		t.Fatal(err)
	}
}
