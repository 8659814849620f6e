package persistence

import (
	"context"
	"encoding/json"
)

// Backend stores opaque payloads under collection keys.
type Backend interface {
	// Read returns ErrKeyNotFound when key has never been written or was deleted.
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, payload []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
	Driver() string
	Close() error
}

// BatchWriter is implemented by backends able to write several keys all-or-nothing.
type BatchWriter interface {
	WriteBatch(ctx context.Context, payloads map[string][]byte) error
}

// Codec converts collections to and from their persisted textual form.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec persists collections as JSON arrays.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
