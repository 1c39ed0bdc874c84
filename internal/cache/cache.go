package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/podushkina/taskflow/internal/task"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

const (
	Namespace    = "tasks"
	KeySeparator = "::"
	DefaultTTL   = 10 * time.Minute
)

// Cache is a byte-level key-value store with expiring entries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Prefix is the namespace prefix every task cache key starts with.
func Prefix() string {
	return Namespace + KeySeparator
}

func AllKey() string {
	return Prefix() + "all"
}

func IDKey(id int64) string {
	return Prefix() + strconv.FormatInt(id, 10)
}

func StatusKey(s task.Status) string {
	return StatusPrefix() + string(s)
}

func StatusPrefix() string {
	return Prefix() + "status-"
}

func PriorityKey(p task.Priority) string {
	return PriorityPrefix() + string(p)
}

func PriorityPrefix() string {
	return Prefix() + "priority-"
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Load reads key and decodes it into T. A missing entry, or one whose type tag
// names a different type, is reported as ErrMiss.
func Load[T any](ctx context.Context, c Cache, key string) (T, error) {
	var zero T

	data, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, fmt.Errorf("decode envelope %s: %w", key, err)
	}
	if env.Type != TypeTag[T]() {
		return zero, ErrMiss
	}

	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return zero, fmt.Errorf("decode payload %s: %w", key, err)
	}
	return v, nil
}

// Store encodes v with its type tag and writes it under key. Nil values are skipped.
func Store[T any](ctx context.Context, c Cache, key string, v T, ttl time.Duration) error {
	if isNil(v) {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload %s: %w", key, err)
	}
	data, err := json.Marshal(envelope{Type: TypeTag[T](), Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", key, err)
	}

	return c.Set(ctx, key, data, ttl)
}

// TypeTag returns the fully-qualified name of T, e.g.
// "[]github.com/podushkina/taskflow/internal/task.Response".
func TypeTag[T any]() string {
	return qualifiedName(reflect.TypeOf((*T)(nil)).Elem())
}

func qualifiedName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Slice:
		return "[]" + qualifiedName(t.Elem())
	case reflect.Pointer:
		return "*" + qualifiedName(t.Elem())
	case reflect.Map:
		return "map[" + qualifiedName(t.Key()) + "]" + qualifiedName(t.Elem())
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
