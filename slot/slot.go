// Package slot provides best-effort durable key/value slots for client-side
// state such as the cart and the signed-in session.
package slot

import (
	"context"
	"fmt"
	"sync"
)

// Slot holds one serialized value. Load reports ok=false when nothing is stored.
type Slot interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) (data []byte, ok bool, err error)
	Clear(ctx context.Context) error
}

// Options configures NewSlot
type Options struct {
	Path      string // file backend
	RedisAddr string // redis backend
	Key       string // redis backend
}

// NewSlot constructs a Slot by kind: "memory", "file" or "redis".
func NewSlot(kind string, opts Options) (Slot, error) {
	switch kind {
	case "memory", "mem":
		return NewMemorySlot(), nil
	case "file":
		if opts.Path == "" {
			return nil, fmt.Errorf("file path required for file slot")
		}
		return NewFileSlot(opts.Path), nil
	case "redis":
		if opts.RedisAddr == "" || opts.Key == "" {
			return nil, fmt.Errorf("redis address and key required for redis slot")
		}
		return NewRedisSlot(opts.RedisAddr, opts.Key), nil
	default:
		return nil, fmt.Errorf("unknown slot kind: %s", kind)
	}
}

// MemorySlot keeps the value in process memory
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

var _ Slot = (*MemorySlot)(nil)

func (s *MemorySlot) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}

func (s *MemorySlot) Load(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, false, nil
	}
	return append([]byte(nil), s.data...), true, nil
}

func (s *MemorySlot) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.set = false
	return nil
}
