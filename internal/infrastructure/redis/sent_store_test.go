package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestSentStore_SeenAfterMark(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	defer c.Close()
	s := NewSentStore(c)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "mail:sent:1")
	if err != nil || seen {
		t.Fatalf("expected unseen, got %v %v", seen, err)
	}

	if err := s.MarkSent(ctx, "mail:sent:1", time.Hour); err != nil {
		t.Fatalf("mark: %v", err)
	}
	// second mark is a no-op
	if err := s.MarkSent(ctx, "mail:sent:1", time.Hour); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	seen, err = s.Seen(ctx, "mail:sent:1")
	if err != nil || !seen {
		t.Fatalf("expected seen, got %v %v", seen, err)
	}

	mr.FastForward(2 * time.Hour)
	if seen, _ := s.Seen(ctx, "mail:sent:1"); seen {
		t.Fatalf("expected key to expire")
	}
}

func TestSentStore_EmptyKey(t *testing.T) {
	t.Parallel()

	s := NewSentStore(New("127.0.0.1:1", "", 0))
	if _, err := s.Seen(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if err := s.MarkSent(context.Background(), "", time.Minute); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
