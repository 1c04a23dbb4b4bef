package notify

import (
	"context"
	"testing"

	"github.com/mumairryk/BookingApp/internal/booking"
)

type fakeLangSource struct {
	names map[int64]string
	calls int
}

func (f *fakeLangSource) LanguageName(_ context.Context, id int64) (string, error) {
	f.calls++
	name, ok := f.names[id]
	if !ok {
		return "", booking.ErrNotFound
	}
	return name, nil
}

func TestLanguageCacheDelegatesToSource(t *testing.T) {
	src := &fakeLangSource{names: map[int64]string{1: "engelska"}}
	c := NewLanguageCache(src)

	if got := c.Name(context.Background(), 1); got != "engelska" {
		t.Fatalf("Name = %q, want engelska", got)
	}
	if got := c.Name(context.Background(), 1); got != "engelska" {
		t.Fatalf("cached Name = %q, want engelska", got)
	}
	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1", src.calls)
	}
}

func TestLanguageCacheMissReturnsEmpty(t *testing.T) {
	src := &fakeLangSource{}
	c := NewLanguageCache(src)

	if got := c.Name(context.Background(), 9); got != "" {
		t.Fatalf("Name = %q, want empty on lookup failure", got)
	}
	// Failures are not cached; the next call retries the source.
	c.Name(context.Background(), 9)
	if src.calls != 2 {
		t.Fatalf("source called %d times, want 2", src.calls)
	}
}
