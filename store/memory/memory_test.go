package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unkn0wn-root/ddbsession/store"
)

var k1 = store.Key{Name: "id", Value: "s1"}

func TestFetchMissing(t *testing.T) {
	s := New()
	if _, err := s.Fetch(context.Background(), k1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSavePartialCreatesAndChecksExpectations(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SavePartial(ctx, k1, []store.Change{{Name: "a", Value: 1}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	it, err := s.Fetch(ctx, k1)
	if err != nil {
		t.Fatal(err)
	}
	if it["id"] != "s1" || it["a"] != 1 {
		t.Fatalf("unexpected item %v", it)
	}

	// attribute now exists; expecting absence must fail
	err = s.SavePartial(ctx, k1, []store.Change{{Name: "a", Value: 2}})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}

	// stale expected value must fail and write nothing
	err = s.SavePartial(ctx, k1, []store.Change{
		{Name: "b", Value: "x"},
		{Name: "a", Value: 3, Expected: 7, Existed: true},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if it, _ := s.Fetch(ctx, k1); it["b"] != nil {
		t.Fatalf("partial write leaked on conflict: %v", it)
	}

	// numeric types are compared by value
	err = s.SavePartial(ctx, k1, []store.Change{{Name: "a", Delete: true, Expected: float64(1), Existed: true}})
	if err != nil {
		t.Fatalf("delete with matching expectation: %v", err)
	}
	if it, _ := s.Fetch(ctx, k1); len(it) != 1 {
		t.Fatalf("want only key attribute, got %v", it)
	}
}

func TestFetchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SavePartial(ctx, k1, []store.Change{{Name: "m", Value: map[string]any{"n": 1}}})

	it, _ := s.Fetch(ctx, k1)
	it["m"].(map[string]any)["n"] = 99

	again, _ := s.Fetch(ctx, k1)
	if again["m"].(map[string]any)["n"] != 1 {
		t.Fatalf("caller mutation reached the store")
	}
}

func TestSweepDropsIdle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	_ = s.SavePartial(ctx, k1, []store.Change{{Name: "a", Value: 1}})
	now = now.Add(2 * time.Minute)
	s.Sweep(time.Minute)

	if s.Len() != 0 {
		t.Fatalf("idle item not swept")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := NewWithExpiry(10*time.Millisecond, time.Hour)
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}
