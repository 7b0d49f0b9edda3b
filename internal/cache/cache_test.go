package cache

import (
	"context"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\"): %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGlobalRankOrdersByDescendingScore(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Update(ctx, 0, 1, 1000); err != nil {
		t.Fatalf("Update(1): %v", err)
	}
	if err := c.Update(ctx, 0, 2, 5000); err != nil {
		t.Fatalf("Update(2): %v", err)
	}
	if err := c.Update(ctx, 0, 3, 2500); err != nil {
		t.Fatalf("Update(3): %v", err)
	}

	cases := []struct {
		userID   int32
		wantRank int32
	}{
		{2, 1},
		{3, 2},
		{1, 3},
	}
	for _, tc := range cases {
		rank, err := c.GlobalRank(ctx, 0, tc.userID)
		if err != nil {
			t.Fatalf("GlobalRank(%d): %v", tc.userID, err)
		}
		if rank != tc.wantRank {
			t.Errorf("GlobalRank(%d) = %d, want %d", tc.userID, rank, tc.wantRank)
		}
	}
}

func TestGlobalRankUnknownUserIsZero(t *testing.T) {
	c := openTestCache(t)
	rank, err := c.GlobalRank(context.Background(), 0, 99)
	if err != nil {
		t.Fatalf("GlobalRank: %v", err)
	}
	if rank != 0 {
		t.Errorf("GlobalRank(unranked) = %d, want 0", rank)
	}
}

func TestRemoveDropsFromLeaderboard(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	c.Update(ctx, 0, 1, 1000)
	c.Update(ctx, 0, 2, 2000)
	if err := c.Remove(ctx, 0, 2); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	rank, err := c.GlobalRank(ctx, 0, 2)
	if err != nil {
		t.Fatalf("GlobalRank: %v", err)
	}
	if rank != 0 {
		t.Errorf("GlobalRank(removed) = %d, want 0", rank)
	}
}

func TestIncrementDecrementUsercount(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	n, err := c.Increment(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Increment() = %d, %v, want 1, nil", n, err)
	}
	n, _ = c.Increment(ctx)
	if n != 2 {
		t.Errorf("Increment() = %d, want 2", n)
	}
	n, err = c.Decrement(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Decrement() = %d, %v, want 1, nil", n, err)
	}
}

func TestDecrementFloorsAtZero(t *testing.T) {
	c := openTestCache(t)
	n, err := c.Decrement(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("Decrement() at zero = %d, %v, want 0, nil", n, err)
	}
}

func TestStatusUpdateAndDelete(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.StatusUpdate(ctx, 1, 2, "playing a map"); err != nil {
		t.Fatalf("StatusUpdate: %v", err)
	}
	if err := c.StatusDelete(ctx, 1); err != nil {
		t.Fatalf("StatusDelete: %v", err)
	}
}
