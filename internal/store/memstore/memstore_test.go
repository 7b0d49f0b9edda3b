package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/chordwave/lobby/internal/store"
)

func TestFetchByNameIsCaseInsensitive(t *testing.T) {
	s := New()
	s.Seed(store.User{ID: 5, Name: "PlayerOne"})

	u, err := s.FetchByName(context.Background(), "playerone")
	if err != nil {
		t.Fatalf("FetchByName: %v", err)
	}
	if u.ID != 5 {
		t.Errorf("FetchByName().ID = %d, want 5", u.ID)
	}

	if _, err := s.FetchByName(context.Background(), "nobody"); err != store.ErrNotFound {
		t.Errorf("FetchByName(unknown) = %v, want ErrNotFound", err)
	}
}

func TestUpdateOnlyTouchesProvidedFields(t *testing.T) {
	s := New()
	s.Seed(store.User{ID: 1, Name: "a", Country: "US", Permissions: 1})

	restricted := true
	if err := s.Update(context.Background(), 1, store.UserFields{Restricted: &restricted}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	u, _ := s.FetchByID(context.Background(), 1)
	if !u.Restricted {
		t.Errorf("Restricted not applied")
	}
	if u.Country != "US" || u.Permissions != 1 {
		t.Errorf("Update() touched fields it shouldn't have: %+v", u)
	}
}

func TestUpdateUnknownUserErrors(t *testing.T) {
	s := New()
	if err := s.Update(context.Background(), 99, store.UserFields{}); err != store.ErrNotFound {
		t.Errorf("Update(unknown) = %v, want ErrNotFound", err)
	}
}

func TestRelationshipsCreateDeleteFriends(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Create(ctx, 1, 2)
	s.Create(ctx, 1, 3)

	friends, err := s.Friends(ctx, 1)
	if err != nil {
		t.Fatalf("Friends: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("Friends() = %v, want 2 entries", friends)
	}

	s.Delete(ctx, 1, 2)
	friends, _ = s.Friends(ctx, 1)
	if len(friends) != 1 || friends[0] != 3 {
		t.Errorf("Friends() after delete = %v, want [3]", friends)
	}
}

func TestMatchLifecycleAllocatesIncrementingIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.CreateMatch(ctx, store.MatchRecord{Name: "first"})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	id2, _ := s.CreateMatch(ctx, store.MatchRecord{Name: "second"})
	if id2 != id1+1 {
		t.Errorf("second match id = %d, want %d", id2, id1+1)
	}

	rec, err := s.FetchMatchByID(ctx, id1)
	if err != nil || rec.Name != "first" {
		t.Fatalf("FetchMatchByID(%d) = %+v, %v", id1, rec, err)
	}

	if err := s.DeleteMatch(ctx, id1); err != nil {
		t.Fatalf("DeleteMatch: %v", err)
	}
	if _, err := s.FetchMatchByID(ctx, id1); err != store.ErrNotFound {
		t.Errorf("FetchMatchByID(deleted) = %v, want ErrNotFound", err)
	}
}

func TestEventsFetchLastByKindReturnsMostRecent(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	s.CreateEvent(ctx, store.Event{MatchID: 1, Kind: store.EventJoin, At: now})
	s.CreateEvent(ctx, store.Event{MatchID: 1, Kind: store.EventStart, At: now.Add(time.Second)})
	s.CreateEvent(ctx, store.Event{MatchID: 1, Kind: store.EventStart, At: now.Add(2 * time.Second)})

	ev, err := s.FetchLastByKind(ctx, 1, store.EventStart)
	if err != nil {
		t.Fatalf("FetchLastByKind: %v", err)
	}
	want := now.Add(2 * time.Second)
	if !ev.At.Equal(want) {
		t.Errorf("FetchLastByKind().At = %v, want %v (the most recently archived Start)", ev.At, want)
	}

	if _, err := s.FetchLastByKind(ctx, 1, store.EventDisband); err != store.ErrNotFound {
		t.Errorf("FetchLastByKind(no such kind) = %v, want ErrNotFound", err)
	}
}

func TestLatestSilenceEndPrefersMostRecentInfringement(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	s.CreateInfringement(ctx, store.Infringement{UserID: 1, At: now, Length: 30 * time.Second})
	s.CreateInfringement(ctx, store.Infringement{UserID: 1, At: now.Add(time.Minute), Length: 60 * time.Second})

	end, ok, err := s.LatestSilenceEnd(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("LatestSilenceEnd: %v, ok=%v", err, ok)
	}
	want := now.Add(time.Minute).Add(60 * time.Second)
	if !end.Equal(want) {
		t.Errorf("LatestSilenceEnd() = %v, want %v", end, want)
	}
}

func TestLatestSilenceEndPermanentHasNoExpiry(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.CreateInfringement(ctx, store.Infringement{UserID: 1, At: time.Now(), Permanent: true})

	end, ok, err := s.LatestSilenceEnd(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("LatestSilenceEnd: %v, ok=%v", err, ok)
	}
	if !end.IsZero() {
		t.Errorf("LatestSilenceEnd() for a permanent infringement = %v, want zero value", end)
	}
}

func TestLatestSilenceEndNoRecordsFallsThrough(t *testing.T) {
	s := New()
	_, ok, err := s.LatestSilenceEnd(context.Background(), 42)
	if err != nil {
		t.Fatalf("LatestSilenceEnd: %v", err)
	}
	if ok {
		t.Errorf("LatestSilenceEnd() ok = true with no infringement rows, want false so callers fall back to the user row")
	}
}

func TestHideAllAndRestoreHidden(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.scores[scoreKey("md5", 1, 0)] = store.Score{UserID: 1, BeatmapMD5: "md5"}

	if err := s.HideAll(ctx, 1); err != nil {
		t.Fatalf("HideAll: %v", err)
	}
	sc, _ := s.FetchPersonalBest(ctx, "md5", 1, 0)
	if !sc.Hidden {
		t.Errorf("HideAll did not mark score hidden")
	}

	if err := s.RestoreHidden(ctx, 1); err != nil {
		t.Fatalf("RestoreHidden: %v", err)
	}
	sc, _ = s.FetchPersonalBest(ctx, "md5", 1, 0)
	if sc.Hidden {
		t.Errorf("RestoreHidden did not clear hidden flag")
	}
}
