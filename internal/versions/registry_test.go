package versions

import (
	"bytes"
	"testing"

	"github.com/chordwave/lobby/internal/wire"
)

func TestNearestCohortSnapTiesOlder(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		v    int
		want int
	}{
		{20130815, 20130815},
		{20130816, 20130815},
		{20126000, 20121223},
		{1706, 1710}, // closer to 1710 than to 1700
		{1705000000, 20130815},
		{0, 323},
	}
	for _, tt := range tests {
		got := reg.Nearest(tt.v)
		if got.Key != tt.want {
			t.Errorf("Nearest(%d) = %d, want %d", tt.v, got.Key, tt.want)
		}
	}

	// Exact tie: equidistant from two cohorts must break toward the older one.
	mid := (1700 + 1710) / 2 // 1705, distance 5 from both
	got := reg.Nearest(mid)
	if got.Key != 1700 {
		t.Errorf("Nearest(%d) = %d, want 1700 (tie breaks older)", mid, got.Key)
	}
}

func TestCombinedPresenceStatsFallbackBelow1700(t *testing.T) {
	reg := NewRegistry()
	c, ok := reg.Cohort(1700)
	if !ok {
		t.Fatal("cohort 1700 missing")
	}
	if c.Supports(KindUserPresence) {
		t.Error("cohort 1700 must not support separate USER_PRESENCE")
	}
	if c.Supports(KindUserStats) {
		t.Error("cohort 1700 must not support separate USER_STATS")
	}
	if !c.Supports(KindUserStatsPresenceCombined) {
		t.Error("cohort 1700 must support the combined packet")
	}

	modern, _ := reg.Cohort(20130815)
	if !modern.Supports(KindUserPresence) || !modern.Supports(KindUserStats) {
		t.Error("modern cohort must support separate presence/stats")
	}
}

func TestPresenceBundleAbsentBelow20121223(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.Cohort(20121223)
	if c.Supports(KindUserPresenceBundle) || c.Supports(KindUserPresenceSingle) {
		t.Error("cohort 20121223 must not support presence bundle/single")
	}
	newer, _ := reg.Cohort(20130815)
	if !newer.Supports(KindUserPresenceBundle) {
		t.Error("modern cohort must support presence bundle")
	}
}

func TestInviteAbsentUntil1710(t *testing.T) {
	reg := NewRegistry()
	c1710, _ := reg.Cohort(1710)
	if c1710.Supports(KindInvite) {
		t.Error("cohort 1710 must not support INVITE")
	}
	c20121223, _ := reg.Cohort(20121223)
	if !c20121223.Supports(KindInvite) {
		t.Error("cohort 20121223 (> 1710) must support INVITE")
	}
}

func TestIRCEntitiesUpTo1710(t *testing.T) {
	reg := NewRegistry()
	c1710, _ := reg.Cohort(1710)
	if !c1710.UsesIRCEntities() {
		t.Error("cohort 1710 must use IRC entities")
	}
	c20121223, _ := reg.Cohort(20121223)
	if c20121223.UsesIRCEntities() {
		t.Error("cohort 20121223 must not use IRC entities")
	}
}

func TestLoginReplyClampOnLegacyCohorts(t *testing.T) {
	reg := NewRegistry()
	for _, key := range []int{558, 590} {
		c, ok := reg.Cohort(key)
		if !ok {
			t.Fatalf("missing cohort %d", key)
		}
		codec, ok := c.Codec(KindLoginReply)
		if !ok {
			t.Fatalf("cohort %d missing LOGIN_REPLY codec", key)
		}
		var buf bytes.Buffer
		codec.Encode(&buf, LoginReplyArgs{Code: -6})
		got, err := wire.ReadInt32(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != -1 {
			t.Errorf("cohort %d clamp: got %d, want -1", key, got)
		}
	}

	modern, _ := reg.Cohort(20130815)
	codec, _ := modern.Codec(KindLoginReply)
	var buf bytes.Buffer
	codec.Encode(&buf, LoginReplyArgs{Code: -6})
	got, err := wire.ReadInt32(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != -6 {
		t.Errorf("modern cohort must not clamp: got %d, want -6", got)
	}
}

func TestPresenceRoundTrip(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.Cohort(20130815)
	codec, ok := c.Codec(KindUserPresence)
	if !ok {
		t.Fatal("missing USER_PRESENCE codec")
	}
	in := PresenceArgs{UserID: 7, Name: "someone", CountryCode: 14, Permissions: 1, Mode: 0, UTCOffset: -3, LatitudeE6: 123, LongitudeE6: 456, Rank: 10}

	var buf bytes.Buffer
	codec.Encode(&buf, in)
	out, err := codec.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got := out.(PresenceArgs)
	if got != in {
		t.Errorf("round-trip = %+v, want %+v", got, in)
	}
}

func TestMatchStateRoundTripModern(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.Cohort(20130815)
	codec, _ := c.Codec(KindUpdateMatch)

	in := MatchState{ID: 1, Name: "test", HostUserID: 5}
	in.Slots[0] = MatchSlot{Status: 1, UserID: 5}

	var buf bytes.Buffer
	codec.Encode(&buf, in)
	out, err := codec.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got := out.(MatchState)
	if got.ID != in.ID || got.Name != in.Name || got.HostUserID != in.HostUserID {
		t.Errorf("round-trip = %+v, want %+v", got, in)
	}
}
