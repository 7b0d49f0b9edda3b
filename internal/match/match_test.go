package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chordwave/lobby/internal/versions"
)

type received struct {
	kind versions.PacketKind
	args any
}

type fakePlayer struct {
	id   int32
	name string
	mu   sync.Mutex
	sent []received
}

func (p *fakePlayer) ID() int32          { return p.id }
func (p *fakePlayer) Name() string       { return p.name }
func (p *fakePlayer) Permissions() uint8 { return 1 }
func (p *fakePlayer) Enqueue(kind versions.PacketKind, args any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, received{kind: kind, args: args})
}
func (p *fakePlayer) count(kind versions.PacketKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.sent {
		if r.kind == kind {
			n++
		}
	}
	return n
}
func (p *fakePlayer) framesForSlot(slot int32) []int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var times []int32
	for _, r := range p.sent {
		if r.kind != versions.KindMatchScoreUpdate {
			continue
		}
		f := r.args.(versions.ScoreFrameArgs)
		if f.SlotID == slot {
			times = append(times, f.Time)
		}
	}
	return times
}

func newTestMatch(t *testing.T, host Member) *Match {
	t.Helper()
	m, err := New(context.Background(), 1, "test", "secret", host, 100, "md5", "beatmap", 0, Hooks{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestMatchLifecycleScenario(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	p := &fakePlayer{id: 2, name: "P"}
	m := newTestMatch(t, h)

	idx, err := m.Join(context.Background(), p, "secret")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if idx != 1 {
		t.Errorf("Join slot = %d, want 1", idx)
	}

	if err := m.Ready(h.ID(), true); err != nil {
		t.Fatalf("Ready(host): %v", err)
	}
	if err := m.Ready(p.ID(), true); err != nil {
		t.Fatalf("Ready(p): %v", err)
	}

	if err := m.Start(context.Background(), h.ID()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.LoadComplete(h.ID())
	m.LoadComplete(p.ID())
	if h.count(versions.KindMatchAllPlayersLoaded) != 1 || p.count(versions.KindMatchAllPlayersLoaded) != 1 {
		t.Errorf("MATCH_ALL_PLAYERS_LOADED not delivered to both: h=%d p=%d",
			h.count(versions.KindMatchAllPlayersLoaded), p.count(versions.KindMatchAllPlayersLoaded))
	}

	for _, tm := range []int32{10, 20, 30} {
		m.ScoreUpdate(h.ID(), versions.ScoreFrameArgs{Time: tm})
		m.ScoreUpdate(p.ID(), versions.ScoreFrameArgs{Time: tm + 5})
	}

	m.Complete(context.Background(), h.ID())
	m.Complete(context.Background(), p.ID())

	if h.count(versions.KindMatchComplete) != 1 || p.count(versions.KindMatchComplete) != 1 {
		t.Errorf("MATCH_COMPLETE not delivered to both")
	}
}

func TestScoreQueueOrderingPerSlot(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	p := &fakePlayer{id: 2, name: "P"}
	m := newTestMatch(t, h)
	m.Join(context.Background(), p, "secret")
	m.Start(context.Background(), h.ID())

	m.ScoreUpdate(h.ID(), versions.ScoreFrameArgs{Time: 10})
	m.ScoreUpdate(p.ID(), versions.ScoreFrameArgs{Time: 15})
	m.ScoreUpdate(h.ID(), versions.ScoreFrameArgs{Time: 20})
	m.ScoreUpdate(p.ID(), versions.ScoreFrameArgs{Time: 25})
	m.ScoreUpdate(h.ID(), versions.ScoreFrameArgs{Time: 30})
	m.ScoreUpdate(p.ID(), versions.ScoreFrameArgs{Time: 35})

	deadline := time.After(2 * time.Second)
	for {
		if len(h.framesForSlot(0)) >= 3 && len(h.framesForSlot(1)) >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for score frames to drain")
		case <-time.After(time.Millisecond):
		}
	}

	wantSlot0 := []int32{10, 20, 30}
	wantSlot1 := []int32{15, 25, 35}
	if got := h.framesForSlot(0); !equalInt32(got, wantSlot0) {
		t.Errorf("slot 0 frames = %v, want %v", got, wantSlot0)
	}
	if got := h.framesForSlot(1); !equalInt32(got, wantSlot1) {
		t.Errorf("slot 1 frames = %v, want %v", got, wantSlot1)
	}
}

func equalInt32(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestJoinRejectsWrongPassword(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	p := &fakePlayer{id: 2, name: "P"}
	m := newTestMatch(t, h)
	if _, err := m.Join(context.Background(), p, "wrong"); err != ErrWrongPassword {
		t.Errorf("Join() = %v, want ErrWrongPassword", err)
	}
}

func TestLeaveDisbandsWhenEmpty(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	m := newTestMatch(t, h)
	if disbanded := m.Leave(context.Background(), h.ID()); !disbanded {
		t.Errorf("Leave() = false, want true when last player leaves")
	}
}

func TestLeaveRotatesHost(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	p := &fakePlayer{id: 2, name: "P"}
	m := newTestMatch(t, h)
	m.Join(context.Background(), p, "secret")

	if disbanded := m.Leave(context.Background(), h.ID()); disbanded {
		t.Fatalf("Leave() = true, want match to survive with p still present")
	}
	if m.Host.ID() != p.ID() {
		t.Errorf("Host = %d, want %d after rotation", m.Host.ID(), p.ID())
	}
}

func TestFreemodClearsDoubleTimeWhenNightcoreSet(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	m := newTestMatch(t, h)
	if err := m.ChangeSettings(h.ID(), "test", "secret", TeamModeHeadToHead, ScoringScore, 100, "md5", "beatmap", ModDoubleTime|ModNightcore, true); err != nil {
		t.Fatalf("ChangeSettings: %v", err)
	}
	if m.Mods&ModDoubleTime != 0 {
		t.Errorf("Mods = %b, DoubleTime should be cleared when Nightcore set", m.Mods)
	}
	if m.Mods&ModNightcore == 0 {
		t.Errorf("Mods = %b, Nightcore should remain set", m.Mods)
	}
}

func TestAbortResetsPlayingSlotsWithoutResultEvent(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	m := newTestMatch(t, h)
	if err := m.Start(context.Background(), h.ID()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Abort(h.ID()); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if m.InProgress {
		t.Errorf("InProgress = true after Abort")
	}
	if m.Slots[0].Status != SlotNotReady {
		t.Errorf("Slots[0].Status = %v, want SlotNotReady after Abort", m.Slots[0].Status)
	}
}

func TestAbortRejectsNonHost(t *testing.T) {
	h := &fakePlayer{id: 1, name: "H"}
	p := &fakePlayer{id: 2, name: "P"}
	m := newTestMatch(t, h)
	m.Join(context.Background(), p, "secret")
	m.Start(context.Background(), h.ID())
	if err := m.Abort(p.ID()); err != ErrNotHost {
		t.Errorf("Abort(non-host) = %v, want ErrNotHost", err)
	}
}
