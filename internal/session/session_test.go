package session

import (
	"net"
	"testing"
	"time"

	"github.com/chordwave/lobby/internal/versions"
)

func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })
	return New(server), client
}

func TestNewSessionStartsInStateNew(t *testing.T) {
	sess, _ := newTestSession(t)
	if sess.State() != StateNew {
		t.Errorf("State() = %v, want StateNew", sess.State())
	}
	if sess.LoggedIn() {
		t.Errorf("LoggedIn() = true before Authenticate")
	}
}

func TestAuthenticatePromotesState(t *testing.T) {
	sess, _ := newTestSession(t)
	cohort := versions.NewRegistry().Nearest(20130815)

	sess.Authenticate(5, "player", 1, cohort, false)

	if sess.State() != StateAuthenticated {
		t.Errorf("State() = %v, want StateAuthenticated", sess.State())
	}
	if !sess.LoggedIn() {
		t.Errorf("LoggedIn() = false after Authenticate")
	}
	if sess.ID() != 5 || sess.Name() != "player" {
		t.Errorf("ID/Name = %d/%q, want 5/player", sess.ID(), sess.Name())
	}
	if sess.IsTourney() {
		t.Errorf("IsTourney() = true, want false")
	}
}

func TestSilenceAndRemaining(t *testing.T) {
	sess, _ := newTestSession(t)

	if sess.IsSilenced() {
		t.Fatalf("IsSilenced() = true before Silence")
	}

	sess.Silence(60 * time.Second)
	if !sess.IsSilenced() {
		t.Fatalf("IsSilenced() = false after Silence")
	}
	remaining := sess.SilencedRemaining()
	if remaining <= 0 || remaining > 60 {
		t.Errorf("SilencedRemaining() = %d, want in (0, 60]", remaining)
	}

	sess.Silence(-time.Second)
	if sess.IsSilenced() {
		t.Errorf("IsSilenced() = true after silence expired")
	}
	if r := sess.SilencedRemaining(); r != 0 {
		t.Errorf("SilencedRemaining() = %d, want 0 once expired", r)
	}
}

func TestAllowChatMessageEnforcesCapacity(t *testing.T) {
	sess, _ := newTestSession(t)

	allowed := 0
	for i := 0; i < chatTokenCapacity+10; i++ {
		if sess.AllowChatMessage() {
			allowed++
		}
	}
	if allowed != chatTokenCapacity {
		t.Errorf("allowed = %d, want exactly the bucket capacity %d", allowed, chatTokenCapacity)
	}
}

func TestJoinedChannelsTracksMembership(t *testing.T) {
	sess, _ := newTestSession(t)

	sess.JoinedChannel("#osu")
	sess.JoinedChannel("#announce")
	got := sess.JoinedChannels()
	if len(got) != 2 {
		t.Fatalf("JoinedChannels() = %v, want 2 entries", got)
	}

	sess.LeftChannel("#osu")
	got = sess.JoinedChannels()
	if len(got) != 1 || got[0] != "#announce" {
		t.Errorf("JoinedChannels() after leave = %v, want [#announce]", got)
	}

	// LeftChannel is idempotent.
	sess.LeftChannel("#osu")
	if len(sess.JoinedChannels()) != 1 {
		t.Errorf("LeftChannel not idempotent")
	}
}

func TestSetMatchAndSpectating(t *testing.T) {
	sess, _ := newTestSession(t)

	if sess.Match() != nil {
		t.Errorf("Match() non-nil before SetMatch")
	}
	if sess.Spectating() != 0 {
		t.Errorf("Spectating() = %d, want 0 before SetSpectating", sess.Spectating())
	}

	sess.SetSpectating(7)
	if sess.Spectating() != 7 {
		t.Errorf("Spectating() = %d, want 7", sess.Spectating())
	}
	sess.SetSpectating(0)
	if sess.Spectating() != 0 {
		t.Errorf("Spectating() = %d, want 0 after clearing", sess.Spectating())
	}
}

func TestStatsRoundTripsUserID(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.Authenticate(42, "tester", 1, versions.NewRegistry().Nearest(20130815), false)

	sess.SetStats(versions.StatsArgs{GlobalRank: 5, TotalScore: 1000})
	got := sess.Stats()
	if got.UserID != 42 {
		t.Errorf("Stats().UserID = %d, want 42 (stamped by SetStats)", got.UserID)
	}
	if got.GlobalRank != 5 || got.TotalScore != 1000 {
		t.Errorf("Stats() = %+v, want GlobalRank=5 TotalScore=1000", got)
	}
}

func TestEnqueueWithoutCohortIsNoop(t *testing.T) {
	sess, client := newTestSession(t)

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		client.Read(buf)
		close(done)
	}()

	sess.Enqueue(versions.KindPing, nil)
	<-done
}

func TestCloseIsIdempotent(t *testing.T) {
	sess, _ := newTestSession(t)
	if err := sess.Close(); err != nil {
		t.Fatalf("first Close(): %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close() should also be nil (net.Pipe's Close is idempotent): %v", err)
	}
}
