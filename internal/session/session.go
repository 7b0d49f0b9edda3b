// Package session implements the per-connection protocol engine (spec.md
// §4.2): the NEW -> HANDSHAKING -> AUTHENTICATED -> LIVE -> CLOSING state
// machine, the write path, and the per-session counters the engine and
// handlers consult (chat tokens, last-response stamp, silence, match/
// channel/spectator ties). Grounded on the teacher's Player struct and its
// mutex-guarded write path (pkg/server/server.go).
package session

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/logging"
	"github.com/chordwave/lobby/internal/match"
	"github.com/chordwave/lobby/internal/spectator"
	"github.com/chordwave/lobby/internal/versions"
	"github.com/chordwave/lobby/internal/wire"
)

// State is a position in the connection lifecycle (spec.md §4.2).
type State int32

const (
	StateNew State = iota
	StateHandshaking
	StateAuthenticated
	StateLive
	StateClosing
)

// chatTokenCapacity and chatTokenWindow implement the per-session chat rate
// token bucket (spec.md §4.7: "capacity 400" per rolling 60s window).
const (
	chatTokenCapacity = 400
	chatTokenWindow   = time.Minute
)

// Session is one live TCP connection. It satisfies channel.Member and
// match.Member structurally — neither package imports this one, per the
// registry-cycle design note (spec.md §9).
type Session struct {
	conn   net.Conn
	cohort *versions.Cohort

	writeMu sync.Mutex

	state atomicState

	id            int32
	name          string
	permissions   uint8
	remoteHost    string
	tourney       bool
	friendOnlyDMs bool

	awayMessage string
	awayMu      sync.Mutex

	// traceID correlates log lines for this connection before login assigns
	// a principal id (spec.md §4.2 handshake/login is unauthenticated).
	traceID string

	channels   map[string]struct{}
	channelsMu sync.Mutex

	match   *match.Match
	matchMu sync.Mutex

	spectating   int32 // host id this session observes, 0 if none
	spectatingMu sync.Mutex

	silenceUntil time.Time
	silenceMu    sync.Mutex

	chatLimiter *rate.Limiter

	lastResponse atomicTime

	loggedIn atomicBool

	stats   versions.StatsArgs
	statsMu sync.Mutex
}

// New wraps conn fresh off accept, NEW state, no cohort chosen yet.
func New(conn net.Conn) *Session {
	s := &Session{
		conn:        conn,
		traceID:     uuid.NewString(),
		channels:    make(map[string]struct{}),
		chatLimiter: rate.NewLimiter(rate.Every(chatTokenWindow/chatTokenCapacity), chatTokenCapacity),
	}
	s.state.set(StateNew)
	s.lastResponse.set(time.Now())
	return s
}

func (s *Session) ID() int32          { return s.id }
func (s *Session) Name() string       { return s.name }
func (s *Session) Permissions() uint8 { return s.permissions }
func (s *Session) State() State       { return s.state.get() }
func (s *Session) SetState(st State)  { s.state.set(st) }
func (s *Session) LoggedIn() bool     { return s.loggedIn.get() }
func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr().String() }
func (s *Session) RemoteHost() string { return s.remoteHost }
func (s *Session) IsTourney() bool    { return s.tourney }
func (s *Session) TraceID() string    { return s.traceID }
func (s *Session) Cohort() *versions.Cohort { return s.cohort }

// Authenticate promotes the session to AUTHENTICATED with the resolved
// principal identity and negotiated cohort. Called once, from the
// handshake/login path.
func (s *Session) Authenticate(id int32, name string, perms uint8, cohort *versions.Cohort, tourney bool) {
	s.id = id
	s.name = name
	s.permissions = perms
	s.cohort = cohort
	s.tourney = tourney
	s.loggedIn.set(true)
	s.state.set(StateAuthenticated)
}

// SetFriendOnlyDMs records the login descriptor's friend-only-DMs flag
// (spec.md §4.7: private messages are blocked unless the sender is a friend).
func (s *Session) SetFriendOnlyDMs(v bool) { s.friendOnlyDMs = v }

func (s *Session) FriendOnlyDMs() bool { return s.friendOnlyDMs }

// SetAwayMessage records the away-status text SET_AWAY_MESSAGE last supplied;
// an empty string clears it. AwayMessage reports the current text, consulted
// by the DM path to synthesize an automatic CTCP-ACTION reply (spec.md §4.7).
func (s *Session) SetAwayMessage(text string) {
	s.awayMu.Lock()
	s.awayMessage = text
	s.awayMu.Unlock()
}

func (s *Session) AwayMessage() string {
	s.awayMu.Lock()
	defer s.awayMu.Unlock()
	return s.awayMessage
}

// TouchLastResponse stamps the inbound-activity clock; the ping sweep uses
// this to detect stalled sessions (spec.md §4.2/§5).
func (s *Session) TouchLastResponse() { s.lastResponse.set(time.Now()) }

// LastResponse returns the stamp TouchLastResponse last recorded.
func (s *Session) LastResponse() time.Time { return s.lastResponse.get() }

// AllowChatMessage consumes one token from the per-session bucket,
// reporting whether the message is allowed (spec.md §4.7/§8 chat rate law).
func (s *Session) AllowChatMessage() bool {
	return s.chatLimiter.Allow()
}

// Silence sets the session's silence-until stamp d from now.
func (s *Session) Silence(d time.Duration) {
	s.silenceMu.Lock()
	s.silenceUntil = time.Now().Add(d)
	s.silenceMu.Unlock()
}

// SilencedRemaining returns remaining silence seconds, 0 if not silenced.
func (s *Session) SilencedRemaining() int32 {
	s.silenceMu.Lock()
	until := s.silenceUntil
	s.silenceMu.Unlock()
	remaining := time.Until(until)
	if remaining <= 0 {
		return 0
	}
	return int32(remaining / time.Second)
}

func (s *Session) IsSilenced() bool { return s.SilencedRemaining() > 0 }

// JoinedChannel / LeftChannel track the set of channel names this session
// has joined, used only by teardown to know which channels to Remove from
// (spec.md §4.2 teardown: "remove self from every joined channel").
func (s *Session) JoinedChannel(name string) {
	s.channelsMu.Lock()
	s.channels[name] = struct{}{}
	s.channelsMu.Unlock()
}

func (s *Session) LeftChannel(name string) {
	s.channelsMu.Lock()
	delete(s.channels, name)
	s.channelsMu.Unlock()
}

func (s *Session) JoinedChannels() []string {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()
	out := make([]string, 0, len(s.channels))
	for name := range s.channels {
		out = append(out, name)
	}
	return out
}

// SetStats / Stats track the last CHANGE_STATUS the client reported, used to
// answer USER_STATS requests about this session from anyone else.
func (s *Session) SetStats(st versions.StatsArgs) {
	st.UserID = s.id
	s.statsMu.Lock()
	s.stats = st
	s.statsMu.Unlock()
}

func (s *Session) Stats() versions.StatsArgs {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// SetMatch / Match track the match this session currently occupies a slot
// in, so teardown and dispatch can find it without a registry scan.
func (s *Session) SetMatch(m *match.Match) {
	s.matchMu.Lock()
	s.match = m
	s.matchMu.Unlock()
}

func (s *Session) Match() *match.Match {
	s.matchMu.Lock()
	defer s.matchMu.Unlock()
	return s.match
}

// SetSpectating / Spectating track the host id this session observes, the
// session-local half of spectator.Manager's reverse index.
func (s *Session) SetSpectating(hostID int32) {
	s.spectatingMu.Lock()
	s.spectating = hostID
	s.spectatingMu.Unlock()
}

func (s *Session) Spectating() int32 {
	s.spectatingMu.Lock()
	defer s.spectatingMu.Unlock()
	return s.spectating
}

// Enqueue encodes args under kind for this session's negotiated cohort and
// writes the framed packet under the write mutex — the same
// "lock, write, unlock" discipline as the teacher's player.mu-guarded
// WritePacket call. A kind the cohort has no encoder for is logged at debug
// level and dropped; with no cohort yet, or no wire id for the kind, the
// packet is dropped without a log line.
func (s *Session) Enqueue(kind versions.PacketKind, args any) {
	cohort := s.cohort
	if cohort == nil {
		return
	}
	codec, ok := cohort.Codec(kind)
	if !ok || codec.Encode == nil {
		logging.Debugf("session %d: cohort %d has no encoder for %s", s.id, cohort.Key, kind)
		return
	}
	wireID, ok := cohort.WireID(kind)
	if !ok {
		return
	}

	var buf bytes.Buffer
	codec.Encode(&buf, args)
	pkt := &wire.Packet{ID: wireID, Data: buf.Bytes()}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := wire.WritePacket(s.conn, pkt, cohort.ImplicitGzip()); err != nil {
		logging.Debugf("session %d: write %s: %v", s.id, kind, err)
	}
}

// WriteRaw bypasses the codec table entirely, used by the HTTP probe and
// the pre-handshake "no." rejection responses (spec.md §4.2/§6).
func (s *Session) WriteRaw(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.Write(data)
	return err
}

// Close closes the underlying transport. What a repeated call returns is up
// to the conn: net.Pipe returns nil again, a TCP conn returns an error.
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) Conn() net.Conn { return s.conn }

func (s *Session) Context() context.Context { return context.Background() }

// compile-time assertions that Session satisfies the narrow structural
// interfaces channel/match/spectator demand of a member.
var (
	_ channel.Member   = (*Session)(nil)
	_ match.Member     = (*Session)(nil)
	_ spectator.Member = (*Session)(nil)
)
