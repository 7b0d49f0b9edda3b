package session

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/commands"
	"github.com/chordwave/lobby/internal/config"
	"github.com/chordwave/lobby/internal/logging"
	"github.com/chordwave/lobby/internal/metrics"
	"github.com/chordwave/lobby/internal/registry"
	"github.com/chordwave/lobby/internal/spectator"
	"github.com/chordwave/lobby/internal/store"
	"github.com/chordwave/lobby/internal/versions"
	"github.com/chordwave/lobby/internal/wire"
)

// botID is the bot principal's reserved negative id (spec.md §3 invariant:
// "Bot principal has a negative id reserved for IRC-style entities").
const botID int32 = -1
const botName = "chordwave"

// maxTourneyStreams bounds the extra sessions a supporter's tourney client
// may open beyond its primary stream (spec.md §4.2: "up to 8 parallel
// sessions... provided the principal has supporter").
const maxTourneyStreams = 7

// httpProbeBody is the static body returned for a plain GET / probe
// (spec.md §6).
const httpProbeBody = "<html><body>this is an osu! bancho-compatible server.</body></html>"

// Collaborators bundles every external dependency the engine needs beyond
// the in-process registries — the store/cache collaborators named in
// spec.md §6.
type Collaborators struct {
	Users         store.Users
	Relationships store.Relationships
	Beatmaps      store.Beatmaps
	Scores        store.Scores
	Matches       store.Matches
	Events        store.Events
	Messages      store.Messages
	Clients       store.Clients
	Infringements store.Infringements
	Logins        store.Logins
	Leaderboards  store.Leaderboards
	Status        store.Status
	Usercount     store.Usercount
}

// Engine owns the registries, the version registry, and every collaborator,
// and drives the accept loop (spec.md §2 "Session protocol engine" + §4.3
// registries), grounded on the teacher's Server type.
type Engine struct {
	cfg      *config.Config
	versions *versions.Registry
	store    Collaborators
	metrics  *metrics.Metrics

	Sessions   *registry.Sessions
	Channels   *registry.Channels
	Matches    *registry.Matches
	Spectators *spectator.Manager
	Commands   *commands.Interpreter

	listeners []net.Listener
	stopCh    chan struct{}
	wg        sync.WaitGroup

	workers chan struct{}
	ping    *cron.Cron

	// tourneyMu/tourneyStreams track extra sessions for a principal beyond
	// its primary stream. These never enter Sessions, preserving the
	// registry invariant "present in the player registry exactly once"
	// (spec.md §3) while still letting a supporter run up to 8 clients.
	tourneyMu      sync.Mutex
	tourneyStreams map[int32][]*Session

	// live holds the hot-reloadable subset of cfg (maintenance, announce,
	// autojoin); nil when the operator didn't start a config.Watcher, in
	// which case the engine falls back to the snapshot taken at New.
	live *config.Live
}

// AttachLive wires a config.Watcher's Live snapshot into the engine so
// maintenance-mode, announce-text and autojoin-list changes apply without a
// restart.
func (e *Engine) AttachLive(live *config.Live) {
	e.live = live
}

// New wires every registry and collaborator together the way
// cmd/banchod/main.go will at boot, and is also the entry point tests use to
// drive the engine end-to-end without a real listener.
func New(cfg *config.Config, collab Collaborators, m *metrics.Metrics) *Engine {
	e := &Engine{
		cfg:            cfg,
		versions:       versions.NewRegistry(),
		store:          collab,
		metrics:        m,
		Sessions:       registry.NewSessions(),
		Channels:       registry.NewChannels(),
		Matches:        registry.NewMatches(),
		stopCh:         make(chan struct{}),
		workers:        make(chan struct{}, cfg.Workers.PoolSize),
		tourneyStreams: make(map[int32][]*Session),
	}
	e.Commands = commands.New(e.Sessions)
	e.Spectators = spectator.New(spectator.Hooks{
		NewChannel: func(name, topic string) *channel.Channel {
			return channel.New(name, topic, "", 0, 0, false, e.Sessions, e.messagePersister(), e.Commands)
		},
		RegisterChannel:   e.Channels.Register,
		UnregisterChannel: e.Channels.Unregister,
	})
	e.bootstrapPublicChannels()
	return e
}

func (e *Engine) bootstrapPublicChannels() {
	for _, name := range e.cfg.AutojoinChannels {
		e.Channels.Register(channel.New(name, "", "", 0, 0, true, e.Sessions, e.messagePersister(), e.Commands))
	}
}

// messagePersister adapts store.Messages to channel.Persister.
func (e *Engine) messagePersister() channel.Persister {
	return persisterFunc(func(ctx context.Context, channelName, sender, text string) {
		if e.store.Messages == nil {
			return
		}
		if err := e.store.Messages.Create(ctx, store.Message{Sender: sender, Target: channelName, Text: text, At: time.Now()}); err != nil {
			logging.Warnf("session: persist message in %s: %v", channelName, err)
		}
	})
}

type persisterFunc func(ctx context.Context, channelName, sender, text string)

func (f persisterFunc) PersistMessage(ctx context.Context, channelName, sender, text string) {
	f(ctx, channelName, sender, text)
}

// Serve listens on every configured port and blocks accepting connections
// until Stop is called. Mirrors the teacher's Start/acceptLoop split, but
// one Engine drives N listeners instead of one.
func (e *Engine) Serve() error {
	for _, port := range e.cfg.Ports {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return fmt.Errorf("session: listen on %d: %w", port, err)
		}
		e.listeners = append(e.listeners, ln)
		e.wg.Add(1)
		go e.acceptLoop(ln)
	}
	e.startPingLoop()
	return nil
}

// startPingLoop runs the stale-session sweep on a cron schedule derived from
// cfg.Workers.PingInterval (spec.md §4.2/§5: sessions silent past
// cfg.Workers.StaleAfter are dropped). Grounded on the pack's robfig/cron
// scheduler idiom.
func (e *Engine) startPingLoop() {
	e.ping = cron.New(cron.WithSeconds())
	spec := fmt.Sprintf("@every %s", e.cfg.Workers.PingInterval)
	if _, err := e.ping.AddFunc(spec, e.sweepStaleSessions); err != nil {
		logging.Errorf("session: schedule ping sweep %q: %v", spec, err)
		return
	}
	e.ping.Start()
}

// sweepStaleSessions closes every session that has not produced activity
// within cfg.Workers.StaleAfter, and pings the rest.
func (e *Engine) sweepStaleSessions() {
	now := time.Now()
	for _, m := range e.Sessions.Snapshot() {
		sess, ok := m.(*Session)
		if !ok {
			continue
		}
		if now.Sub(sess.LastResponse()) > e.cfg.Workers.StaleAfter {
			sess.Close()
			continue
		}
		sess.Enqueue(versions.KindPing, nil)
	}
}

// StopChan is closed when the engine stops, so callers can select on it
// alongside an external signal. Only Stop closes it.
func (e *Engine) StopChan() <-chan struct{} {
	return e.stopCh
}

// Stop closes every listener and live session; idempotent.
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
		return
	default:
		close(e.stopCh)
	}
	if e.ping != nil {
		<-e.ping.Stop().Done()
	}
	for _, ln := range e.listeners {
		ln.Close()
	}
	for _, m := range e.Sessions.Snapshot() {
		if sess, ok := m.(*Session); ok {
			sess.Close()
		}
	}
	e.wg.Wait()
}

func (e *Engine) acceptLoop(ln net.Listener) {
	defer e.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-e.stopCh:
				return
			default:
				logging.Warnf("session: accept: %v", err)
				continue
			}
		}
		go e.handleConnection(conn)
	}
}

// handleConnection drives one TCP connection from NEW through CLOSING,
// grounded on the teacher's handleConnection/handlePlay split.
func (e *Engine) handleConnection(conn net.Conn) {
	sess := New(conn)
	sess.remoteHost, _, _ = net.SplitHostPort(conn.RemoteAddr().String())
	defer e.teardown(sess)

	conn.SetReadDeadline(time.Now().Add(e.cfg.Workers.HandshakeTimeout))
	sess.SetState(StateHandshaking)

	br := bufio.NewReader(conn)
	peek, err := br.Peek(4)
	if err == nil && string(peek) == "GET " {
		e.serveHTTPProbe(conn)
		return
	}

	body, err := e.readLoginBody(br)
	if err != nil {
		logging.Debugf("conn %s: read login body: %v", sess.TraceID(), err)
		sess.WriteRaw([]byte("no.\n"))
		return
	}

	cohort, code, rawReject := e.login(sess, body)
	sess.cohort = cohort
	if rawReject {
		logging.Warnf("conn %s: adapters md5 mismatch for %q, rejecting", sess.TraceID(), body.Username)
		sess.WriteRaw([]byte("no.\n"))
		return
	}
	if code < 1 {
		logging.Infof("conn %s: login failed for %q, code %d", sess.TraceID(), body.Username, code)
		sess.Enqueue(versions.KindLoginReply, versions.LoginReplyArgs{Code: code})
		return
	}

	sess.SetState(StateLive)
	e.liveLoop(sess, br)
}

func (e *Engine) serveHTTPProbe(conn net.Conn) {
	resp := "HTTP/1.1 200 OK\r\ncontent-type: text/html\r\ncontent-length: " +
		strconv.Itoa(len(httpProbeBody)) + "\r\n\r\n" + httpProbeBody
	conn.Write([]byte(resp))
}

// loginBody is the parsed three-line handshake body (spec.md §6).
type loginBody struct {
	Username        string
	PasswordMD5     string
	VersionString   string
	UTCOffset       int8
	DisplayCity     string
	AdaptersString  string
	AdaptersMD5     string
	FriendOnlyDMs   bool
	Tourney         bool
}

func (e *Engine) readLoginBody(r *bufio.Reader) (loginBody, error) {
	var b loginBody
	username, err := readLine(r)
	if err != nil {
		return b, err
	}
	password, err := readLine(r)
	if err != nil {
		return b, err
	}
	descriptor, err := readLine(r)
	if err != nil {
		return b, err
	}

	b.Username = username
	b.PasswordMD5 = password

	fields := strings.Split(descriptor, "|")
	if len(fields) < 1 || fields[0] == "" {
		return b, fmt.Errorf("session: empty client descriptor")
	}
	b.VersionString = fields[0]
	b.Tourney = strings.Contains(strings.ToLower(b.VersionString), "tourney")
	if len(fields) > 1 {
		if off, err := strconv.Atoi(fields[1]); err == nil {
			b.UTCOffset = int8(off)
		}
	}
	if len(fields) > 2 {
		b.DisplayCity = fields[2]
	}
	if len(fields) > 3 {
		// adapters_and_hashes = osu_md5:adapters_string:adapters_md5:uninstall_id:diskdrive_signature
		adapterFields := strings.Split(fields[3], ":")
		if len(adapterFields) >= 3 {
			b.AdaptersString = adapterFields[1]
			b.AdaptersMD5 = adapterFields[2]
		}
	}
	if len(fields) > 4 {
		b.FriendOnlyDMs = fields[4] == "1"
	}
	return b, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if line == "" && errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseVersion extracts the leading integer from a version string such as
// "b20130815" or "20130815osx" — the client descriptor's first field.
func parseVersion(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[start:end])
	return n
}

// login authenticates body against the store and, on success, appends the
// new session to every registry and runs the login epilogue (spec.md §4.2).
// Returns the negotiated cohort (always non-nil, for reply encoding even on
// failure), the LOGIN_REPLY code, and whether the rejection bypasses
// LOGIN_REPLY entirely in favor of a raw "no." (adapters hash mismatch).
func (e *Engine) login(sess *Session, body loginBody) (cohort *versions.Cohort, code int32, rawReject bool) {
	v := parseVersion(body.VersionString)
	cohort = e.versions.Nearest(v)

	if v < e.cfg.MinVersion || v > e.cfg.MaxVersion {
		return cohort, -2, false
	}

	user, err := e.store.Users.FetchByName(context.Background(), body.Username)
	if err != nil {
		return cohort, -1, false
	}
	if bcrypt.CompareHashAndPassword(user.BcryptHash, []byte(body.PasswordMD5)) != nil {
		return cohort, -1, false
	}
	if body.AdaptersMD5 != "" {
		sum := md5.Sum([]byte(body.AdaptersString))
		if hex.EncodeToString(sum[:]) != body.AdaptersMD5 {
			return cohort, 0, true
		}
	}

	silenceEnd, hasSilenceRecord, _ := e.store.Infringements.LatestSilenceEnd(context.Background(), user.ID)
	if hasSilenceRecord {
		user.SilenceEnd = silenceEnd
	}
	if user.Restricted {
		return cohort, -3, false
	}
	if user.NotActivated {
		return cohort, -6, false
	}
	if e.maintenanceMode() && user.Permissions&1 == 0 {
		return cohort, -5, false
	}

	tourney := body.Tourney && time.Now().Before(user.SupporterEnd)
	if !e.admitPrimaryOrTourneyStream(sess, user.ID, tourney) {
		return cohort, -1, false
	}

	sess.Authenticate(user.ID, user.Name, user.Permissions, cohort, tourney)
	sess.SetFriendOnlyDMs(body.FriendOnlyDMs)
	if time.Now().Before(user.SilenceEnd) {
		sess.Silence(time.Until(user.SilenceEnd))
	}
	e.runLoginEpilogue(sess, user)
	if e.store.Logins != nil {
		e.store.Logins.Create(context.Background(), user.ID, sess.RemoteHost(), body.VersionString)
	}
	if e.metrics != nil {
		e.metrics.LoginsTotal.WithLabelValues("success").Inc()
		e.metrics.SessionsLive.Inc()
	}
	return cohort, user.ID, false
}

// maintenanceMode consults the live hot-reloaded flag when a watcher is
// attached, else falls back to the snapshot taken at startup.
func (e *Engine) maintenanceMode() bool {
	if e.live != nil {
		_, maintenance, _ := e.live.Snapshot()
		return maintenance
	}
	return e.cfg.Maintenance
}

// announceText returns the current operator announce string, live if a
// watcher is attached.
func (e *Engine) announceText() string {
	if e.live != nil {
		announce, _, _ := e.live.Snapshot()
		return announce
	}
	return e.cfg.Announce
}

// admitPrimaryOrTourneyStream enforces singleton-vs-tourney occupancy for
// userID. A non-tourney login kicks any existing primary session
// (LOGGED_IN_FROM_ANOTHER_LOCATION). A tourney login is admitted as an
// extra stream up to maxTourneyStreams, never entering the primary
// registry.
func (e *Engine) admitPrimaryOrTourneyStream(sess *Session, userID int32, tourney bool) bool {
	if tourney {
		e.tourneyMu.Lock()
		defer e.tourneyMu.Unlock()
		if len(e.tourneyStreams[userID]) >= maxTourneyStreams {
			return false
		}
		e.tourneyStreams[userID] = append(e.tourneyStreams[userID], sess)
		return true
	}

	if existing, ok := e.Sessions.Lookup(userID); ok {
		if old, ok := existing.(*Session); ok {
			old.Enqueue(versions.KindAnnounce, versions.AnnounceArgs{Text: "You have been logged in from another location."})
			old.Close()
		}
	}
	return true
}

// tourneyStreamsOf returns userID's extra tourney sessions, excluding any
// session bound to excludeRemotePort (spec.md §4.7 private-message fan-out).
func (e *Engine) tourneyStreamsOf(userID int32, excludeRemotePort string) []*Session {
	e.tourneyMu.Lock()
	defer e.tourneyMu.Unlock()
	out := make([]*Session, 0, len(e.tourneyStreams[userID]))
	for _, s := range e.tourneyStreams[userID] {
		if s.RemoteAddr() == excludeRemotePort {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (e *Engine) removeTourneyStream(sess *Session) {
	e.tourneyMu.Lock()
	defer e.tourneyMu.Unlock()
	list := e.tourneyStreams[sess.id]
	for i, s := range list {
		if s == sess {
			e.tourneyStreams[sess.id] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (e *Engine) runLoginEpilogue(sess *Session, user store.User) {
	sess.Enqueue(versions.KindProtocolVersion, versions.ProtocolVersionArgs{Version: int32(sess.Cohort().Key)})
	sess.Enqueue(versions.KindLoginReply, versions.LoginReplyArgs{Code: user.ID})
	sess.Enqueue(versions.KindMenuIcon, versions.AnnounceArgs{Text: e.cfg.MenuIcon})
	sess.Enqueue(versions.KindLoginPermissions, versions.LoginReplyArgs{Code: int32(user.Permissions)})

	presence := e.presenceArgs(sess)
	stats := e.statsArgs(sess)
	e.sendPresenceAndStats(sess, presence, stats)

	sess.Enqueue(versions.KindUserPresence, e.presenceArgsFor(botID, botName, 0))
	sess.Enqueue(versions.KindUserStats, versions.StatsArgs{UserID: botID, ActionText: "probably out on a walk"})

	if e.store.Relationships != nil {
		if friends, err := e.store.Relationships.Friends(context.Background(), user.ID); err == nil {
			sess.Enqueue(versions.KindFriendsList, versions.PresenceBundleArgs{UserIDs: friends})
		}
	}

	e.Sessions.Add(sess)
	if e.store.Usercount != nil {
		e.store.Usercount.Increment(context.Background())
	}

	autojoinList := e.cfg.AutojoinChannels
	if e.live != nil {
		_, _, autojoinList = e.live.Snapshot()
	}
	for _, ch := range e.Channels.Public() {
		kind := versions.KindChannelAvailable
		autojoin := contains(autojoinList, ch.Name)
		if autojoin {
			kind = versions.KindChannelAvailableAutojoin
		}
		sess.Enqueue(kind, versions.ChannelInfoArgs{Name: ch.Name, Topic: ch.Topic, MemberCount: int32(ch.MemberCount())})
		if autojoin {
			if err := ch.Add(sess); err == nil {
				sess.JoinedChannel(ch.Name)
			}
		}
	}
	sess.Enqueue(versions.KindChannelInfoComplete, nil)

	if remaining := sess.SilencedRemaining(); remaining > 0 {
		sess.Enqueue(versions.KindSilenceInfo, versions.SilenceInfoArgs{RemainingSeconds: remaining})
	}
	if text := e.announceText(); text != "" {
		sess.Enqueue(versions.KindAnnounce, versions.AnnounceArgs{Text: text})
	}

	for _, other := range e.Sessions.Snapshot() {
		if other.ID() == sess.ID() {
			continue
		}
		sess.Enqueue(versions.KindLobbyJoin, versions.LobbyMembershipArgs{UserID: other.ID()})
		if otherSess, ok := other.(*Session); ok {
			e.sendPresenceAndStats(otherSess, e.presenceArgs(sess), e.statsArgs(sess))
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (e *Engine) presenceArgsFor(id int32, name string, perms uint8) versions.PresenceArgs {
	return versions.PresenceArgs{UserID: id, Name: name, Permissions: perms}
}

func (e *Engine) presenceArgs(sess *Session) versions.PresenceArgs {
	return e.presenceArgsFor(sess.ID(), sess.Name(), sess.Permissions())
}

func (e *Engine) statsArgs(sess *Session) versions.StatsArgs {
	return sess.Stats()
}

// sendPresenceAndStats sends recipient a cohort-appropriate view of subject:
// the legacy combined packet on cohorts <= 1700, separate presence/stats
// packets otherwise (spec.md §8 scenario 2).
func (e *Engine) sendPresenceAndStats(recipient *Session, presence versions.PresenceArgs, stats versions.StatsArgs) {
	cohort := recipient.Cohort()
	if cohort == nil {
		return
	}
	if cohort.HasCombinedPresenceStats() {
		recipient.Enqueue(versions.KindUserStatsPresenceCombined, versions.CombinedPresenceStatsArgs{Presence: presence, Stats: stats})
		return
	}
	recipient.Enqueue(versions.KindUserPresence, presence)
	recipient.Enqueue(versions.KindUserStats, stats)
}

// liveLoop parses framed packets off br until the connection closes
// (spec.md §4.2 "LIVE loop"). MATCH_SCORE_UPDATE and every SEND_MESSAGE
// (its '!' command path included) stay on this goroutine (spec.md §5
// read-path exceptions); everything else, SEND_PRIVATE_MESSAGE included, is
// dispatched to the bounded worker pool.
func (e *Engine) liveLoop(sess *Session, br *bufio.Reader) {
	for {
		sess.Conn().SetReadDeadline(time.Now().Add(e.cfg.Workers.StaleAfter))
		pkt, err := wire.ReadPacket(br, sess.Cohort().ImplicitGzip())
		if err != nil {
			return
		}
		sess.TouchLastResponse()

		kind, ok := sess.Cohort().KindByWireID(pkt.ID)
		if !ok {
			logging.Warnf("session %d: unknown packet id %d on cohort %d", sess.ID(), pkt.ID, sess.Cohort().Key)
			continue
		}
		codec, ok := sess.Cohort().Codec(kind)
		if !ok {
			continue
		}
		var args any
		if codec.Decode != nil {
			args, err = codec.Decode(bytes.NewReader(pkt.Data))
			if err != nil {
				logging.Warnf("session %d: decode %s: %v", sess.ID(), kind, err)
				continue
			}
		}

		if kind == versions.KindMatchScoreUpdateReq || kind == versions.KindSendMessage {
			e.dispatch(sess, kind, args)
			continue
		}

		e.runOnWorker(func() { e.dispatch(sess, kind, args) })
	}
}

// runOnWorker bounds in-flight handler goroutines to cfg.Workers.PoolSize
// (spec.md §5: "a bounded worker pool for handler execution").
func (e *Engine) runOnWorker(fn func()) {
	e.workers <- struct{}{}
	go func() {
		defer func() { <-e.workers }()
		defer func() {
			if r := recover(); r != nil {
				logging.Errorf("session: handler panic: %v", r)
			}
		}()
		fn()
	}()
}

// teardown runs the idempotent connection-close sequence (spec.md §4.2,
// §8 "idempotent teardown" law). Safe to invoke more than once: the first
// call moves the session to CLOSING, and any later call returns at once.
func (e *Engine) teardown(sess *Session) {
	sess.state.mu.Lock()
	if sess.state.v == StateClosing {
		sess.state.mu.Unlock()
		return
	}
	sess.state.v = StateClosing
	sess.state.mu.Unlock()
	sess.Close()

	if !sess.LoggedIn() {
		return
	}

	if sess.IsTourney() {
		e.removeTourneyStream(sess)
		if _, stillRegistered := e.Sessions.Lookup(sess.ID()); !stillRegistered {
			return
		}
		// A tourney stream that was somehow promoted to primary (should not
		// happen given admitPrimaryOrTourneyStream) falls through to the
		// full teardown below instead of silently leaking registry state.
	}

	e.Spectators.Detach(sess)

	for _, name := range sess.JoinedChannels() {
		if ch, ok := e.Channels.Lookup(name); ok {
			ch.Remove(sess.ID())
		}
		sess.LeftChannel(name)
	}

	if m := sess.Match(); m != nil {
		// m.Leave's own OnDisband hook (wired in matchHooks) unregisters the
		// match and its chat channel if this was the last occupant.
		m.Leave(sess.Context(), sess.ID())
		sess.SetMatch(nil)
	}

	e.Sessions.Remove(sess.ID())
	if e.metrics != nil {
		e.metrics.SessionsLive.Dec()
	}
	if e.store.Usercount != nil {
		e.store.Usercount.Decrement(context.Background())
	}

	// Suppress USER_QUIT while another tourney stream of the same principal
	// is still connected (spec.md §4.2: "unless another tourney client of
	// the same principal remains").
	if len(e.tourneyStreamsOf(sess.ID(), "")) == 0 {
		e.Sessions.Broadcast(versions.KindUserQuit, versions.UserQuitArgs{UserID: sess.ID(), State: 0})
	}
}
