// Package match implements the multiplayer lobby (spec.md §4.5): eight
// slots, mods/beatmap/team-mode/scoring-mode, host rotation, the gameplay
// sub-protocol, and the score-frame queue.
package match

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chordwave/lobby/internal/channel"
	"github.com/chordwave/lobby/internal/logging"
	"github.com/chordwave/lobby/internal/store"
	"github.com/chordwave/lobby/internal/versions"
)

// Member and Resolver are reused directly from channel — match fans packets
// out through the same narrow session view, so there is no reason to
// redeclare an identical interface.
type Member = channel.Member
type Resolver = channel.Resolver

const MaxSlots = 8
const MaxMatches = 64
const maxStartTimer = 300 * time.Second

type SlotStatus uint8

const (
	SlotOpen SlotStatus = iota
	SlotLocked
	SlotNotReady
	SlotReady
	SlotNoMap
	SlotPlaying
	SlotComplete
)

// HasPlayer reports whether status implies a seated player (spec.md §4.5
// "For every slot whose status indicates HasPlayer").
func (s SlotStatus) HasPlayer() bool {
	switch s {
	case SlotNotReady, SlotReady, SlotNoMap, SlotPlaying, SlotComplete:
		return true
	}
	return false
}

type Team uint8

const (
	TeamNeutral Team = iota
	TeamRed
	TeamBlue
)

type TeamMode uint8

const (
	TeamModeHeadToHead TeamMode = iota
	TeamModeTagCoop
	TeamModeTeamVs
	TeamModeTagTeamVs
)

func (t TeamMode) FreeForAll() bool { return t == TeamModeHeadToHead || t == TeamModeTagCoop }

type ScoringMode uint8

const (
	ScoringScore ScoringMode = iota
	ScoringAccuracy
	ScoringCombo
	ScoringScoreV2
)

// Mod bits. Only the subset spec.md's freemod invariants name are given
// fixed positions; the rest are opaque bits the client round-trips.
const (
	ModNoFail uint32 = 1 << iota
	ModEasy
	ModTouchDevice
	ModHidden
	ModHardRock
	ModSuddenDeath
	ModDoubleTime
	ModRelax
	ModHalfTime
	ModNightcore
	ModFlashlight
	ModAutoplay
	ModSpunOut
	ModPerfect
)

// SpeedMods are the only bits match-wide mods retain while freemod is on
// (spec.md §3 invariant).
const SpeedMods = ModDoubleTime | ModHalfTime | ModNightcore

// FreeModAllowed are the bits a player may set on their own slot while
// freemod is on.
const FreeModAllowed = ModNoFail | ModEasy | ModHidden | ModHardRock | ModFlashlight | ModSpunOut | ModPerfect

// normalizeMods enforces "DoubleTime and Nightcore never both set" (Nightcore wins).
func normalizeMods(mods uint32) uint32 {
	if mods&ModDoubleTime != 0 && mods&ModNightcore != 0 {
		mods &^= ModDoubleTime
	}
	return mods
}

type Slot struct {
	Status     SlotStatus
	Team       Team
	Mods       uint32
	Player     Member
	HasLoaded  bool
	HasSkipped bool
	HasFailed  bool
	LastFrame  *versions.ScoreFrameArgs
}

func (s *Slot) clear() { *s = Slot{Status: SlotOpen} }

type scoreJob struct {
	slot  int
	frame versions.ScoreFrameArgs
}

// Hooks are the collaborators a Match needs but does not own: persistence,
// member resolution, lobby-wide broadcast, and the channel this match's
// chat lives in. Supplied by whatever creates the Match (internal/registry
// in production, a fake in tests) — match itself never imports registry.
type Hooks struct {
	Events         store.Events
	Matches        store.Matches
	Chat           *channel.Channel
	BroadcastLobby func(kind versions.PacketKind, args any)
	OnDisband      func(id int32)
}

// Match is a multiplayer lobby. All mutation is serialized by mu, per
// spec.md §9's "single mutex per match" design note — contention is low
// (1..8 participants).
type Match struct {
	mu sync.Mutex

	ID       int32
	Name     string
	Password string
	Host     Member

	BeatmapID, PrevBeatmapID     int32
	BeatmapMD5, PrevBeatmapMD5   string
	BeatmapName, PrevBeatmapName string
	Mode                        uint8

	Mods        uint32
	Freemod     bool
	TeamMode    TeamMode
	ScoringMode ScoringMode

	Slots  [MaxSlots]Slot
	Banned map[int32]struct{}

	InProgress   bool
	startArmed   bool
	startTimer   *time.Timer
	LastActivity time.Time
	archiveID    int32

	hooks      Hooks
	scoreQueue chan scoreJob
	done       chan struct{}
}

// New creates a match with the host seated in slot 0. Precondition checks
// that belong to the session layer (host not silenced, not already in a
// match, not a tourney stream) are the caller's responsibility; New only
// performs the mechanical creation spec.md §4.5 describes.
func New(ctx context.Context, id int32, name, password string, host Member, beatmapID int32, beatmapMD5, beatmapName string, mode uint8, hooks Hooks) (*Match, error) {
	m := &Match{
		ID:           id,
		Name:         name,
		Password:     password,
		Host:         host,
		BeatmapID:    beatmapID,
		BeatmapMD5:   beatmapMD5,
		BeatmapName:  beatmapName,
		Mode:         mode,
		TeamMode:     TeamModeHeadToHead,
		Banned:       make(map[int32]struct{}),
		LastActivity: time.Now(),
		hooks:        hooks,
		scoreQueue:   make(chan scoreJob, 64),
		done:         make(chan struct{}),
	}
	m.Slots[0] = Slot{Status: SlotNotReady, Team: m.initialTeam(), Player: host}

	if hooks.Matches != nil {
		archiveID, err := hooks.Matches.Create(ctx, store.MatchRecord{Name: name, BeatmapID: beatmapID, Mode: mode})
		if err != nil {
			return nil, fmt.Errorf("match: persist create: %w", err)
		}
		m.archiveID = archiveID
	}
	go m.runScoreQueue()

	if hooks.BroadcastLobby != nil {
		hooks.BroadcastLobby(versions.KindNewMatch, m.State())
	}
	return m, nil
}

func (m *Match) initialTeam() Team {
	if m.TeamMode == TeamModeHeadToHead || m.TeamMode == TeamModeTagCoop {
		return TeamNeutral
	}
	return TeamRed
}

// State snapshots the match into the wire-level MatchState used by
// NEW_MATCH/UPDATE_MATCH/MATCH_JOIN_SUCCESS/MATCH_START.
func (m *Match) State() versions.MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Match) stateLocked() versions.MatchState {
	st := versions.MatchState{
		ID:          m.ID,
		Name:        m.Name,
		Password:    m.Password,
		InProgress:  m.InProgress,
		Mods:        m.Mods,
		Freemod:     m.Freemod,
		BeatmapName: m.BeatmapName,
		BeatmapID:   m.BeatmapID,
		BeatmapMD5:  m.BeatmapMD5,
		Mode:        m.Mode,
		TeamMode:    uint8(m.TeamMode),
		ScoringMode: uint8(m.ScoringMode),
	}
	if m.Host != nil {
		st.HostUserID = m.Host.ID()
	}
	for i, s := range m.Slots {
		var userID int32
		if s.Player != nil {
			userID = s.Player.ID()
		}
		st.Slots[i] = versions.MatchSlot{
			Status:  uint8(s.Status),
			Team:    uint8(s.Team),
			Mods:    s.Mods,
			UserID:  userID,
			Loaded:  s.HasLoaded,
			Skipped: s.HasSkipped,
			Failed:  s.HasFailed,
		}
	}
	return st
}

func (m *Match) broadcastUpdate() {
	state := m.stateLocked()
	for _, s := range m.Slots {
		if s.Player != nil {
			s.Player.Enqueue(versions.KindUpdateMatch, state)
		}
	}
}

// ErrWrongPassword, ErrNotHost, ErrMatchFull, ErrBanned, ErrSlotTaken,
// ErrSlotNotOpen, ErrNotPlaying, ErrAlreadyPlaying are the business-logic
// rejections spec.md §7 says are "silently ignored or signaled through the
// dedicated packet" — callers decide which.
type rejection string

func (r rejection) Error() string { return string(r) }

const (
	ErrWrongPassword  = rejection("match: wrong password")
	ErrNotHost        = rejection("match: not host")
	ErrMatchFull      = rejection("match: full")
	ErrBanned         = rejection("match: banned")
	ErrSlotNotOpen    = rejection("match: slot not open")
	ErrNotPlaying     = rejection("match: no player currently playing")
	ErrAlreadyPlaying = rejection("match: a player is already playing")
	ErrSlotTaken      = rejection("match: slot already has a player")
)

// Join seats player in the first open slot. Host bypasses the password
// check. Logs a Join event externally on success.
func (m *Match) Join(ctx context.Context, player Member, password string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, banned := m.Banned[player.ID()]; banned {
		return -1, ErrBanned
	}
	if m.Password != "" && password != m.Password && (m.Host == nil || player.ID() != m.Host.ID()) {
		return -1, ErrWrongPassword
	}

	idx := -1
	for i, s := range m.Slots {
		if s.Status == SlotOpen {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, ErrMatchFull
	}

	m.Slots[idx] = Slot{Status: SlotNotReady, Team: m.initialTeam(), Player: player}
	m.LastActivity = time.Now()
	m.archiveEvent(ctx, store.EventJoin, map[string]any{"user_id": player.ID()})
	m.broadcastUpdate()
	return idx, nil
}

// Leave removes player from its slot. Returns true if the match disbanded
// as a result (all slots now empty).
func (m *Match) Leave(ctx context.Context, playerID int32) (disbanded bool) {
	m.mu.Lock()

	idx := m.slotOf(playerID)
	if idx < 0 {
		m.mu.Unlock()
		return false
	}

	wasHost := m.Host != nil && m.Host.ID() == playerID
	if m.Slots[idx].Status == SlotLocked {
		m.Slots[idx] = Slot{Status: SlotLocked}
	} else {
		m.Slots[idx].clear()
	}

	if wasHost && m.BeatmapID == -1 {
		m.BeatmapID, m.BeatmapMD5, m.BeatmapName = m.PrevBeatmapID, m.PrevBeatmapMD5, m.PrevBeatmapName
	}

	anyPlayer := false
	for i := range m.Slots {
		if m.Slots[i].Player != nil {
			anyPlayer = true
			break
		}
	}

	if !anyPlayer {
		m.mu.Unlock()
		m.disband(ctx)
		return true
	}

	if wasHost {
		for i := 0; i < MaxSlots; i++ {
			if m.Slots[i].Player != nil {
				m.Host = m.Slots[i].Player
				break
			}
		}
		m.archiveEvent(ctx, store.EventHost, map[string]any{"user_id": m.Host.ID()})
	}
	m.broadcastUpdate()
	m.mu.Unlock()
	return false
}

func (m *Match) slotOf(playerID int32) int {
	for i, s := range m.Slots {
		if s.Player != nil && s.Player.ID() == playerID {
			return i
		}
	}
	return -1
}

func (m *Match) disband(ctx context.Context) {
	if m.hooks.BroadcastLobby != nil {
		m.hooks.BroadcastLobby(versions.KindDisbandMatch, versions.LoginReplyArgs{Code: m.ID})
	}
	if m.hooks.Matches != nil {
		if _, err := m.hooks.Events.FetchLastByKind(ctx, m.archiveID, store.EventStart); err == nil {
			m.hooks.Matches.Update(ctx, store.MatchRecord{ID: m.archiveID, Ended: true})
		} else {
			m.hooks.Matches.Delete(ctx, m.archiveID)
		}
	}
	close(m.done)
	if m.hooks.OnDisband != nil {
		m.hooks.OnDisband(m.ID)
	}
}

func (m *Match) archiveEvent(ctx context.Context, kind store.EventKind, data map[string]any) {
	if m.hooks.Events == nil {
		return
	}
	if err := m.hooks.Events.Create(ctx, store.Event{MatchID: m.archiveID, Kind: kind, Data: data, At: time.Now()}); err != nil {
		logging.Warnf("match %d: archive %s event: %v", m.ID, kind, err)
	}
}

// ChangeSettings applies a host-only settings change. In non-freemod, mods
// are host-controlled outright; in freemod, only SpeedMods may be set here
// (per-slot mods are each player's own concern, via ChangeSlotMods). Any mod
// change unreadies everyone; a beatmap change unreadies Ready/now-matching
// NoMap slots.
func (m *Match) ChangeSettings(actorID int32, name, password string, teamMode TeamMode, scoringMode ScoringMode, beatmapID int32, beatmapMD5, beatmapName string, mods uint32, freemod bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Host == nil || m.Host.ID() != actorID {
		return ErrNotHost
	}

	beatmapChanged := beatmapID != m.BeatmapID || beatmapMD5 != m.BeatmapMD5
	if beatmapChanged {
		m.PrevBeatmapID, m.PrevBeatmapMD5, m.PrevBeatmapName = m.BeatmapID, m.BeatmapMD5, m.BeatmapName
		m.BeatmapID, m.BeatmapMD5, m.BeatmapName = beatmapID, beatmapMD5, beatmapName
	}

	m.Name = name
	m.Password = password
	m.TeamMode = teamMode
	m.ScoringMode = scoringMode

	newMods := normalizeMods(mods)
	if freemod {
		newMods &= SpeedMods
	}
	modsChanged := newMods != m.Mods || freemod != m.Freemod
	m.Mods = newMods
	m.Freemod = freemod

	for i := range m.Slots {
		if m.Slots[i].Player == nil {
			continue
		}
		if modsChanged {
			m.Slots[i].Status = SlotNotReady
			if !freemod {
				m.Slots[i].Mods = 0
			}
		}
		if beatmapChanged && (m.Slots[i].Status == SlotReady || m.Slots[i].Status == SlotNoMap) {
			m.Slots[i].Status = SlotNotReady
		}
	}
	m.broadcastUpdate()
	return nil
}

// ChangeSlotMods lets a player set their own mods while freemod is on.
func (m *Match) ChangeSlotMods(playerID int32, mods uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(playerID)
	if idx < 0 {
		return ErrSlotNotOpen
	}
	if !m.Freemod {
		return nil
	}
	m.Slots[idx].Mods = mods & FreeModAllowed
	m.broadcastUpdate()
	return nil
}

// ChangeSlot moves the calling player into an Open target slot.
func (m *Match) ChangeSlot(playerID int32, target int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if target < 0 || target >= MaxSlots || m.Slots[target].Status != SlotOpen {
		return ErrSlotNotOpen
	}
	src := m.slotOf(playerID)
	if src < 0 {
		return ErrSlotNotOpen
	}
	m.Slots[target] = m.Slots[src]
	m.Slots[src] = Slot{Status: SlotOpen}
	m.broadcastUpdate()
	return nil
}

// Lock toggles an empty slot between Open and Locked; kicks a non-host
// occupant out if the slot has one. The host may not lock themselves.
func (m *Match) Lock(actorID int32, slot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Host == nil || m.Host.ID() != actorID {
		return ErrNotHost
	}
	if slot < 0 || slot >= MaxSlots {
		return ErrSlotNotOpen
	}
	if m.Slots[slot].Player != nil {
		if m.Host.ID() == m.Slots[slot].Player.ID() {
			return nil
		}
		m.Slots[slot].clear()
		m.broadcastUpdate()
		return nil
	}
	if m.Slots[slot].Status == SlotLocked {
		m.Slots[slot].Status = SlotOpen
	} else {
		m.Slots[slot].Status = SlotLocked
	}
	m.broadcastUpdate()
	return nil
}

// ChangeTeam swaps Red/Blue for playerID; only meaningful in free-for-all
// team modes.
func (m *Match) ChangeTeam(playerID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.TeamMode.FreeForAll() {
		return nil
	}
	idx := m.slotOf(playerID)
	if idx < 0 {
		return ErrSlotNotOpen
	}
	if m.Slots[idx].Team == TeamRed {
		m.Slots[idx].Team = TeamBlue
	} else {
		m.Slots[idx].Team = TeamRed
	}
	m.broadcastUpdate()
	return nil
}

// Ready/NotReady toggle the calling player's readiness.
func (m *Match) Ready(playerID int32, ready bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(playerID)
	if idx < 0 {
		return ErrSlotNotOpen
	}
	if ready {
		m.Slots[idx].Status = SlotReady
	} else {
		m.Slots[idx].Status = SlotNotReady
	}
	m.broadcastUpdate()
	return nil
}

// Ban bars userID from rejoining (host-only).
func (m *Match) Ban(actorID, targetID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Host == nil || m.Host.ID() != actorID {
		return ErrNotHost
	}
	m.Banned[targetID] = struct{}{}
	return nil
}

// Start transitions every seated slot to Playing and sends MATCH_START.
// Host-only; rejected while anyone is already Playing.
func (m *Match) Start(ctx context.Context, actorID int32) error {
	m.mu.Lock()
	if m.Host == nil || m.Host.ID() != actorID {
		m.mu.Unlock()
		return ErrNotHost
	}
	for _, s := range m.Slots {
		if s.Status == SlotPlaying {
			m.mu.Unlock()
			return ErrAlreadyPlaying
		}
	}
	var targets []Member
	for i := range m.Slots {
		if m.Slots[i].Status.HasPlayer() {
			m.Slots[i].Status = SlotPlaying
			targets = append(targets, m.Slots[i].Player)
		}
	}
	m.InProgress = true
	m.startArmed = false
	if m.startTimer != nil {
		m.startTimer.Stop()
		m.startTimer = nil
	}
	state := versions.MatchStartArgs{State: m.stateLocked()}
	m.mu.Unlock()

	for _, t := range targets {
		t.Enqueue(versions.KindMatchStart, state)
	}
	m.archiveEvent(ctx, store.EventStart, map[string]any{"beatmap_id": state.State.BeatmapID})
	return nil
}

// ArmStartTimer schedules Start to fire after delay (clamped to 300s,
// spec.md §4.5); cancelable by ClearStartTimer before it fires.
func (m *Match) ArmStartTimer(ctx context.Context, actorID int32, delay time.Duration) error {
	if delay > maxStartTimer {
		delay = maxStartTimer
	}
	m.mu.Lock()
	if m.Host == nil || m.Host.ID() != actorID {
		m.mu.Unlock()
		return ErrNotHost
	}
	m.startArmed = true
	m.mu.Unlock()

	m.startTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		armed := m.startArmed
		m.mu.Unlock()
		if !armed {
			return
		}
		m.Start(ctx, actorID)
	})
	return nil
}

// ClearStartTimer cancels an armed start timer.
func (m *Match) ClearStartTimer() {
	m.mu.Lock()
	m.startArmed = false
	if m.startTimer != nil {
		m.startTimer.Stop()
		m.startTimer = nil
	}
	m.mu.Unlock()
}

// LoadComplete marks playerID's slot loaded; broadcasts
// MATCH_ALL_PLAYERS_LOADED once every Playing slot has reported.
func (m *Match) LoadComplete(playerID int32) {
	m.mu.Lock()
	idx := m.slotOf(playerID)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	m.Slots[idx].HasLoaded = true
	all := m.allPlayingSatisfy(func(s Slot) bool { return s.HasLoaded })
	m.mu.Unlock()
	if all {
		m.broadcastToPlaying(versions.KindMatchAllPlayersLoaded, nil)
	}
}

// Skip marks playerID's slot skipped, broadcasts MATCH_PLAYER_SKIPPED, and
// once every Playing slot is skipped broadcasts MATCH_SKIP.
func (m *Match) Skip(playerID int32) {
	m.mu.Lock()
	idx := m.slotOf(playerID)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	m.Slots[idx].HasSkipped = true
	all := m.allPlayingSatisfy(func(s Slot) bool { return s.HasSkipped })
	m.mu.Unlock()

	m.broadcastToPlaying(versions.KindMatchPlayerSkipped, versions.LoginReplyArgs{Code: int32(idx)})
	if all {
		m.broadcastToPlaying(versions.KindMatchSkip, nil)
	}
}

// Failed marks playerID's slot failed and broadcasts MATCH_PLAYER_FAILED.
func (m *Match) Failed(playerID int32) {
	m.mu.Lock()
	idx := m.slotOf(playerID)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	m.Slots[idx].HasFailed = true
	m.mu.Unlock()
	m.broadcastToPlaying(versions.KindMatchPlayerFailed, versions.LoginReplyArgs{Code: int32(idx)})
}

func (m *Match) allPlayingSatisfy(pred func(Slot) bool) bool {
	any := false
	for _, s := range m.Slots {
		if s.Status != SlotPlaying {
			continue
		}
		any = true
		if !pred(s) {
			return false
		}
	}
	return any
}

func (m *Match) broadcastToPlaying(kind versions.PacketKind, args any) {
	m.mu.Lock()
	var targets []Member
	for _, s := range m.Slots {
		if s.Status == SlotPlaying && s.Player != nil {
			targets = append(targets, s.Player)
		}
	}
	m.mu.Unlock()
	for _, t := range targets {
		t.Enqueue(kind, args)
	}
}

// ScoreUpdate overwrites frame.SlotID with the sender's slot index and
// enqueues it on the match's FIFO score queue (spec.md §4.5/§5: frames from
// one slot fan out in arrival order; order across slots is unspecified).
func (m *Match) ScoreUpdate(playerID int32, frame versions.ScoreFrameArgs) {
	m.mu.Lock()
	idx := m.slotOf(playerID)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	frame.SlotID = int32(idx)
	m.Slots[idx].LastFrame = &frame
	m.mu.Unlock()

	select {
	case m.scoreQueue <- scoreJob{slot: idx, frame: frame}:
	case <-m.done:
	}
}

func (m *Match) runScoreQueue() {
	for {
		select {
		case job := <-m.scoreQueue:
			m.broadcastToPlaying(versions.KindMatchScoreUpdate, job.frame)
		case <-m.done:
			return
		}
	}
}

// Complete marks playerID's slot Complete; once no slot remains Playing the
// match waits for the score queue to drain, unreadies completed slots,
// clears in-progress, sends MATCH_COMPLETE, and archives a ranked Result.
func (m *Match) Complete(ctx context.Context, playerID int32) {
	m.mu.Lock()
	idx := m.slotOf(playerID)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	m.Slots[idx].Status = SlotComplete

	stillPlaying := false
	for _, s := range m.Slots {
		if s.Status == SlotPlaying {
			stillPlaying = true
			break
		}
	}
	if stillPlaying {
		m.mu.Unlock()
		return
	}

	for len(m.scoreQueue) > 0 {
		m.mu.Unlock()
		time.Sleep(time.Millisecond)
		m.mu.Lock()
	}

	var targets []Member
	var results []rankedSlot
	for i := range m.Slots {
		if m.Slots[i].Status == SlotComplete {
			m.Slots[i].Status = SlotNotReady
		}
		if m.Slots[i].Player == nil || m.Slots[i].LastFrame == nil {
			continue
		}
		targets = append(targets, m.Slots[i].Player)
		results = append(results, rankedSlot{slot: i, value: m.rankValue(m.Slots[i])})
	}
	m.InProgress = false
	m.mu.Unlock()

	for _, t := range targets {
		t.Enqueue(versions.KindMatchComplete, versions.MatchCompleteArgs{})
	}

	sortByRankDesc(results)
	ranking := make([]int, 0, len(results))
	for _, r := range results {
		ranking = append(ranking, r.slot)
	}
	m.archiveEvent(ctx, store.EventResult, map[string]any{"mode": int(m.ScoringMode), "ranking": ranking})
}

type rankedSlot struct {
	slot  int
	value int64
}

// sortByRankDesc ranks by descending value; ties keep insertion order
// (spec.md §4.5: "tie-breaks by insertion order").
func sortByRankDesc(results []rankedSlot) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].value > results[j].value })
}

func (m *Match) rankValue(s Slot) int64 {
	if s.LastFrame == nil {
		return 0
	}
	switch m.ScoringMode {
	case ScoringCombo:
		return int64(s.LastFrame.MaxCombo)
	case ScoringAccuracy:
		total := int64(s.LastFrame.Count300) + int64(s.LastFrame.Count100) + int64(s.LastFrame.Count50) + int64(s.LastFrame.CountMiss)
		if total == 0 {
			return 0
		}
		return (int64(s.LastFrame.Count300)*300 + int64(s.LastFrame.Count100)*100 + int64(s.LastFrame.Count50)*50) * 10000 / (total * 300)
	default:
		return int64(s.LastFrame.TotalScore)
	}
}

// Abort ends an in-progress match without a Result event, resetting every
// Playing slot to NotReady and clearing in-progress. Host-only. Recovered
// from the original implementation's multiplayer handler (not named in
// spec.md's packet catalog by this name, but the distillation dropped it;
// see SPEC_FULL.md §4.7).
func (m *Match) Abort(actorID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Host == nil || m.Host.ID() != actorID {
		return ErrNotHost
	}
	if !m.InProgress {
		return ErrNotPlaying
	}
	for i := range m.Slots {
		if m.Slots[i].Status == SlotPlaying {
			m.Slots[i].Status = SlotNotReady
		}
	}
	m.InProgress = false
	m.broadcastUpdate()
	return nil
}

// InviteBody formats the private-message body earlier cohorts (and any
// client without the INVITE packet) receive instead of a structured
// invite, pinning the exact wording the original implementation used.
func (m *Match) InviteBody() string {
	return fmt.Sprintf("Come join my multiplayer match: [osump://%d/%s %s]", m.ID, m.Password, m.Name)
}
