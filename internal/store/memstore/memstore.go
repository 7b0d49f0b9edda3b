// Package memstore is an in-memory reference implementation of the
// internal/store interfaces, sufficient to drive the session/match engine
// end-to-end in tests. It mirrors the teacher's map-plus-RWMutex registry
// idiom rather than any real persistence engine.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/chordwave/lobby/internal/store"
)

// Store bundles every store.* interface over one shared in-memory dataset,
// the way a single relational database would in production.
type Store struct {
	mu sync.RWMutex

	users         map[int32]store.User
	usersByName   map[string]int32
	friends       map[int32]map[int32]bool
	beatmaps      map[int32]store.Beatmap
	beatmapsByMD5 map[string]int32
	scores        map[string]store.Score // key: md5|userID|mode
	matches       map[int32]store.MatchRecord
	events        []store.Event
	messages      []store.Message
	clients       map[int32]store.ClientHardware
	infringements map[int32][]store.Infringement
	logins        []loginRow

	nextMatchID int32
}

type loginRow struct {
	userID        int32
	host          string
	versionString string
}

func New() *Store {
	return &Store{
		users:         make(map[int32]store.User),
		usersByName:   make(map[string]int32),
		friends:       make(map[int32]map[int32]bool),
		beatmaps:      make(map[int32]store.Beatmap),
		beatmapsByMD5: make(map[string]int32),
		scores:        make(map[string]store.Score),
		matches:       make(map[int32]store.MatchRecord),
		clients:       make(map[int32]store.ClientHardware),
		infringements: make(map[int32][]store.Infringement),
		nextMatchID:   1,
	}
}

// Seed inserts a user row directly, used by tests to bootstrap fixtures.
func (s *Store) Seed(u store.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.usersByName[lower(u.Name)] = u.ID
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// --- Users ---

func (s *Store) FetchByID(ctx context.Context, id int32) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) FetchByName(ctx context.Context, name string) (store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByName[lower(name)]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) Update(ctx context.Context, id int32, fields store.UserFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if fields.Restricted != nil {
		u.Restricted = *fields.Restricted
	}
	if fields.Permissions != nil {
		u.Permissions = *fields.Permissions
	}
	if fields.SilenceEnd != nil {
		u.SilenceEnd = *fields.SilenceEnd
	}
	if fields.SupporterEnd != nil {
		u.SupporterEnd = *fields.SupporterEnd
	}
	if fields.Country != nil {
		u.Country = *fields.Country
	}
	if fields.LatestActivity != nil {
		u.LatestActivity = *fields.LatestActivity
	}
	s.users[id] = u
	return nil
}

// --- Relationships ---

func (s *Store) Create(ctx context.Context, userID, targetID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.friends[userID] == nil {
		s.friends[userID] = make(map[int32]bool)
	}
	s.friends[userID][targetID] = true
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, targetID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.friends[userID], targetID)
	return nil
}

func (s *Store) Friends(ctx context.Context, userID int32) ([]int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int32, 0, len(s.friends[userID]))
	for id := range s.friends[userID] {
		out = append(out, id)
	}
	return out, nil
}

// --- Beatmaps ---

func (s *Store) FetchBeatmapByID(ctx context.Context, id int32) (store.Beatmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beatmaps[id]
	if !ok {
		return store.Beatmap{}, store.ErrNotFound
	}
	return b, nil
}

func (s *Store) FetchByChecksum(ctx context.Context, md5 string) (store.Beatmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.beatmapsByMD5[md5]
	if !ok {
		return store.Beatmap{}, store.ErrNotFound
	}
	return s.beatmaps[id], nil
}

// --- Scores ---

func scoreKey(beatmapMD5 string, userID int32, mode uint8) string {
	return beatmapMD5 + "|" + itoa(int(userID)) + "|" + itoa(int(mode))
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var b []byte
	for v > 0 {
		b = append([]byte{byte('0' + v%10)}, b...)
		v /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func (s *Store) FetchPersonalBest(ctx context.Context, beatmapMD5 string, userID int32, mode uint8) (store.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scores[scoreKey(beatmapMD5, userID, mode)]
	if !ok {
		return store.Score{}, store.ErrNotFound
	}
	return sc, nil
}

func (s *Store) HideAll(ctx context.Context, userID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sc := range s.scores {
		if sc.UserID == userID {
			sc.Hidden = true
			s.scores[k] = sc
		}
	}
	return nil
}

func (s *Store) RestoreHidden(ctx context.Context, userID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sc := range s.scores {
		if sc.UserID == userID {
			sc.Hidden = false
			s.scores[k] = sc
		}
	}
	return nil
}

// --- Matches ---

func (s *Store) CreateMatch(ctx context.Context, rec store.MatchRecord) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextMatchID
	s.nextMatchID++
	rec.ID = id
	s.matches[id] = rec
	return id, nil
}

func (s *Store) UpdateMatch(ctx context.Context, rec store.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[rec.ID]; !ok {
		return store.ErrNotFound
	}
	s.matches[rec.ID] = rec
	return nil
}

func (s *Store) DeleteMatch(ctx context.Context, id int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}

func (s *Store) FetchMatchByID(ctx context.Context, id int32) (store.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.matches[id]
	if !ok {
		return store.MatchRecord{}, store.ErrNotFound
	}
	return rec, nil
}

// --- Events ---

func (s *Store) CreateEvent(ctx context.Context, ev store.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *Store) FetchLastByKind(ctx context.Context, matchID int32, kind store.EventKind) (store.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		ev := s.events[i]
		if ev.MatchID == matchID && ev.Kind == kind {
			return ev, nil
		}
	}
	return store.Event{}, store.ErrNotFound
}

// --- Messages ---

func (s *Store) CreateMessage(ctx context.Context, msg store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// --- Clients ---

func (s *Store) FetchWithoutExecutable(ctx context.Context) ([]store.ClientHardware, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.ClientHardware
	for _, hw := range s.clients {
		if hw.Executable == "" {
			out = append(out, hw)
		}
	}
	return out, nil
}

func (s *Store) CreateClient(ctx context.Context, hw store.ClientHardware) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[hw.UserID] = hw
	return nil
}

func (s *Store) UpdateAll(ctx context.Context, userID int32, hw store.ClientHardware) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hw.UserID = userID
	s.clients[userID] = hw
	return nil
}

// --- Infringements ---

func (s *Store) CreateInfringement(ctx context.Context, inf store.Infringement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infringements[inf.UserID] = append(s.infringements[inf.UserID], inf)
	return nil
}

// LatestSilenceEnd implements the spec.md §9 source-of-truth rule: the most
// recent infringements row wins over the user row's silence_end.
func (s *Store) LatestSilenceEnd(ctx context.Context, userID int32) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.infringements[userID]
	if len(rows) == 0 {
		return time.Time{}, false, nil
	}
	latest := rows[0]
	for _, r := range rows[1:] {
		if r.At.After(latest.At) {
			latest = r
		}
	}
	if latest.Permanent {
		return time.Time{}, true, nil
	}
	return latest.At.Add(latest.Length), true, nil
}

// --- Logins ---

func (s *Store) CreateLogin(ctx context.Context, userID int32, host, versionString string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins = append(s.logins, loginRow{userID: userID, host: host, versionString: versionString})
	return nil
}
