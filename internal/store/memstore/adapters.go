package memstore

import (
	"context"
	"time"

	"github.com/chordwave/lobby/internal/store"
)

// Each adapter narrows *Store to one store.* interface under that
// interface's exact method names — Go has no overloading, and a single
// dataset backs every collaborator the way one relational database would.

type UsersStore struct{ *Store }

func (a UsersStore) FetchByID(ctx context.Context, id int32) (store.User, error) {
	return a.Store.FetchByID(ctx, id)
}
func (a UsersStore) FetchByName(ctx context.Context, name string) (store.User, error) {
	return a.Store.FetchByName(ctx, name)
}
func (a UsersStore) Update(ctx context.Context, id int32, fields store.UserFields) error {
	return a.Store.Update(ctx, id, fields)
}

type RelationshipsStore struct{ *Store }

func (a RelationshipsStore) Create(ctx context.Context, userID, targetID int32) error {
	return a.Store.Create(ctx, userID, targetID)
}
func (a RelationshipsStore) Delete(ctx context.Context, userID, targetID int32) error {
	return a.Store.Delete(ctx, userID, targetID)
}
func (a RelationshipsStore) Friends(ctx context.Context, userID int32) ([]int32, error) {
	return a.Store.Friends(ctx, userID)
}

type BeatmapsStore struct{ *Store }

func (a BeatmapsStore) FetchByID(ctx context.Context, id int32) (store.Beatmap, error) {
	return a.Store.FetchBeatmapByID(ctx, id)
}
func (a BeatmapsStore) FetchByChecksum(ctx context.Context, md5 string) (store.Beatmap, error) {
	return a.Store.FetchByChecksum(ctx, md5)
}

type ScoresStore struct{ *Store }

func (a ScoresStore) FetchPersonalBest(ctx context.Context, beatmapMD5 string, userID int32, mode uint8) (store.Score, error) {
	return a.Store.FetchPersonalBest(ctx, beatmapMD5, userID, mode)
}
func (a ScoresStore) HideAll(ctx context.Context, userID int32) error {
	return a.Store.HideAll(ctx, userID)
}
func (a ScoresStore) RestoreHidden(ctx context.Context, userID int32) error {
	return a.Store.RestoreHidden(ctx, userID)
}

type MatchesStore struct{ *Store }

func (a MatchesStore) Create(ctx context.Context, rec store.MatchRecord) (int32, error) {
	return a.Store.CreateMatch(ctx, rec)
}
func (a MatchesStore) Update(ctx context.Context, rec store.MatchRecord) error {
	return a.Store.UpdateMatch(ctx, rec)
}
func (a MatchesStore) Delete(ctx context.Context, id int32) error {
	return a.Store.DeleteMatch(ctx, id)
}
func (a MatchesStore) FetchByID(ctx context.Context, id int32) (store.MatchRecord, error) {
	return a.Store.FetchMatchByID(ctx, id)
}

type EventsStore struct{ *Store }

func (a EventsStore) Create(ctx context.Context, ev store.Event) error {
	return a.Store.CreateEvent(ctx, ev)
}
func (a EventsStore) FetchLastByKind(ctx context.Context, matchID int32, kind store.EventKind) (store.Event, error) {
	return a.Store.FetchLastByKind(ctx, matchID, kind)
}

type MessagesStore struct{ *Store }

func (a MessagesStore) Create(ctx context.Context, msg store.Message) error {
	return a.Store.CreateMessage(ctx, msg)
}

type ClientsStore struct{ *Store }

func (a ClientsStore) FetchWithoutExecutable(ctx context.Context) ([]store.ClientHardware, error) {
	return a.Store.FetchWithoutExecutable(ctx)
}
func (a ClientsStore) Create(ctx context.Context, hw store.ClientHardware) error {
	return a.Store.CreateClient(ctx, hw)
}
func (a ClientsStore) UpdateAll(ctx context.Context, userID int32, hw store.ClientHardware) error {
	return a.Store.UpdateAll(ctx, userID, hw)
}

type InfringementsStore struct{ *Store }

func (a InfringementsStore) Create(ctx context.Context, inf store.Infringement) error {
	return a.Store.CreateInfringement(ctx, inf)
}
func (a InfringementsStore) LatestSilenceEnd(ctx context.Context, userID int32) (time.Time, bool, error) {
	return a.Store.LatestSilenceEnd(ctx, userID)
}

type LoginsStore struct{ *Store }

func (a LoginsStore) Create(ctx context.Context, userID int32, host, versionString string) error {
	return a.Store.CreateLogin(ctx, userID, host, versionString)
}

// Collaborators bundles every adapter, typed against the store interfaces,
// for convenient wiring into the engine.
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
}

// NewCollaborators wires every adapter against one shared in-memory Store.
func NewCollaborators(s *Store) Collaborators {
	return Collaborators{
		Users:         UsersStore{s},
		Relationships: RelationshipsStore{s},
		Beatmaps:      BeatmapsStore{s},
		Scores:        ScoresStore{s},
		Matches:       MatchesStore{s},
		Events:        EventsStore{s},
		Messages:      MessagesStore{s},
		Clients:       ClientsStore{s},
		Infringements: InfringementsStore{s},
		Logins:        LoginsStore{s},
	}
}
