// Package store declares the narrow interfaces the engine requires of the
// external relational store and cache (spec.md §6 "Persistence contracts").
// Implementations live outside this package's concern — package memstore
// provides an in-memory reference implementation sufficient to drive the
// engine end-to-end in tests.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookup operations that find nothing.
var ErrNotFound = errors.New("store: not found")

// EventKind names the multiplayer event archive kinds named in spec.md §6.
type EventKind string

const (
	EventJoin    EventKind = "Join"
	EventLeave   EventKind = "Leave"
	EventHost    EventKind = "Host"
	EventStart   EventKind = "Start"
	EventDisband EventKind = "Disband"
	EventResult  EventKind = "Result"
)

// User is the external principal record (spec.md §3 "Principal").
type User struct {
	ID            int32
	Name          string
	BcryptHash    []byte
	Country       string
	Permissions   uint8
	SilenceEnd    time.Time
	SupporterEnd  time.Time
	Restricted    bool
	NotActivated  bool
	LatestActivity time.Time
}

// UserFields names the subset of User that Users.Update may mutate.
type UserFields struct {
	Restricted     *bool
	Permissions    *uint8
	SilenceEnd     *time.Time
	SupporterEnd   *time.Time
	Country        *string
	LatestActivity *time.Time
}

type Users interface {
	FetchByID(ctx context.Context, id int32) (User, error)
	FetchByName(ctx context.Context, name string) (User, error)
	Update(ctx context.Context, id int32, fields UserFields) error
}

type Relationships interface {
	Create(ctx context.Context, userID, targetID int32) error
	Delete(ctx context.Context, userID, targetID int32) error
	Friends(ctx context.Context, userID int32) ([]int32, error)
}

type Beatmap struct {
	ID       int32
	MD5      string
	Filename string
	Mode     uint8
}

type Beatmaps interface {
	FetchByID(ctx context.Context, id int32) (Beatmap, error)
	FetchByChecksum(ctx context.Context, md5 string) (Beatmap, error)
}

type Score struct {
	UserID     int32
	BeatmapMD5 string
	Mode       uint8
	TotalScore int64
	Hidden     bool
}

type Scores interface {
	FetchPersonalBest(ctx context.Context, beatmapMD5 string, userID int32, mode uint8) (Score, error)
	HideAll(ctx context.Context, userID int32) error
	RestoreHidden(ctx context.Context, userID int32) error
}

// MatchRecord is the archived representation of a Match (spec.md §3/§4.5).
type MatchRecord struct {
	ID          int32
	Name        string
	BeatmapID   int32
	Mode        uint8
	Ended       bool
}

type Matches interface {
	Create(ctx context.Context, rec MatchRecord) (int32, error)
	Update(ctx context.Context, rec MatchRecord) error
	Delete(ctx context.Context, id int32) error
	FetchByID(ctx context.Context, id int32) (MatchRecord, error)
}

type Event struct {
	MatchID int32
	Kind    EventKind
	Data    map[string]any
	At      time.Time
}

type Events interface {
	Create(ctx context.Context, ev Event) error
	FetchLastByKind(ctx context.Context, matchID int32, kind EventKind) (Event, error)
}

type Message struct {
	Sender string
	Target string
	Text   string
	At     time.Time
}

type Messages interface {
	Create(ctx context.Context, msg Message) error
}

type ClientHardware struct {
	UserID      int32
	Executable  string
	AdaptersMD5 string
	DiskSig     string
}

type Clients interface {
	FetchWithoutExecutable(ctx context.Context) ([]ClientHardware, error)
	Create(ctx context.Context, hw ClientHardware) error
	UpdateAll(ctx context.Context, userID int32, hw ClientHardware) error
}

type Infringement struct {
	UserID      int32
	Action      int
	Length      time.Duration
	Description string
	Permanent   bool
	At          time.Time
}

type Infringements interface {
	Create(ctx context.Context, inf Infringement) error
	// LatestSilenceEnd resolves the silence-expiry source of truth: per
	// spec.md §9, the infringements record wins over the user row's
	// silence_end when both exist.
	LatestSilenceEnd(ctx context.Context, userID int32) (time.Time, bool, error)
}

type Logins interface {
	Create(ctx context.Context, userID int32, host, versionString string) error
}

// Leaderboards, Status, and Usercount are the external cache collaborators
// named in spec.md §6; internal/cache backs Leaderboards and Status with an
// embedded badger store and keeps Usercount as an in-memory counter.
type Leaderboards interface {
	Update(ctx context.Context, mode uint8, userID int32, totalScore int64) error
	Remove(ctx context.Context, mode uint8, userID int32) error
	GlobalRank(ctx context.Context, mode uint8, userID int32) (int32, error)
	ScoreRank(ctx context.Context, mode uint8, beatmapMD5 string, userID int32) (int32, error)
}

type Status interface {
	Update(ctx context.Context, userID int32, action uint8, text string) error
	Delete(ctx context.Context, userID int32) error
}

type Usercount interface {
	Increment(ctx context.Context) (int64, error)
	Decrement(ctx context.Context) (int64, error)
}
