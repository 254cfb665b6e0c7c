// Package tournament keeps score over a series of games played by a fixed
// set of entrants.
package tournament

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/scoring"
)

// TournamentState represents the state of a tournament
type TournamentState int

const (
	TournamentStateWaiting TournamentState = iota
	TournamentStateInProgress
	TournamentStateFinished
)

func (s TournamentState) String() string {
	switch s {
	case TournamentStateWaiting:
		return "WAITING"
	case TournamentStateInProgress:
		return "IN_PROGRESS"
	case TournamentStateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Points awarded per game.
const (
	PointsWin  = 3
	PointsDraw = 1
)

var (
	ErrNotWaiting     = errors.New("tournament already started")
	ErrNotInProgress  = errors.New("tournament is not in progress")
	ErrUnknownEntrant = errors.New("unknown entrant")
)

// Entrant is a tournament participant. A sole winner scores a win, tied
// winners score a draw and everybody else a loss.
type Entrant struct {
	Name   string
	Games  int
	Wins   int
	Draws  int
	Losses int
	Points int
	VP     int
}

// GameRecord is one recorded game.
type GameRecord struct {
	GameID  string
	Seats   []string
	Winners []string
	Tied    bool
}

// TournamentSnapshot captures a consistent view of a tournament.
type TournamentSnapshot struct {
	ID         string
	Name       string
	State      TournamentState
	Standings  []Entrant
	Games      []GameRecord
	NumGames   int
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time
}

// Tournament is a series of games. NumGames of zero leaves the series open
// until Finish is called.
type Tournament struct {
	ID         string
	Name       string
	State      TournamentState
	Entrants   map[string]*Entrant
	Order      []string // insertion order
	Games      []GameRecord
	NumGames   int
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time
	mu         sync.RWMutex
}

// NewTournament creates a new tournament
func NewTournament(name string, numGames int) *Tournament {
	return &Tournament{
		ID:         uuid.New().String(),
		Name:       name,
		State:      TournamentStateWaiting,
		Entrants:   make(map[string]*Entrant),
		NumGames:   numGames,
		CreateTime: time.Now(),
	}
}

// AddEntrant adds an entrant to the tournament
func (t *Tournament) AddEntrant(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateWaiting {
		return ErrNotWaiting
	}
	if _, exists := t.Entrants[name]; exists {
		return fmt.Errorf("entrant %q already joined", name)
	}

	t.Entrants[name] = &Entrant{Name: name}
	t.Order = append(t.Order, name)
	return nil
}

// RemoveEntrant removes an entrant before the tournament starts
func (t *Tournament) RemoveEntrant(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateWaiting {
		return ErrNotWaiting
	}
	if _, exists := t.Entrants[name]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownEntrant, name)
	}

	delete(t.Entrants, name)
	for i, n := range t.Order {
		if n == name {
			t.Order = append(t.Order[:i], t.Order[i+1:]...)
			break
		}
	}
	return nil
}

// EntrantCount returns the number of entrants
func (t *Tournament) EntrantCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.Entrants)
}

// GetState returns the tournament state
func (t *Tournament) GetState() TournamentState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.State
}

// Start starts the tournament
func (t *Tournament) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateWaiting {
		return ErrNotWaiting
	}
	if len(t.Entrants) == 0 {
		return fmt.Errorf("tournament has no entrants")
	}

	now := time.Now()
	t.StartTime = &now
	t.State = TournamentStateInProgress
	return nil
}

// Finish closes the tournament
func (t *Tournament) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finish()
}

func (t *Tournament) finish() {
	if t.State == TournamentStateFinished {
		return
	}
	now := time.Now()
	t.EndTime = &now
	t.State = TournamentStateFinished
}

// RecordGame scores a finished game. seats names the entrant in each seat.
func (t *Tournament) RecordGame(gameID string, seats []string, result *scoring.Result) error {
	if result == nil {
		return fmt.Errorf("game %s has no result", gameID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State != TournamentStateInProgress {
		return ErrNotInProgress
	}
	for _, s := range result.Standings {
		if s.PlayerID < 0 || s.PlayerID >= len(seats) {
			return fmt.Errorf("game %s: no entrant for seat %d", gameID, s.PlayerID)
		}
		if _, ok := t.Entrants[seats[s.PlayerID]]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEntrant, seats[s.PlayerID])
		}
	}

	won := make(map[int]bool, len(result.Winners))
	for _, pid := range result.Winners {
		won[pid] = true
	}
	record := GameRecord{GameID: gameID, Seats: append([]string(nil), seats...), Tied: result.Tied}
	for _, s := range result.Standings {
		e := t.Entrants[seats[s.PlayerID]]
		e.Games++
		e.VP += s.VP
		switch {
		case won[s.PlayerID] && result.Tied:
			e.Draws++
			e.Points += PointsDraw
		case won[s.PlayerID]:
			e.Wins++
			e.Points += PointsWin
		default:
			e.Losses++
		}
		if won[s.PlayerID] {
			record.Winners = append(record.Winners, e.Name)
		}
	}
	t.Games = append(t.Games, record)

	if t.NumGames > 0 && len(t.Games) >= t.NumGames {
		t.finish()
	}
	return nil
}

// Standings ranks entrants by points, then wins, then total VP. Entrants
// level on all three keep insertion order.
func (t *Tournament) Standings() []Entrant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.standings()
}

func (t *Tournament) standings() []Entrant {
	out := make([]Entrant, 0, len(t.Order))
	for _, name := range t.Order {
		out = append(out, *t.Entrants[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.VP > b.VP
	})
	return out
}

// Snapshot returns a copy of the tournament.
func (t *Tournament) Snapshot() TournamentSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	games := make([]GameRecord, len(t.Games))
	for i, g := range t.Games {
		games[i] = GameRecord{
			GameID:  g.GameID,
			Seats:   append([]string(nil), g.Seats...),
			Winners: append([]string(nil), g.Winners...),
			Tied:    g.Tied,
		}
	}
	return TournamentSnapshot{
		ID:         t.ID,
		Name:       t.Name,
		State:      t.State,
		Standings:  t.standings(),
		Games:      games,
		NumGames:   t.NumGames,
		CreateTime: t.CreateTime,
		StartTime:  cloneTime(t.StartTime),
		EndTime:    cloneTime(t.EndTime),
	}
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// Manager manages tournaments
type Manager struct {
	tournaments map[string]*Tournament
	mu          sync.RWMutex
	logger      *zap.Logger
}

// NewManager creates a new tournament manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		tournaments: make(map[string]*Tournament),
		logger:      logger,
	}
}

// CreateTournament creates a new tournament
func (m *Manager) CreateTournament(name string, numGames int) *Tournament {
	t := NewTournament(name, numGames)

	m.mu.Lock()
	m.tournaments[t.ID] = t
	m.mu.Unlock()

	m.logger.Info("tournament created",
		zap.String("tournament_id", t.ID),
		zap.String("name", name),
		zap.Int("games", numGames),
	)
	return t
}

// GetTournament retrieves a tournament by ID
func (m *Manager) GetTournament(tournamentID string) (*Tournament, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tournaments[tournamentID]
	return t, ok
}

// RemoveTournament removes a tournament
func (m *Manager) RemoveTournament(tournamentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tournaments, tournamentID)
	m.logger.Info("tournament removed", zap.String("tournament_id", tournamentID))
}

// GetAllTournaments returns all tournaments
func (m *Manager) GetAllTournaments() []*Tournament {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Tournament, 0, len(m.tournaments))
	for _, t := range m.tournaments {
		out = append(out, t)
	}
	return out
}

// GetActiveTournamentCount returns the number of tournaments in progress
func (m *Manager) GetActiveTournamentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, t := range m.tournaments {
		if t.GetState() == TournamentStateInProgress {
			count++
		}
	}
	return count
}
