package storage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
)

// GameMode represents the game mode
type GameMode int

const (
	ModeHumanVsHuman GameMode = iota
	ModeHumanVsComputer
)

// PlayerSide represents which side the human plays
type PlayerSide int

const (
	SideFirst PlayerSide = iota
	SideSecond
)

// UserPreferences stores user settings
type UserPreferences struct {
	Username     string     `json:"username"`
	GridSize     int        `json:"grid_size"`
	Layers       []int      `json:"layers"`
	Rule         string     `json:"rule"`
	LearningRate float64    `json:"learning_rate"`
	Record       bool       `json:"record_examples"`
	GameMode     GameMode   `json:"game_mode"`
	PlayerSide   PlayerSide `json:"player_side"`
	SoundEnabled bool       `json:"sound_enabled"`
	LastPlayed   time.Time  `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:     "Player",
		GridSize:     3,
		Layers:       []int{48, 24},
		Rule:         "momentum",
		LearningRate: 0.1,
		Record:       true,
		GameMode:     ModeHumanVsComputer,
		PlayerSide:   SideFirst,
		SoundEnabled: true,
		LastPlayed:   time.Now(),
	}
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsBySize     map[string]int `json:"wins_by_size"`
	BoxesWon       int            `json:"boxes_won"`
	BoxesLost      int            `json:"boxes_lost"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsBySize: make(map[string]int),
	}
}

// GameResult represents the result of a completed game
type GameResult struct {
	GridSize  int
	BoxesWon  int
	BoxesLost int
	Duration  time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB

	mu  sync.Mutex
	seq *badger.Sequence // example ids, allocated lazily
}

// NewStorage opens the database in the platform data directory
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) a database in dir
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database in %s", dir)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	s.mu.Lock()
	if s.seq != nil {
		s.seq.Release()
		s.seq = nil
	}
	s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch reports whether the first-launch marker is missing.
func (s *Storage) IsFirstLaunch() (bool, error) {
	var done string
	found, err := s.getJSON(keyFirstLaunch, &done)
	return !found, err
}

// MarkFirstLaunchComplete sets the first-launch marker.
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.putJSON(keyFirstLaunch, "done")
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	_, err := s.getJSON(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.getJSON(keyStats, stats)
	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration
	stats.BoxesWon += result.BoxesWon
	stats.BoxesLost += result.BoxesLost

	switch {
	case result.BoxesWon == result.BoxesLost:
		stats.Draws++
		stats.CurrentStreak = 0
	case result.BoxesWon > result.BoxesLost:
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
		stats.WinsBySize[sizeKey(result.GridSize)]++
	default:
		stats.Losses++
		stats.CurrentStreak = 0
	}

	return s.SaveStats(stats)
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

func (s *Storage) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON decodes key into v. It reports false and leaves v untouched when
// the key does not exist.
func (s *Storage) getJSON(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}
