package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/hailam/shallowblue/internal/weights"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Username != "Player" {
			t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
		}
		if prefs.GridSize != 3 {
			t.Errorf("Expected 3x3 grid, got %d", prefs.GridSize)
		}
		if prefs.Rule != "momentum" {
			t.Errorf("Expected momentum rule, got %q", prefs.Rule)
		}
		if !prefs.SoundEnabled {
			t.Errorf("Expected sound enabled by default")
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.GetWinRate() != 0 {
			t.Errorf("Expected 0 win rate")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{
			GamesPlayed: 10,
			Wins:        5,
			Losses:      3,
			Draws:       2,
		}
		rate := stats.GetWinRate()
		if rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}
	})
}

func TestPreferencesPersist(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("fresh database should report first launch: %v, %v", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("first launch flag not cleared")
	}

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	prefs.GridSize = 5
	prefs.Layers = []int{80, 40}
	prefs.Rule = "nag"
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if got.GridSize != 5 || got.Rule != "nag" || len(got.Layers) != 2 || got.Layers[0] != 80 {
		t.Errorf("preferences not persisted: %+v", got)
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	results := []GameResult{
		{GridSize: 3, BoxesWon: 6, BoxesLost: 3, Duration: time.Minute},
		{GridSize: 3, BoxesWon: 5, BoxesLost: 4, Duration: time.Minute},
		{GridSize: 4, BoxesWon: 8, BoxesLost: 8, Duration: time.Minute},
		{GridSize: 3, BoxesWon: 2, BoxesLost: 7, Duration: time.Minute},
	}
	for _, r := range results {
		if err := s.RecordGame(r); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 4 || stats.Wins != 2 || stats.Draws != 1 || stats.Losses != 1 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.WinsBySize["3x3"] != 2 {
		t.Errorf("expected 2 wins on 3x3, got %d", stats.WinsBySize["3x3"])
	}
	if stats.LongestWinStrk != 2 || stats.CurrentStreak != 0 {
		t.Errorf("streaks: longest %d current %d", stats.LongestWinStrk, stats.CurrentStreak)
	}
	if stats.BoxesWon != 21 || stats.BoxesLost != 22 {
		t.Errorf("boxes: won %d lost %d", stats.BoxesWon, stats.BoxesLost)
	}
	if stats.TotalPlayTime != 4*time.Minute {
		t.Errorf("play time %v", stats.TotalPlayTime)
	}
}

func TestWeightStoreRoundTrip(t *testing.T) {
	s := openTest(t)
	store := s.WeightStore()

	net, err := nnet.New(24, []int{12, 24}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := weights.Save(store, "3", net); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other, _ := nnet.New(24, []int{12, 24}, 9)
	if err := weights.Load(store, "3", other); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := net.Weights()
	for i, w := range other.Weights() {
		if !mat.Equal(want[i], w) {
			t.Errorf("layer %d did not round trip exactly", i)
		}
	}

	if _, err := store.Load("4", 2); !errors.Is(err, weights.ErrNotStored) {
		t.Errorf("missing tag: expected ErrNotStored, got %v", err)
	}
	_, err = store.Load("3", 3)
	if !errors.Is(err, weights.ErrStorageUnavailable) {
		t.Errorf("missing layer: expected ErrStorageUnavailable, got %v", err)
	}
	if errors.Is(err, weights.ErrNotStored) {
		t.Errorf("missing layer 2 reported as nothing stored: %v", err)
	}
}

func TestExamples(t *testing.T) {
	s := openTest(t)

	for i := 0; i < 5; i++ {
		ex := nnet.Example{
			Input:  []float64{float64(i), 0, 1},
			Target: []float64{0, 1, 0},
		}
		if err := s.Record("3", ex, []float64{0.2, 0.5, 0.3}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Record("4", nnet.Example{Input: []float64{1}, Target: []float64{1}}, nil); err != nil {
		t.Fatal(err)
	}

	records, err := s.Examples("3")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 examples, got %d", len(records))
	}
	for i, r := range records {
		if r.Example.Input[0] != float64(i) {
			t.Errorf("record %d out of order: input %v", i, r.Example.Input)
		}
		if r.Tag != "3" || len(r.Output) != 3 {
			t.Errorf("record %d: %+v", i, r)
		}
	}

	if n, _ := s.CountExamples("4"); n != 1 {
		t.Errorf("expected 1 example for tag 4, got %d", n)
	}
	if err := s.ClearExamples("3"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountExamples("3"); n != 0 {
		t.Errorf("expected tag 3 cleared, %d left", n)
	}
	if n, _ := s.CountExamples("4"); n != 1 {
		t.Errorf("clearing tag 3 touched tag 4")
	}
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)
	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("fresh database: first %v err %v", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("still first launch after marking it complete")
	}
}

func TestDataDirOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	dir, err := GetDataDir()
	if err != nil || dir != home {
		t.Fatalf("GetDataDir = %q, %v; want %q", dir, err, home)
	}
	weightsDir, err := GetWeightsDir()
	if err != nil {
		t.Fatal(err)
	}
	if weightsDir != filepath.Join(home, "weights") {
		t.Errorf("weights dir %q", weightsDir)
	}
	if fi, err := os.Stat(weightsDir); err != nil || !fi.IsDir() {
		t.Errorf("weights dir not created: %v", err)
	}
}
