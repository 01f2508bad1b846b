package ui

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SoundType represents different sound effects.
type SoundType int

const (
	SoundLine    SoundType = iota // a line drawn, no box
	SoundBox                      // one or two boxes completed
	SoundEnding                   // the computer entered its endgame
	SoundInvalid                  // click on a drawn line
	SoundGameEnd
)

const (
	sampleRate = 44100
)

// AudioManager handles sound effect playback.
type AudioManager struct {
	context *audio.Context
	sounds  map[SoundType][]byte
	enabled bool
	volume  float64
}

// NewAudioManager creates a new audio manager.
func NewAudioManager() *AudioManager {
	am := &AudioManager{
		context: audio.NewContext(sampleRate),
		sounds:  make(map[SoundType][]byte),
		enabled: true,
		volume:  0.5,
	}
	am.generateSounds()
	return am
}

// generateSounds creates procedural sounds for each event type.
func (am *AudioManager) generateSounds() {
	// Pencil tick
	am.sounds[SoundLine] = am.generateClick(520, 0.06, 0.25)

	// Two rising ticks for a capture
	am.sounds[SoundBox] = am.generateDoubleClick(620, 0.06, 0.35)

	am.sounds[SoundEnding] = am.generateTone(660, 0.2, 0.3)
	am.sounds[SoundInvalid] = am.generateBuzz(150, 0.1, 0.3)
	am.sounds[SoundGameEnd] = am.generateChord(0.5, 0.5)
}

// synth renders duration seconds of 16-bit stereo PCM. wave returns the
// sample in [-1, 1] for time t and progress p in [0, 1).
func synth(duration float64, wave func(t, p float64) float64) []byte {
	samples := int(sampleRate * duration)
	data := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		t := float64(i) / sampleRate
		v := wave(t, t/duration)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		val := int16(v * 32767)
		data[i*4] = byte(val)
		data[i*4+1] = byte(val >> 8)
		data[i*4+2] = byte(val)
		data[i*4+3] = byte(val >> 8)
	}
	return data
}

// generateClick creates a short percussive click.
func (am *AudioManager) generateClick(freq, duration, amplitude float64) []byte {
	return synth(duration, func(t, _ float64) float64 {
		// Exponential decay with a little grit on top
		grit := 0.2 * math.Sin(2*math.Pi*freq*3.1*t)
		return (math.Sin(2*math.Pi*freq*t) + grit) * math.Exp(-t*40) * amplitude
	})
}

// generateTone creates a tone with a short attack and linear decay.
func (am *AudioManager) generateTone(freq, duration, amplitude float64) []byte {
	return synth(duration, func(t, p float64) float64 {
		env := 1 - (p-0.1)/0.9
		if p < 0.1 {
			env = p / 0.1
		}
		return math.Sin(2*math.Pi*freq*t) * env * amplitude
	})
}

// generateDoubleClick creates two quick clicks, the second higher.
func (am *AudioManager) generateDoubleClick(freq, duration, amplitude float64) []byte {
	first := am.generateClick(freq, duration, amplitude)
	gap := make([]byte, int(sampleRate*0.04)*4)
	second := am.generateClick(freq*1.25, duration, amplitude*0.9)

	out := make([]byte, 0, len(first)+len(gap)+len(second))
	out = append(out, first...)
	out = append(out, gap...)
	return append(out, second...)
}

// generateBuzz creates a low error buzz.
func (am *AudioManager) generateBuzz(freq, duration, amplitude float64) []byte {
	return synth(duration, func(t, p float64) float64 {
		w := math.Sin(2*math.Pi*freq*t) + 0.3*math.Sin(4*math.Pi*freq*t)
		return w * (1 - p) * amplitude * 0.5
	})
}

// generateChord creates a major triad that fades in and out.
func (am *AudioManager) generateChord(duration, amplitude float64) []byte {
	freqs := []float64{261.63, 329.63, 392.00}
	return synth(duration, func(t, p float64) float64 {
		env := 1.0
		switch {
		case p < 0.1:
			env = p / 0.1
		case p > 0.7:
			env = (1 - p) / 0.3
		}
		v := 0.0
		for _, f := range freqs {
			v += math.Sin(2 * math.Pi * f * t)
		}
		return v / float64(len(freqs)) * env * amplitude
	})
}

// Play plays a sound effect.
func (am *AudioManager) Play(sound SoundType) {
	if !am.enabled {
		return
	}

	data, ok := am.sounds[sound]
	if !ok {
		return
	}

	// Create a new player for each play (allows overlapping sounds)
	player := am.context.NewPlayerFromBytes(data)
	player.SetVolume(am.volume)
	player.Play()
}

// SetEnabled enables or disables audio.
func (am *AudioManager) SetEnabled(enabled bool) {
	am.enabled = enabled
}

// SetVolume sets the audio volume (0.0 to 1.0).
func (am *AudioManager) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	am.volume = volume
}

// IsEnabled returns whether audio is enabled.
func (am *AudioManager) IsEnabled() bool {
	return am.enabled
}
