// Package audio derives the click sound cue and keeps the persisted volume.
package audio

import (
	"math/rand/v2"
	"strconv"

	"go.uber.org/zap"

	"pokuclick/counter"
	"pokuclick/interfaces"
)

// VolumeKey is the persisted key for the volume setting.
const VolumeKey = "volume"

// Volume bounds and default, in percent.
const (
	MinVolume     = 0
	MaxVolume     = 100
	DefaultVolume = 50
)

// Pitch range for the click sound.
const (
	MinPitch = 1.25
	MaxPitch = 1.75
)

// Mixer produces click cues at the persisted volume.
type Mixer struct {
	volume int
	kv     interfaces.KeyValueStore
	random func() float64
	logger *zap.Logger
}

// NewMixer creates a Mixer and restores the persisted volume.
func NewMixer(kv interfaces.KeyValueStore, logger *zap.Logger) *Mixer {
	m := &Mixer{
		kv:     kv,
		random: rand.Float64,
		logger: logger,
	}
	m.volume = clamp(int(counter.ReadInt(kv, VolumeKey, DefaultVolume, logger)))
	return m
}

// Cue returns the sound cue for one click.
func (m *Mixer) Cue() interfaces.Cue {
	return interfaces.Cue{
		Pitch: MinPitch + m.random()*(MaxPitch-MinPitch),
		Gain:  m.Gain(),
	}
}

// Gain returns the volume as a 0..1 multiplier.
func (m *Mixer) Gain() float64 {
	return float64(m.volume) / MaxVolume
}

// Volume returns the volume in percent.
func (m *Mixer) Volume() int {
	return m.volume
}

// SetVolume clamps v to 0..100, persists it and returns the stored value.
func (m *Mixer) SetVolume(v int) int {
	m.volume = clamp(v)
	if err := m.kv.Set(VolumeKey, strconv.Itoa(m.volume)); err != nil {
		m.logger.Warn("Failed to persist volume",
			zap.Int("volume", m.volume),
			zap.Error(err))
	}
	return m.volume
}

func clamp(v int) int {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}
