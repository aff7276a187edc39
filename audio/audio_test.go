package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pokuclick/storage/memory"
)

func TestMixer_DefaultVolume(t *testing.T) {
	m := NewMixer(memory.NewKeyValueStore(), zap.NewNop())
	assert.Equal(t, DefaultVolume, m.Volume())
	assert.Equal(t, 0.5, m.Gain())
}

func TestMixer_MalformedVolumeFallsBack(t *testing.T) {
	kv := memory.NewKeyValueStore()
	require.NoError(t, kv.Set(VolumeKey, "loud"))
	assert.Equal(t, DefaultVolume, NewMixer(kv, zap.NewNop()).Volume())
}

func TestMixer_SetVolumeClampsAndPersists(t *testing.T) {
	kv := memory.NewKeyValueStore()
	m := NewMixer(kv, zap.NewNop())

	assert.Equal(t, MaxVolume, m.SetVolume(140))
	assert.Equal(t, MinVolume, m.SetVolume(-3))
	assert.Equal(t, 20, m.SetVolume(20))

	raw, ok, err := kv.Get(VolumeKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "20", raw)
	assert.Equal(t, 20, NewMixer(kv, zap.NewNop()).Volume())
}

func TestMixer_PersistedVolumeOutOfRangeIsClamped(t *testing.T) {
	kv := memory.NewKeyValueStore()
	require.NoError(t, kv.Set(VolumeKey, "250"))
	assert.Equal(t, MaxVolume, NewMixer(kv, zap.NewNop()).Volume())
}

func TestMixer_CuePitchRange(t *testing.T) {
	m := NewMixer(memory.NewKeyValueStore(), zap.NewNop())

	m.random = func() float64 { return 0 }
	assert.Equal(t, MinPitch, m.Cue().Pitch)

	m.random = func() float64 { return 0.5 }
	assert.Equal(t, 1.5, m.Cue().Pitch)

	m.random = func() float64 { return 0.999999 }
	assert.Less(t, m.Cue().Pitch, MaxPitch)

	m.SetVolume(80)
	assert.Equal(t, 0.8, m.Cue().Gain)
}
