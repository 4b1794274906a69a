package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/lidarodom/internal/odom"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTuningConfigPartialOverride(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"max_range": 70, "deskew": true}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	applied := cfg.Apply(odom.DefaultConfig())
	assert.Equal(t, 70.0, applied.MaxRange)
	assert.True(t, applied.Deskew)

	// Untouched fields keep the engine defaults.
	def := odom.DefaultConfig()
	assert.Equal(t, def.MinRange, applied.MinRange)
	assert.Equal(t, def.InitialThreshold, applied.InitialThreshold)
	assert.Equal(t, def.MaxPointsPerVoxel, applied.MaxPointsPerVoxel)
}

func TestLoadTuningConfigFullOverride(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{
		"max_range": 50,
		"min_range": 2,
		"deskew": false,
		"voxel_size": 0.75,
		"max_points_per_voxel": 10,
		"initial_threshold": 1.5,
		"min_motion_threshold": 0.05
	}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	applied := cfg.Apply(odom.DefaultConfig())
	assert.Equal(t, odom.Config{
		MaxRange:           50,
		MinRange:           2,
		Deskew:             false,
		VoxelSize:          0.75,
		MaxPointsPerVoxel:  10,
		InitialThreshold:   1.5,
		MinMotionThreshold: 0.05,
	}, applied)
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "tuning.yaml", `max_range: 70`)
	_, err := LoadTuningConfig(path)
	assert.Error(t, err)
}

func TestLoadTuningConfigRejectsBadJSON(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"max_range": `)
	_, err := LoadTuningConfig(path)
	assert.Error(t, err)
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"negative max_range", `{"max_range": -1}`},
		{"min above max", `{"max_range": 10, "min_range": 20}`},
		{"zero voxel", `{"voxel_size": 0}`},
		{"zero capacity", `{"max_points_per_voxel": 0}`},
		{"zero threshold", `{"initial_threshold": 0}`},
		{"negative motion floor", `{"min_motion_threshold": -0.1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "tuning.json", tc.content)
			_, err := LoadTuningConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestApplyEmptyConfigIsIdentity(t *testing.T) {
	def := odom.DefaultConfig()
	assert.Equal(t, def, EmptyTuningConfig().Apply(def))
}
