package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DISPLAY_ROLE", "Imaging")
	t.Setenv("STATE_POLL_INTERVAL_MS", "250")
	t.Setenv("STUDY_PROFILE", "")

	cfg, err := LoadConfiguration()
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.ServerPort)
	require.Equal(t, RoleImaging, cfg.DisplayRole)
	require.True(t, cfg.ServesImaging())
	require.False(t, cfg.ServesConsole())
	require.Equal(t, 250, cfg.StatePollIntervalMs)
	require.NotNil(t, cfg.Study)
	require.Len(t, cfg.Study.Checklist, len(DefaultChecklist))
}

func TestLoadStudyProfileDefaults(t *testing.T) {
	p, err := LoadStudyProfile("")
	require.NoError(t, err)
	require.Equal(t, "study", p.Mode)
	require.Equal(t, 2.5, p.Delivery.MinSeconds)
	require.Equal(t, 10.0, p.Delivery.MaxSeconds)
	require.Equal(t, 15, p.Delivery.MinSteps)
	require.Equal(t, 20.0, p.Delivery.StepsPerSecond)
	require.Equal(t, 2.0, p.Tolerances.AngleDeg)
}

func TestLoadStudyProfileFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	content := []byte(`mode: practice
checklist:
  - Patient ID verified
  - Couch locked
delivery:
  max_seconds: 4
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	p, err := LoadStudyProfile(path)
	require.NoError(t, err)
	require.Equal(t, "practice", p.Mode)
	require.Equal(t, []string{"Patient ID verified", "Couch locked"}, p.Checklist)
	require.Equal(t, 4.0, p.Delivery.MaxSeconds)
	require.Equal(t, 2.5, p.Delivery.MinSeconds)
}

func TestLoadStudyProfileRejectsBadTiming(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delivery:\n  min_seconds: 12\n  max_seconds: 3\n"), 0644))

	_, err := LoadStudyProfile(path)
	require.Error(t, err)
}

func TestLoadStudyProfileMissingFile(t *testing.T) {
	_, err := LoadStudyProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
