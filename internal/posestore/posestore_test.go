package posestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/lidarodom/internal/odom"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trajectories.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateRunAndListRuns(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.CreateRun("kitti-00", `{"max_range":100}`)
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := s.CreateRun("kitti-01", `{}`)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.False(t, r.StartedAt.IsZero())
	}

	latest, err := s.LatestRun()
	require.NoError(t, err)
	assert.Contains(t, []string{"kitti-00", "kitti-01"}, latest.Dataset)
}

func TestPoseRoundtripPreservesOrderAndValues(t *testing.T) {
	s := openTestStore(t)
	runID, err := s.CreateRun("synthetic", `{}`)
	require.NoError(t, err)

	want := []odom.Transform{
		odom.Identity(),
		odom.Exp(odom.Twist{1, 2, 3, 0.1, -0.05, 0.2}),
		odom.Exp(odom.Twist{-0.5, 0, 4, 0, 0.3, 0}),
	}
	// Insert out of order; reads must come back in frame order.
	for _, idx := range []int{2, 0, 1} {
		require.NoError(t, s.InsertPose(runID, idx, time.Now(), want[idx]))
	}

	got, err := s.Poses(runID)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got[i][j], 1e-12, "pose %d entry %d", i, j)
		}
	}
}

func TestDuplicateFrameIsRejected(t *testing.T) {
	s := openTestStore(t)
	runID, err := s.CreateRun("synthetic", `{}`)
	require.NoError(t, err)

	require.NoError(t, s.InsertPose(runID, 0, time.Now(), odom.Identity()))
	assert.Error(t, s.InsertPose(runID, 0, time.Now(), odom.Identity()))
}

func TestPosesUnknownRunIsEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Poses("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLatestRunEmptyStore(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LatestRun()
	assert.Error(t, err)
}
