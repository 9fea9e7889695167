package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRecording(dir string, created time.Time) *project.RecordingProject {
	return &project.RecordingProject{ID: uuid.New(), Dir: dir, Width: 640, Height: 480, CreationDate: created}
}

func TestRegisterAndGet(t *testing.T) {
	s := openTestStore(t)
	created := time.Unix(1700000000, 0)
	rec := newRecording("/tmp/rec-1", created)
	require.NoError(t, s.Register(rec))

	e, err := s.Get(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, rec.ID, e.ID)
	assert.Equal(t, "/tmp/rec-1", e.Dir)
	assert.Equal(t, 640, e.Width)
	assert.Equal(t, StatusRecording, e.Status)
	assert.Empty(t, e.ProjectDir)
	assert.WithinDuration(t, created, e.CreatedAt, time.Millisecond)

	byDir, err := s.FindByDir("/tmp/rec-1")
	require.NoError(t, err)
	require.NotNil(t, byDir)
	assert.Equal(t, rec.ID, byDir.ID)

	missing, err := s.Get(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, s.Register(rec))
}

func TestStatusTransitions(t *testing.T) {
	s := openTestStore(t)
	rec := newRecording("/tmp/rec-2", time.Now())
	require.NoError(t, s.Register(rec))

	require.NoError(t, s.SetCounts(rec.ID, 120, 40))
	require.NoError(t, s.UpdateStatus(rec.ID, StatusFailed, "", errors.New("disk full")))
	e, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, e.Status)
	assert.Equal(t, "disk full", e.Error)
	assert.Equal(t, 120, e.Frames)
	assert.Equal(t, 40, e.Events)

	require.NoError(t, s.UpdateStatus(rec.ID, StatusConverted, "/tmp/project-2", nil))
	require.NoError(t, s.UpdateStatus(rec.ID, StatusConverted, "", nil))
	e, err = s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, e.Status)
	assert.Equal(t, "/tmp/project-2", e.ProjectDir)
	assert.Empty(t, e.Error)

	assert.ErrorIs(t, s.UpdateStatus(uuid.New(), StatusDiscarded, "", nil), ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Unix(1700000000, 0)
	for i := range 3 {
		require.NoError(t, s.Register(newRecording(filepath.Join("/tmp", "rec", string(rune('a'+i))), base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/tmp/rec/c", all[0].Dir)
	assert.Equal(t, "/tmp/rec/a", all[2].Dir)

	two, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	require.NoError(t, err)
	rec := newRecording("/tmp/rec-3", time.Now())
	require.NoError(t, s.Register(rec))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	e, err := s.Get(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, e)
}
