package recording

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newRecording(t *testing.T, w, h int) *project.RecordingProject {
	t.Helper()
	rec, err := project.NewRecordingProject(t.TempDir(), w, h, 96)
	require.NoError(t, err)
	return rec
}

func pixels(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}

func TestWriterPositionsAndLoad(t *testing.T) {
	rec := newRecording(t, 4, 2)
	w, err := NewWriter(rec, discardLogger())
	require.NoError(t, err)

	p0, p1 := pixels(32, 1), pixels(32, 9)
	require.NoError(t, w.WriteFrame(&project.Frame{Ticks: 0, Pixels: p0}))
	require.NoError(t, w.WriteFrame(&project.Frame{Ticks: 166667, Pixels: p1}))

	move := project.NewCursorMoveEvent(10, 3, 4)
	move.LeftButton = true
	move.MouseDelta = -120
	shape := project.NewCursorShapeEvent(20, project.CursorColor, 2, 2, 1, 1, pixels(16, 5))
	key := project.NewKeyEvent(30, 65, 2)
	for _, ev := range []project.InputEvent{move, shape, key} {
		require.NoError(t, w.WriteEvent(ev))
	}
	require.NoError(t, w.Finalize())
	require.NoError(t, w.Finalize())

	require.Len(t, rec.Frames, 2)
	assert.Equal(t, uint64(0), rec.Frames[0].StreamPosition)
	assert.Equal(t, uint64(frameHeaderSize+32), rec.Frames[1].StreamPosition)
	assert.Nil(t, rec.Frames[0].Pixels)
	assert.Equal(t, uint64(0), move.StreamPosition)
	assert.Equal(t, uint64(cursorRecordSize), shape.StreamPosition)
	assert.Equal(t, uint64(cursorRecordSize+cursorDataHeaderSize+16), key.StreamPosition)
	assert.Equal(t, uint64(16), shape.DataLength)

	loaded, err := Load(rec.Dir)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Width)
	assert.Equal(t, 2, loaded.Height)
	assert.Equal(t, 96.0, loaded.Dpi)
	assert.Equal(t, project.SourceScreenRecorder, loaded.Source)
	require.Len(t, loaded.Frames, 2)
	assert.Equal(t, uint64(166667), loaded.Frames[1].Ticks)
	assert.Equal(t, rec.Frames[1].StreamPosition, loaded.Frames[1].StreamPosition)
	require.Len(t, loaded.Events, 3)
	gotMove, ok := loaded.Events[0].(*project.CursorMoveEvent)
	require.True(t, ok)
	assert.Equal(t, int32(3), gotMove.X)
	assert.True(t, gotMove.LeftButton)
	assert.Equal(t, int16(-120), gotMove.MouseDelta)
	gotKey, ok := loaded.Events[2].(*project.KeyEvent)
	require.True(t, ok)
	assert.Equal(t, uint8(65), gotKey.Key)
	assert.Equal(t, key.StreamPosition, gotKey.StreamPosition)

	r, err := OpenStream(rec.FramesPath())
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Next()
	require.NoError(t, err)
	h, err := r.Next()
	require.NoError(t, err)
	got, err := r.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, p1, got)
	assert.Equal(t, uint64(166667), h.Ticks)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterFoldsSkippedFrames(t *testing.T) {
	rec := newRecording(t, 1, 1)
	w, err := NewWriter(rec, discardLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteFrame(&project.Frame{Ticks: 0, Delay: 16, Pixels: pixels(4, 1)}))
	skipped := &project.Frame{Ticks: 10, Delay: 16, Pixels: make([]byte, 4), WasSkipped: true}
	require.NoError(t, w.WriteFrame(skipped))
	require.NoError(t, w.WriteFrame(&project.Frame{Ticks: 20, Delay: 16, Pixels: pixels(4, 2)}))
	require.NoError(t, w.Finalize())

	require.Len(t, rec.Frames, 2)
	assert.Equal(t, int64(32), rec.Frames[0].Delay)
	assert.Nil(t, skipped.Pixels)
}

func TestWriterRecyclesPixels(t *testing.T) {
	rec := newRecording(t, 1, 1)
	w, err := NewWriter(rec, discardLogger())
	require.NoError(t, err)

	var recycled [][]byte
	f := &project.Frame{Pixels: pixels(4, 0), Recycle: func(b []byte) { recycled = append(recycled, b) }}
	require.NoError(t, w.WriteFrame(f))
	require.NoError(t, w.Finalize())
	assert.Len(t, recycled, 1)
}

func TestWriterStopsAfterIOError(t *testing.T) {
	rec := newRecording(t, 1024, 512)
	w, err := NewWriter(rec, discardLogger())
	require.NoError(t, err)

	noise := make([]byte, 2<<20)
	rand.New(rand.NewSource(1)).Read(noise)
	require.NoError(t, w.WriteFrame(&project.Frame{Pixels: noise}))
	require.NoError(t, w.frames.file.Close())

	err = w.WriteFrame(&project.Frame{Ticks: 1, Pixels: bytes.Clone(noise)})
	require.Error(t, err)
	require.Error(t, w.Err())

	err = w.WriteFrame(&project.Frame{Ticks: 2, Pixels: noise})
	assert.True(t, errors.Is(err, ErrWriterClosed))
	assert.Error(t, w.WriteEvent(project.NewKeyEvent(3, 1, 0)))
}

// wrappedKey satisfies project.InputEvent through embedding but is not one
// of the encodable variants.
type wrappedKey struct{ *project.KeyEvent }

func TestWriterRejectsUnknownEventWithoutWriting(t *testing.T) {
	rec := newRecording(t, 1, 1)
	w, err := NewWriter(rec, discardLogger())
	require.NoError(t, err)

	err = w.WriteEvent(wrappedKey{project.NewKeyEvent(5, 1, 0)})
	require.ErrorIs(t, err, ErrRecordType)
	assert.Equal(t, uint64(0), w.events.w.Pos())
	assert.NoError(t, w.Err())

	key := project.NewKeyEvent(6, 66, 0)
	require.NoError(t, w.WriteEvent(key))
	require.NoError(t, w.Finalize())
	assert.Equal(t, uint64(0), key.StreamPosition)

	loaded, err := Load(rec.Dir)
	require.NoError(t, err)
	require.Len(t, loaded.Events, 1)
	got, ok := loaded.Events[0].(*project.KeyEvent)
	require.True(t, ok)
	assert.Equal(t, uint8(66), got.Key)
	assert.Equal(t, uint64(6), got.Ticks)
}

func TestLoadRejectsForeignProperties(t *testing.T) {
	rec := newRecording(t, 1, 1)
	require.NoError(t, os.WriteFile(rec.PropertiesPath(), []byte("stgC\x01\x00"), 0o644))
	_, err := Load(rec.Dir)
	assert.ErrorIs(t, err, ErrSignature)
}
