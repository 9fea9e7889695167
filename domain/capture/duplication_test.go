package capture

import (
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-recorder-go/domain/project"
)

type stateRecorder struct {
	mu  sync.Mutex
	seq []DeviceState
}

func (r *stateRecorder) listener(_, to DeviceState) {
	r.mu.Lock()
	r.seq = append(r.seq, to)
	r.mu.Unlock()
}

func startDuplication(t *testing.T, f *fakeFactory, opts StartOptions) (*DuplicationCapture, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	opts.Sink = sink
	opts.Region = testRegion
	d := NewDuplicationCapture(f.open, 0, discardLogger())
	require.NoError(t, d.Start(opts, newRecording(t, testRegion)))
	return d, sink
}

func TestDuplicationCapture_DeviceLossRecovers(t *testing.T) {
	w, h := testRegion.Dx(), testRegion.Dy()
	dirty := solid(w, h, 9)
	dirty.DirtyRects = []image.Rectangle{image.Rect(0, 0, 1, 1)}
	dev1 := &fakeDevice{script: []acquisition{{frame: solid(w, h, 1)}, {err: ErrDeviceLost}}}
	dev2 := &fakeDevice{script: []acquisition{{frame: dirty}}}
	f := &fakeFactory{devices: []*fakeDevice{dev1, dev2}}
	d, sink := startDuplication(t, f, StartOptions{})
	rec := &stateRecorder{}
	d.AddStateListener(rec.listener)

	assert.Equal(t, 1, d.Capture(nil))
	assert.Equal(t, 1, d.Capture(nil))
	assert.Equal(t, DeviceReady, d.State())
	assert.True(t, dev1.closed)
	assert.Equal(t, []DeviceState{DeviceLost, DeviceReinitializing, DeviceReady}, rec.seq)

	assert.Equal(t, 2, d.Capture(nil))
	assert.Equal(t, 2, d.Capture(nil))
	require.NoError(t, d.Stop())
	assert.True(t, dev2.closed)

	require.Equal(t, 2, sink.frameCount())
	assert.Equal(t, []byte{1, 1, 1, 1}, sink.pixels[0][:4])
	assert.Equal(t, []byte{9, 9, 9, 9, 1, 1, 1, 1}, sink.pixels[1][:8])

	st := d.Stats()
	assert.Equal(t, uint64(1), st.DeviceLost)
	assert.Equal(t, uint64(1), st.NoFrame)
	assert.Equal(t, 2, f.calls)
}

func TestDuplicationCapture_MoveRectsBeforeDirtyRects(t *testing.T) {
	w, h := testRegion.Dx(), testRegion.Dy()
	first := solid(w, h, 0)
	for i := range first.Pixels {
		first.Pixels[i] = byte(i/4 + 1)
	}
	moved := solid(w, h, 0)
	moved.DirtyRects = []image.Rectangle{image.Rect(0, 1, 1, 2)}
	for i := range moved.Pixels {
		moved.Pixels[i] = 0xEE
	}
	moved.MoveRects = []MoveRect{{Source: image.Pt(0, 0), Dest: image.Rect(1, 0, 3, 1)}}
	f := &fakeFactory{devices: []*fakeDevice{{script: []acquisition{{frame: first}, {frame: moved}}}}}
	d, sink := startDuplication(t, f, StartOptions{})

	d.Capture(nil)
	d.Capture(nil)
	require.NoError(t, d.Stop())

	require.Equal(t, 2, sink.frameCount())
	px := func(buf []byte, x, y int) byte { return buf[(y*w+x)*4] }
	out := sink.pixels[1]
	assert.Equal(t, byte(1), px(out, 0, 0))
	assert.Equal(t, byte(1), px(out, 1, 0))
	assert.Equal(t, byte(2), px(out, 2, 0))
	assert.Equal(t, byte(4), px(out, 3, 0))
	assert.Equal(t, byte(0xEE), px(out, 0, 1))
	assert.Equal(t, byte(6), px(out, 1, 1))
}

func TestDuplicationCapture_UnsupportedAtStart(t *testing.T) {
	f := &fakeFactory{errs: []error{ErrUnsupported}}
	d := NewDuplicationCapture(f.open, 0, discardLogger())
	err := d.Start(StartOptions{Region: testRegion, Sink: &fakeSink{}}, newRecording(t, testRegion))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, KindConfiguration, Classify(err))
	assert.ErrorIs(t, d.Stop(), ErrNotStarted)
}

func TestDuplicationCapture_FailedStartReleasesDevice(t *testing.T) {
	w, h := testRegion.Dx(), testRegion.Dy()
	dev1 := &fakeDevice{}
	dev2 := &fakeDevice{script: []acquisition{{frame: solid(w, h, 3)}}}
	f := &fakeFactory{devices: []*fakeDevice{dev1, dev2}}
	d := NewDuplicationCapture(f.open, 0, discardLogger())

	require.Error(t, d.Start(StartOptions{Region: testRegion, Sink: &fakeSink{}}, nil))
	assert.True(t, dev1.closed)
	assert.Nil(t, d.device)
	assert.Nil(t, d.staging)

	sink := &fakeSink{}
	require.NoError(t, d.Start(StartOptions{Region: testRegion, Sink: sink}, newRecording(t, testRegion)))
	assert.ErrorIs(t, d.Start(StartOptions{Region: testRegion, Sink: &fakeSink{}}, newRecording(t, testRegion)), ErrAlreadyStarted)
	assert.Equal(t, 2, f.calls)
	assert.False(t, dev2.closed)

	assert.Equal(t, 1, d.Capture(nil))
	require.NoError(t, d.Stop())
	assert.True(t, dev2.closed)
	assert.Nil(t, d.device)
	assert.ErrorIs(t, d.Start(StartOptions{Region: testRegion, Sink: &fakeSink{}}, newRecording(t, testRegion)), ErrStopped)
	assert.Equal(t, 2, f.calls)
	require.Equal(t, 1, sink.frameCount())
}

func TestDuplicationCapture_UnsupportedOnReinitFails(t *testing.T) {
	var reported []error
	f := &fakeFactory{
		devices: []*fakeDevice{{script: []acquisition{{err: ErrDeviceLost}}}},
		errs:    []error{nil, ErrUnsupported},
	}
	d, _ := startDuplication(t, f, StartOptions{OnError: func(err error) { reported = append(reported, err) }})

	assert.Equal(t, 0, d.Capture(nil))
	assert.Equal(t, DeviceLost, d.State())
	assert.False(t, d.Accepting())
	require.NoError(t, d.Stop())

	require.Len(t, reported, 1)
	assert.Equal(t, KindConfiguration, Classify(reported[0]))
}

func TestDuplicationCapture_TransientReinitRetries(t *testing.T) {
	var reported []error
	f := &fakeFactory{
		devices: []*fakeDevice{{script: []acquisition{{err: ErrDeviceLost}}}},
		errs:    []error{nil, errors.New("adapter busy")},
	}
	d, _ := startDuplication(t, f, StartOptions{OnError: func(err error) { reported = append(reported, err) }})

	d.Capture(nil)
	assert.Equal(t, DeviceLost, d.State())
	assert.True(t, d.Accepting())

	assert.Equal(t, 0, d.Capture(nil))
	assert.Equal(t, DeviceReady, d.State())
	assert.Equal(t, 3, f.calls)
	require.NoError(t, d.Stop())
	assert.Empty(t, reported)
}

func TestDuplicationCapture_SizeMismatchIsDeviceLoss(t *testing.T) {
	f := &fakeFactory{devices: []*fakeDevice{{script: []acquisition{{frame: solid(8, 8, 1)}}}}}
	d, sink := startDuplication(t, f, StartOptions{})

	assert.Equal(t, 0, d.Capture(nil))
	require.NoError(t, d.Stop())
	assert.Equal(t, uint64(1), d.Stats().DeviceLost)
	assert.Equal(t, 0, sink.frameCount())
}

func TestDuplicationCapture_PointerEvents(t *testing.T) {
	w, h := testRegion.Dx(), testRegion.Dy()
	fr := solid(w, h, 1)
	fr.Pointer = &CursorSample{
		Visible:  true,
		Position: image.Pt(102, 51),
		Shape:    &CursorShape{Type: project.CursorMonochrome, Width: 1, Height: 1, Pixels: []byte{0xFF, 0x00}},
	}
	f := &fakeFactory{devices: []*fakeDevice{{script: []acquisition{{frame: fr}}}}}
	d, sink := startDuplication(t, f, StartOptions{})

	d.CaptureWithCursor(nil)
	require.NoError(t, d.Stop())

	require.Len(t, sink.events, 2)
	shape := sink.events[0].(*project.CursorShapeEvent)
	assert.Equal(t, project.CursorMonochrome, shape.CursorType)
	move := sink.events[1].(*project.CursorMoveEvent)
	assert.Equal(t, int32(2), move.X)
	assert.Equal(t, int32(1), move.Y)
}
