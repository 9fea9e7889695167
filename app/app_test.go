package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-recorder-go/catalog"
	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/domain/capture"
	"github.com/soocke/pixel-recorder-go/domain/project"
	"github.com/soocke/pixel-recorder-go/domain/recording"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// testConfig returns a config whose storage lives under a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.RecordingsDir = filepath.Join(dir, "recordings")
	cfg.ProjectsDir = filepath.Join(dir, "projects")
	cfg.CatalogPath = filepath.Join(dir, "catalog.db")
	cfg.FPS = 50
	cfg.ShowCursor = false
	return cfg
}

func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	cfgPath, debugMode, jsonOutput = "", false, false
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

type fakeGrabber struct {
	mu    sync.Mutex
	err   error
	grabs int
}

func (g *fakeGrabber) Grab(region image.Rectangle, dst []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.grabs++
	for i := range dst {
		dst[i] = byte(g.grabs + i)
	}
	return nil
}

func testContainer(t *testing.T, cfg *config.Config, g capture.Grabber) *Container {
	t.Helper()
	c, err := BuildContainer(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	c.NewGrabber = func() (capture.Grabber, error) { return g, nil }
	c.NewCursorProbe = func() (capture.CursorProbe, error) { return nil, capture.ErrUnsupported }
	c.ScreenBounds = func() (image.Rectangle, error) { return image.Rect(0, 0, 8, 4), nil }
	return c
}

func TestParseRegion(t *testing.T) {
	r, err := parseRegion("10, 20,30,40")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 40, 60), r)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,0,10", "0,0,10,-1"} {
		_, err := parseRegion(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("320X200")
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 200, h)

	for _, bad := range []string{"320", "x200", "0x10", "axb"} {
		_, _, err := parseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestRecordStrategyHelpNamesPlatforms(t *testing.T) {
	usage := recordCmd.Flags().Lookup("strategy").Usage
	assert.Contains(t, usage, "X11")
	assert.Contains(t, usage, "Windows")
	assert.Contains(t, recordCmd.Long, "only available\non Linux")
}

type fakeController struct {
	triggers, pauses, resumes int
}

func (f *fakeController) Trigger() { f.triggers++ }
func (f *fakeController) Pause()   { f.pauses++ }
func (f *fakeController) Resume()  { f.resumes++ }

func TestReadControls(t *testing.T) {
	var c fakeController
	stopped := false
	readControls(strings.NewReader("\n\np\nP\nunknown\nq\n\n"), &c, func() { stopped = true })
	assert.Equal(t, 2, c.triggers)
	assert.Equal(t, 1, c.pauses)
	assert.Equal(t, 1, c.resumes)
	assert.True(t, stopped)
}

func TestContainerRegion(t *testing.T) {
	cfg := testConfig(t)
	c := testContainer(t, cfg, &fakeGrabber{})

	r, err := c.Region()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), r)

	cfg.RegionX, cfg.RegionY, cfg.RegionW, cfg.RegionH = 5, 6, 7, 8
	r, err = c.Region()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(5, 6, 12, 14), r)
}

func TestContainerNewEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.ShowCursor = true
	c := testContainer(t, cfg, &fakeGrabber{})

	e, err := c.NewEngine()
	require.NoError(t, err)
	assert.IsType(t, &capture.BlitCapture{}, e)

	cfg.Strategy = config.StrategyDuplication
	e, err = c.NewEngine()
	require.NoError(t, err)
	assert.IsType(t, &capture.DuplicationCapture{}, e)

	cfg.Strategy = config.StrategyBlit
	c.NewGrabber = func() (capture.Grabber, error) { return nil, capture.ErrUnsupported }
	_, err = c.NewEngine()
	assert.ErrorIs(t, err, capture.ErrUnsupported)
}

func TestRecorderRecordsAndConverts(t *testing.T) {
	cfg := testConfig(t)
	g := &fakeGrabber{}
	c := testContainer(t, cfg, g)
	engine, err := c.NewEngine()
	require.NoError(t, err)

	rec := NewRecorder(c, engine, image.Rect(0, 0, 8, 4), 120*time.Millisecond)
	res, err := rec.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "done", res.State)
	assert.Positive(t, res.Frames)
	assert.Equal(t, uint64(res.Frames)*8*4*4, res.RawBytes)
	assert.DirExists(t, res.ProjectDir)
	assert.NoDirExists(t, res.RecordingDir)
	assert.Contains(t, res.Summary(), "project "+res.ProjectDir)

	e, err := c.Catalog.Get(uuid.MustParse(res.ID))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, catalog.StatusConverted, e.Status)
	assert.Equal(t, res.ProjectDir, e.ProjectDir)
	assert.Equal(t, res.Frames, e.Frames)
}

func TestRecorderStopsOnCaptureFailure(t *testing.T) {
	cfg := testConfig(t)
	g := &fakeGrabber{err: capture.ErrUnsupported}
	c := testContainer(t, cfg, g)
	engine, err := c.NewEngine()
	require.NoError(t, err)

	rec := NewRecorder(c, engine, image.Rect(0, 0, 8, 4), 10*time.Second)
	started := time.Now()
	res, err := rec.Run(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)

	var ce *capture.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, capture.KindConfiguration, ce.Kind)
	assert.ErrorIs(t, err, capture.ErrUnsupported)
	assert.Equal(t, "failed", res.State)
	assert.DirExists(t, res.RecordingDir)

	e, err := c.Catalog.Get(uuid.MustParse(res.ID))
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusFailed, e.Status)
	assert.NotEmpty(t, e.Error)
}

func TestRecorderManualTrigger(t *testing.T) {
	cfg := testConfig(t)
	cfg.Manual = true
	c := testContainer(t, cfg, &fakeGrabber{})
	engine, err := c.NewEngine()
	require.NoError(t, err)

	rec := NewRecorder(c, engine, image.Rect(0, 0, 8, 4), 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var res *Result
	go func() {
		defer close(done)
		res, err = rec.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		rec.Trigger()
		return engine.FrameCount() >= 3
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Frames, 3)
	assert.Equal(t, "done", res.State)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelrec.yaml")

	out, err := executeCommand(rootCmd, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	_, err = executeCommand(rootCmd, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = executeCommand(rootCmd, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "strategy: blit")
	assert.Contains(t, out, "fps: 15")
}

func TestListEmptyCatalog(t *testing.T) {
	path := writeConfig(t, testConfig(t))

	out, err := executeCommand(rootCmd, "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No recordings.")
}

// writeRecording leaves a finished recording on disk as a crashed session
// would.
func writeRecording(t *testing.T, root string) *project.RecordingProject {
	t.Helper()
	rec, err := project.NewRecordingProject(root, 4, 2, 96)
	require.NoError(t, err)
	w, err := recording.NewWriter(rec, discardLogger())
	require.NoError(t, err)
	for i, ticks := range []uint64{0, 100000, 200000} {
		px := bytes.Repeat([]byte{byte(i * 40), 0x20, 0x30, 0xFF}, 4*2)
		require.NoError(t, w.WriteFrame(&project.Frame{Ticks: ticks, Pixels: px}))
	}
	require.NoError(t, w.Finalize())
	return rec
}

func TestConvertListAndRenderCommands(t *testing.T) {
	cfg := testConfig(t)
	path := writeConfig(t, cfg)
	rec := writeRecording(t, cfg.RecordingsDir)

	out, err := executeCommand(rootCmd, "convert", rec.Dir, "--config", path, "--json")
	require.NoError(t, err)
	var converted struct {
		ID         string `json:"id"`
		ProjectDir string `json:"project_dir"`
		Frames     int    `json:"frames"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &converted))
	assert.Equal(t, 3, converted.Frames)
	assert.DirExists(t, converted.ProjectDir)
	assert.NoDirExists(t, rec.Dir)

	out, err = executeCommand(rootCmd, "list", "--config", path, "--json")
	require.NoError(t, err)
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, converted.ID, entries[0].ID.String())
	assert.Equal(t, catalog.StatusConverted, entries[0].Status)
	assert.Equal(t, 3, entries[0].Frames)

	png := filepath.Join(t.TempDir(), "frame.png")
	out, err = executeCommand(rootCmd, "render", converted.ProjectDir, "--config", path, "--at", "150000", "--out", png, "--thumb", "2x2")
	require.NoError(t, err)
	assert.Contains(t, out, "(2x1,")
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestConvertUnknownID(t *testing.T) {
	path := writeConfig(t, testConfig(t))
	_, err := executeCommand(rootCmd, "convert", uuid.NewString(), "--config", path)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
