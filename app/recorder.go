package app

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/soocke/pixel-recorder-go/catalog"
	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/domain/cache"
	"github.com/soocke/pixel-recorder-go/domain/capture"
	"github.com/soocke/pixel-recorder-go/domain/project"
	"github.com/soocke/pixel-recorder-go/domain/session"
)

const recorderStatsLogInterval = 5 * time.Second

// Result summarises one recording session.
type Result struct {
	ID           string        `json:"id"`
	RecordingDir string        `json:"recording_dir"`
	ProjectDir   string        `json:"project_dir,omitempty"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Frames       int           `json:"frames"`
	Events       uint64        `json:"events"`
	Skipped      uint64        `json:"skipped"`
	RawBytes     uint64        `json:"raw_bytes"`
	Active       time.Duration `json:"active"`
	State        string        `json:"state"`
	Error        string        `json:"error,omitempty"`
}

// Summary is the one-line human description of r.
func (r *Result) Summary() string {
	s := humanize.Comma(int64(r.Frames)) + " frames, " + humanize.Bytes(r.RawBytes) + " raw, " +
		r.Active.Round(time.Millisecond).String() + " active"
	if r.ProjectDir != "" {
		return s + ", project " + r.ProjectDir
	}
	return s + ", recording kept at " + r.RecordingDir
}

// Recorder runs one session from capture start to a converted project.
// Pause, Resume and Trigger may be called from any goroutine while Run is
// active.
type Recorder struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    capture.Engine
	session   session.Contract
	converter *cache.Converter
	catalog   *catalog.Store
	region    image.Rectangle
	duration  time.Duration
	loop      *capture.Loop
}

// NewRecorder wires a recorder for region. A positive duration stops the
// capture on its own.
func NewRecorder(c *Container, engine capture.Engine, region image.Rectangle, duration time.Duration) *Recorder {
	r := &Recorder{
		cfg:       c.Config,
		logger:    c.Logger,
		engine:    engine,
		session:   session.New(c.Logger, time.Now),
		converter: c.Converter,
		catalog:   c.Catalog,
		region:    region,
		duration:  duration,
	}
	var interval time.Duration
	if !c.Config.Manual {
		interval = r.interval()
	}
	r.loop = capture.NewLoop(interval, r.tick, c.Logger)
	return r
}

func (r *Recorder) interval() time.Duration { return time.Second / time.Duration(r.cfg.FPS) }

// Session exposes the state machine for observers.
func (r *Recorder) Session() session.Contract { return r.session }

// Pause suspends interval captures and the recording clock.
func (r *Recorder) Pause() {
	r.loop.Pause()
	r.engine.Pause()
	r.session.EventPause()
}

// Resume undoes Pause.
func (r *Recorder) Resume() {
	r.engine.Resume()
	r.loop.Resume()
	r.session.EventResume()
}

// Trigger requests one capture.
func (r *Recorder) Trigger() { r.loop.Trigger() }

func (r *Recorder) tick() {
	switch {
	case r.cfg.Manual:
		r.engine.ManualCapture(nil, r.cfg.ShowCursor)
	case r.cfg.ShowCursor:
		r.engine.CaptureWithCursor(nil)
	default:
		r.engine.Capture(nil)
	}
}

// Run records until ctx is done, the duration elapses or capture fails,
// then converts the recording. On a conversion failure the recording is
// kept on disk and catalogued as failed.
func (r *Recorder) Run(ctx context.Context) (*Result, error) {
	defer r.session.Close()
	r.session.EventPrepare()

	rec, err := project.NewRecordingProject(r.cfg.RecordingsDir, r.region.Dx(), r.region.Dy(), 0)
	if err != nil {
		r.session.EventFail(err)
		return nil, err
	}
	res := &Result{ID: rec.ID.String(), RecordingDir: rec.Dir, Width: rec.Width, Height: rec.Height}
	if err := r.catalog.Register(rec); err != nil {
		r.logger.Warn("catalog register", "error", err)
	}

	failure := make(chan error, 1)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts := capture.StartOptions{
		Automatic:          !r.cfg.Manual,
		Interval:           r.interval(),
		Region:             r.region,
		QueueMemoryBytes:   int64(r.cfg.QueueMemoryMB) << 20,
		PreventBlackFrames: r.cfg.PreventBlackFrames,
		FixedTimestamps:    r.cfg.FixedTimestamps,
		OnError: func(err error) {
			select {
			case failure <- err:
			default:
			}
			cancel()
		},
	}
	if err := r.engine.Start(opts, rec); err != nil {
		r.session.EventFail(err)
		r.setStatus(rec, catalog.StatusDiscarded, "", err)
		if rmErr := rec.Discard(); rmErr != nil {
			r.logger.Warn("discard recording", "dir", rec.Dir, "error", rmErr)
		}
		return r.finish(res, err)
	}
	r.session.EventStart()

	if r.duration > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeout(runCtx, r.duration)
		defer stop()
	}
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return r.loop.Run(gctx) })
	g.Go(func() error {
		r.monitor(gctx)
		return nil
	})
	loopErr := g.Wait()

	r.session.EventStop()
	stopErr := r.engine.Stop()
	r.collect(res, rec)
	var captureErr error
	select {
	case captureErr = <-failure:
	default:
	}
	if err := errors.Join(captureErr, loopErr, stopErr); err != nil {
		r.session.EventFail(err)
		r.setStatus(rec, catalog.StatusFailed, "", err)
		return r.finish(res, err)
	}
	r.setStatus(rec, catalog.StatusRecorded, "", nil)

	r.session.EventConvert()
	cp, err := r.converter.Convert(context.WithoutCancel(ctx), rec)
	if err != nil {
		r.session.EventFail(err)
		r.setStatus(rec, catalog.StatusFailed, "", err)
		return r.finish(res, err)
	}
	res.ProjectDir = cp.Dir
	r.setStatus(rec, catalog.StatusConverted, cp.Dir, nil)
	r.session.EventComplete()
	return r.finish(res, nil)
}

// finish waits for the state machine to settle so the result reports the
// final state and clock.
func (r *Recorder) finish(res *Result, err error) (*Result, error) {
	r.session.Close()
	res.State = r.session.Current().String()
	_, res.Active = r.session.Times()
	if err != nil {
		res.Error = err.Error()
	}
	return res, err
}

func (r *Recorder) collect(res *Result, rec *project.RecordingProject) {
	st := r.engine.Stats()
	res.Frames = r.engine.FrameCount()
	res.Events = st.Events
	res.Skipped = st.Skipped
	res.RawBytes = uint64(res.Frames) * uint64(rec.FrameBytes())
	if err := r.catalog.SetCounts(rec.ID, res.Frames, int(st.Events)); err != nil {
		r.logger.Warn("catalog counts", "error", err)
	}
}

func (r *Recorder) setStatus(rec *project.RecordingProject, status catalog.Status, projectDir string, cause error) {
	if err := r.catalog.UpdateStatus(rec.ID, status, projectDir, cause); err != nil {
		r.logger.Warn("catalog status", "status", status, "error", err)
	}
}

// monitor feeds the session clock and logs capture stats periodically.
func (r *Recorder) monitor(ctx context.Context) {
	clock := time.NewTicker(time.Second)
	defer clock.Stop()
	logTicker := time.NewTicker(recorderStatsLogInterval)
	defer logTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-clock.C:
			r.session.Tick(now)
		case <-logTicker.C:
			st := r.engine.Stats()
			r.logger.Debug("capture.stats",
				"frames", st.Frames,
				"skipped", st.Skipped,
				"queue", st.QueueDepth,
				"queue_cap", st.QueueCapacity,
				"avg_capture", st.AvgCapture,
				"missed_slots", r.loop.Missed(),
			)
		}
	}
}
