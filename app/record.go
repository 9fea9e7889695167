package app

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-recorder-go/domain/session"
)

var (
	recordFPS      int
	recordManual   bool
	recordDuration time.Duration
	recordStrategy string
	recordRegion   string
	recordNoCursor bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a screen region and convert it into a project",
	Long: `Record captures the configured region until --duration elapses or the
process is interrupted, then converts the recording into a cached project.

While recording, stdin accepts one command per line:
  (empty)  capture a frame (manual mode)
  p        pause or resume
  q        stop

The duplication strategy follows X11 DAMAGE events and is only available
on Linux. Elsewhere it fails at start; Windows records with blit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setup(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := applyRecordFlags(cmd, c); err != nil {
			return err
		}

		region, err := c.Region()
		if err != nil {
			return err
		}
		engine, err := c.NewEngine()
		if err != nil {
			return err
		}
		rec := NewRecorder(c, engine, region, recordDuration)
		out := cmd.OutOrStdout()
		if !jsonOutput {
			rec.Session().AddListener(func(_, next session.State) {
				fmt.Fprintln(cmd.ErrOrStderr(), next.String())
			})
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go readControls(cmd.InOrStdin(), rec, cancel)

		res, err := rec.Run(ctx)
		if res != nil {
			if jsonOutput {
				if jerr := outputJSON(out, res); jerr != nil {
					return jerr
				}
			} else {
				fmt.Fprintf(out, "Recorded %s\n", res.Summary())
			}
		}
		return err
	},
}

func init() {
	recordCmd.Flags().IntVar(&recordFPS, "fps", 0, "frames per second (overrides config)")
	recordCmd.Flags().BoolVar(&recordManual, "manual", false, "capture only when triggered from stdin")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "stop after this long (0 records until interrupted)")
	recordCmd.Flags().StringVar(&recordStrategy, "strategy", "", "capture strategy: blit, or duplication (X11 DAMAGE on Linux only; Windows records with blit)")
	recordCmd.Flags().StringVar(&recordRegion, "region", "", "capture region as x,y,w,h")
	recordCmd.Flags().BoolVar(&recordNoCursor, "no-cursor", false, "do not record the pointer")
	rootCmd.AddCommand(recordCmd)
}

// applyRecordFlags overrides the loaded config with explicitly set flags.
func applyRecordFlags(cmd *cobra.Command, c *Container) error {
	cfg := c.Config
	flags := cmd.Flags()
	if flags.Changed("fps") {
		cfg.FPS = recordFPS
	}
	if flags.Changed("manual") {
		cfg.Manual = recordManual
	}
	if flags.Changed("strategy") {
		cfg.Strategy = recordStrategy
	}
	if flags.Changed("no-cursor") {
		cfg.ShowCursor = !recordNoCursor
	}
	if flags.Changed("region") {
		r, err := parseRegion(recordRegion)
		if err != nil {
			return err
		}
		cfg.RegionX, cfg.RegionY, cfg.RegionW, cfg.RegionH = r.Min.X, r.Min.Y, r.Dx(), r.Dy()
	}
	return cfg.Validate()
}

// parseRegion reads "x,y,w,h".
func parseRegion(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("region %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("region %q: width and height must be positive", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// controller is the part of Recorder driven from stdin.
type controller interface {
	Trigger()
	Pause()
	Resume()
}

// readControls applies stdin commands until EOF or stop is requested.
func readControls(in io.Reader, c controller, stop func()) {
	paused := false
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "":
			c.Trigger()
		case "p":
			if paused {
				c.Resume()
			} else {
				c.Pause()
			}
			paused = !paused
		case "q":
			stop()
			return
		}
	}
}
