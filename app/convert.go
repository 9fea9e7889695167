package app

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soocke/pixel-recorder-go/catalog"
	"github.com/soocke/pixel-recorder-go/domain/recording"
)

var convertCmd = &cobra.Command{
	Use:   "convert <recording-dir|id>",
	Short: "Convert a recording left on disk into a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setup(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		entry, dir, err := resolveRecording(c.Catalog, args[0])
		if err != nil {
			return err
		}
		rec, err := recording.Load(dir)
		if err != nil {
			return fmt.Errorf("load recording: %w", err)
		}
		if entry != nil {
			rec.ID = entry.ID
		} else {
			rec.ID = uuid.New()
			if err := c.Catalog.Register(rec); err != nil {
				return err
			}
		}
		if err := c.Catalog.SetCounts(rec.ID, len(rec.Frames), len(rec.Events)); err != nil {
			c.Logger.Warn("catalog counts", "error", err)
		}

		cp, err := c.Converter.Convert(cmd.Context(), rec)
		if err != nil {
			if uerr := c.Catalog.UpdateStatus(rec.ID, catalog.StatusFailed, "", err); uerr != nil {
				c.Logger.Warn("catalog status", "error", uerr)
			}
			return err
		}
		if err := c.Catalog.UpdateStatus(rec.ID, catalog.StatusConverted, cp.Dir, nil); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, map[string]any{
				"id":          rec.ID.String(),
				"project_dir": cp.Dir,
				"frames":      len(rec.Frames),
				"events":      len(rec.Events),
				"tracks":      len(cp.Tracks),
			})
		}
		fmt.Fprintf(out, "Converted %d frames into %s\n", len(rec.Frames), cp.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

// resolveRecording accepts a catalog id or a directory. The entry is nil
// for directories the catalog does not know.
func resolveRecording(store *catalog.Store, arg string) (*catalog.Entry, string, error) {
	if id, err := uuid.Parse(arg); err == nil {
		e, err := store.Get(id)
		if err != nil {
			return nil, "", err
		}
		if e == nil {
			return nil, "", fmt.Errorf("recording %s: %w", id, catalog.ErrNotFound)
		}
		return e, e.Dir, nil
	}
	dir, err := filepath.Abs(arg)
	if err != nil {
		return nil, "", err
	}
	e, err := store.FindByDir(dir)
	if err != nil {
		return nil, "", err
	}
	return e, dir, nil
}
