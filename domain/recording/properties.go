package recording

import (
	"bufio"
	"fmt"
	"os"

	"github.com/soocke/pixel-recorder-go/domain/binio"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

const (
	signature     = "stgR"
	formatVersion = 1
)

// WriteProperties stores the recording metadata file.
func WriteProperties(rec *project.RecordingProject) error {
	f, err := os.Create(rec.PropertiesPath())
	if err != nil {
		return fmt.Errorf("create recording properties: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	w := binio.NewWriter(bw, 0)
	w.Bytes([]byte(signature))
	w.U16(formatVersion)
	w.U16(uint16(rec.Width))
	w.U16(uint16(rec.Height))
	w.F32(rec.Dpi)
	w.U8(rec.ChannelCount)
	w.U8(rec.BitsPerChannel)
	w.Pascal8(project.AppName)
	w.Pascal8(project.AppVersion)
	w.U8(uint8(rec.Source))
	w.U64(project.DateTicks(rec.CreationDate))
	if err := w.Err(); err != nil {
		return fmt.Errorf("write recording properties: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush recording properties: %w", err)
	}
	return f.Close()
}

// readProperties fills the metadata fields of rec from its properties file.
func readProperties(rec *project.RecordingProject) error {
	f, err := os.Open(rec.PropertiesPath())
	if err != nil {
		return fmt.Errorf("open recording properties: %w", err)
	}
	defer f.Close()
	r := binio.NewReader(bufio.NewReader(f), 0)
	if !r.Signature(signature) {
		if r.Err() != nil {
			return fmt.Errorf("read recording properties: %w", r.Err())
		}
		return ErrSignature
	}
	if v := r.U16(); r.Err() == nil && v != formatVersion {
		return fmt.Errorf("%w %d", ErrVersion, v)
	}
	rec.Width = int(r.U16())
	rec.Height = int(r.U16())
	rec.Dpi = r.F32()
	rec.ChannelCount = r.U8()
	rec.BitsPerChannel = r.U8()
	_ = r.Pascal8() // app name
	_ = r.Pascal8() // app version
	rec.Source = project.ProjectSource(r.U8())
	rec.CreationDate = project.TimeFromDateTicks(r.U64())
	if err := r.Err(); err != nil {
		return fmt.Errorf("read recording properties: %w", err)
	}
	return nil
}
