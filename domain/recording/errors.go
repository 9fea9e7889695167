package recording

import "errors"

var (
	// ErrWriterClosed is returned by writes after Finalize or after an I/O failure.
	ErrWriterClosed = errors.New("recording: writer closed")
	// ErrSignature means a properties file is not a recording.
	ErrSignature = errors.New("recording: bad signature")
	// ErrVersion means a properties file uses an unknown format version.
	ErrVersion = errors.New("recording: unsupported version")
	// ErrRecordType means a log contains an unknown record tag.
	ErrRecordType = errors.New("recording: unknown record type")
)
