package debug

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStartLogsRuntimeMetrics(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	Start(ctx, 5*time.Millisecond, logger)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"msg":"debug.runtime"`)
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), `"goroutines":`)
}

func TestResidentBytes(t *testing.T) {
	rss, err := residentBytes()
	if err != nil {
		t.Skipf("rss unavailable: %v", err)
	}
	assert.Positive(t, rss)
}
