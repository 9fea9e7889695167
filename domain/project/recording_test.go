package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		frames []*Frame
		events []InputEvent
		want   uint64
	}{
		{name: "empty"},
		{name: "single frame without delay", frames: []*Frame{{Ticks: 0}}, want: 1},
		{
			name:   "last frame lasts its delay",
			frames: []*Frame{{Ticks: 0, Delay: 16}, {Ticks: 166667, Delay: 16}},
			want:   166667 + 16*TicksPerMillisecond,
		},
		{name: "negative delay floors at one tick", frames: []*Frame{{Ticks: 40, Delay: -5}}, want: 41},
		{
			name:   "event after last frame",
			frames: []*Frame{{Ticks: 10}},
			events: []InputEvent{NewKeyEvent(90, 65, 0)},
			want:   91,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RecordingProject{Frames: tt.frames, Events: tt.events}
			assert.Equal(t, tt.want, r.EndTimestamp())
		})
	}
}
