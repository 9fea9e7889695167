//go:build windows

package capture

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	winmm               = windows.NewLazySystemDLL("winmm.dll")
	procTimeBeginPeriod = winmm.NewProc("timeBeginPeriod")
	procTimeEndPeriod   = winmm.NewProc("timeEndPeriod")
)

const timerPeriodMillis = 1

// beginTimerResolution raises the system timer resolution to 1 ms for the
// lifetime of the loop.
func beginTimerResolution() (func(), error) {
	if err := procTimeBeginPeriod.Find(); err != nil {
		return nil, err
	}
	if r, _, _ := procTimeBeginPeriod.Call(timerPeriodMillis); r != 0 {
		return nil, fmt.Errorf("capture: timeBeginPeriod(%d) returned %d", timerPeriodMillis, r)
	}
	return func() { procTimeEndPeriod.Call(timerPeriodMillis) }, nil
}
