package bandsync

import "sync"

// ProgressFunc receives advisory progress in percent.
type ProgressFunc func(percent int)

// State is a step of the sync workflow. States only move forward.
type State int

const (
	StateStart State = iota
	StateLocating
	StateForecasting
	StateDiscovering
	StateConnecting
	StateListingTiles
	StateBuildingPages
	StateClearingPages
	StateSettingPages
	StateDone
)

var stateNames = [...]string{
	StateStart:         "start",
	StateLocating:      "locating",
	StateForecasting:   "forecasting",
	StateDiscovering:   "discovering-device",
	StateConnecting:    "connecting",
	StateListingTiles:  "listing-tiles",
	StateBuildingPages: "building-pages",
	StateClearingPages: "clearing-pages",
	StateSettingPages:  "setting-pages",
	StateDone:          "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Progress reached once a state has completed.
var stateProgress = map[State]int{
	StateLocating:      10,
	StateForecasting:   20,
	StateDiscovering:   30,
	StateConnecting:    40,
	StateListingTiles:  50,
	StateBuildingPages: 60,
	StateClearingPages: 80,
	StateSettingPages:  100,
}

// monotonic drops values lower than one already reported.
type monotonic struct {
	mu   sync.Mutex
	last int
	fn   ProgressFunc
}

func newMonotonic(fn ProgressFunc) *monotonic {
	return &monotonic{fn: fn}
}

func (m *monotonic) report(p int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p < m.last {
		return
	}
	m.last = p
	if m.fn != nil {
		m.fn(p)
	}
}
