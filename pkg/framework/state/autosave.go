package state

import (
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/justyntemme/plugcore/pkg/framework/debug"
)

// Snapshotter is the part of the engine controller the autosaver reads.
type Snapshotter interface {
	Snapshot() map[uint32]float64
}

// AutoSaver writes the state file a quiet period after the last change, so
// a burst of edits produces one write.
type AutoSaver struct {
	mgr      *Manager
	src      Snapshotter
	path     string
	log      *debug.Logger
	debounce func(func())

	mu    sync.Mutex
	saves int
	err   error
}

// NewAutoSaver saves src to path after quiet has passed without a Changed
// call.
func NewAutoSaver(mgr *Manager, src Snapshotter, path string, quiet time.Duration) *AutoSaver {
	return &AutoSaver{
		mgr:      mgr,
		src:      src,
		path:     path,
		log:      debug.Default().With("state"),
		debounce: debounce.New(quiet),
	}
}

// Changed schedules a save.
func (a *AutoSaver) Changed() {
	a.debounce(a.Save)
}

// Save writes the current snapshot now.
func (a *AutoSaver) Save() {
	err := a.mgr.SaveFile(a.path, a.src.Snapshot())

	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	if err != nil {
		a.log.Error("autosave to %s failed: %v", a.path, err)
		return
	}
	a.saves++
	a.log.Debug("saved state to %s", a.path)
}

// Saves returns the number of successful writes and the last error.
func (a *AutoSaver) Saves() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves, a.err
}
