package terminal

import "sync"

// registry tracks devices owned by a live Terminal in this process
var registry = struct {
	sync.Mutex
	open map[string]struct{}
}{open: make(map[string]struct{})}

// acquireDevice claims id; fails with ErrAlreadyOpen if already claimed
func acquireDevice(id string) error {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.open[id]; ok {
		return ErrAlreadyOpen
	}
	registry.open[id] = struct{}{}
	return nil
}

// releaseDevice drops the claim on id
func releaseDevice(id string) {
	registry.Lock()
	delete(registry.open, id)
	registry.Unlock()
}
