package memory

import (
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Reclaimer releases blocks whose owners became unreachable while still
// holding an allocation. Track returns a function that cancels the tracking;
// Dispose calls it before freeing.
type Reclaimer interface {
	Track(b *Block, offset uint32, release func(uint32)) (cancel func())
}

// Flusher is implemented by reclaimers that defer the actual release until
// the owning flow asks for it.
type Flusher interface {
	Flush() int
}

// NopReclaimer never reclaims anything.
type NopReclaimer struct{}

// Track implements Reclaimer.
func (NopReclaimer) Track(*Block, uint32, func(uint32)) func() {
	return func() {}
}

type reclaim struct {
	release func(uint32)
	offset  uint32
}

// CleanupReclaimer tracks blocks with runtime.AddCleanup. Cleanups run on a
// runtime goroutine, so they only queue the offset; Flush performs the
// foreign free on the caller's goroutine.
type CleanupReclaimer struct {
	queue []reclaim
	mu    sync.Mutex
}

// NewCleanupReclaimer creates an empty reclaimer.
func NewCleanupReclaimer() *CleanupReclaimer {
	return &CleanupReclaimer{}
}

// Track implements Reclaimer.
func (r *CleanupReclaimer) Track(b *Block, offset uint32, release func(uint32)) func() {
	c := runtime.AddCleanup(b, r.enqueue, reclaim{offset: offset, release: release})
	return c.Stop
}

func (r *CleanupReclaimer) enqueue(rc reclaim) {
	r.mu.Lock()
	r.queue = append(r.queue, rc)
	r.mu.Unlock()
}

// Flush frees every queued offset and returns how many were freed.
func (r *CleanupReclaimer) Flush() int {
	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.mu.Unlock()

	for _, rc := range queue {
		Logger().Warn("reclaiming leaked block", zap.Uint32("offset", rc.offset))
		rc.release(rc.offset)
	}
	return len(queue)
}

// Pending returns the number of queued offsets.
func (r *CleanupReclaimer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

var defaultReclaimer Reclaimer = NewCleanupReclaimer()

// DefaultReclaimer returns the reclaimer used when no WithReclaimer option
// is given.
func DefaultReclaimer() Reclaimer {
	return defaultReclaimer
}

// SetDefaultReclaimer replaces the default reclaimer. nil installs
// NopReclaimer.
func SetDefaultReclaimer(r Reclaimer) {
	if r == nil {
		r = NopReclaimer{}
	}
	defaultReclaimer = r
}
