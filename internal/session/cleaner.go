package session

import (
	"log"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the cleaner checks for expired sessions.
const DefaultSweepInterval = 5 * time.Minute

// Cleaner periodically sweeps expired sessions out of a Store. The caller
// owns its lifecycle: Start launches the loop, Stop halts it and waits for
// the goroutine to exit.
type Cleaner struct {
	store    *Store
	interval time.Duration
	stop     chan struct{}
	done     sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewCleaner creates a cleaner for the given store. It does not start it.
func NewCleaner(store *Store, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Cleaner{
		store:    store,
		interval: interval,
	}
}

// Start begins the sweep loop. Calling Start on a running cleaner is a no-op.
func (c *Cleaner) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		log.Println("Session cleaner already running")
		return
	}
	c.running = true
	c.stop = make(chan struct{})

	c.done.Add(1)
	go c.run(c.stop)

	log.Printf("Session cleaner started (interval %v)", c.interval)
}

// Stop halts the sweep loop and blocks until it has exited. Idempotent.
func (c *Cleaner) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	c.mu.Unlock()

	c.done.Wait()
	log.Println("Session cleaner stopped")
}

func (c *Cleaner) run(stop chan struct{}) {
	defer c.done.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := c.store.SweepExpired(); removed > 0 {
				log.Printf("Session sweep removed %d expired sessions", removed)
			}
		case <-stop:
			return
		}
	}
}
