package handlers

import (
	"log"
	"time"
)

// Sweeper removes stored files older than maxAge and reports how many.
type Sweeper interface {
	RemoveOlderThan(maxAge time.Duration) (int, error)
}

type FileCleanupService struct {
	sweeper  Sweeper
	maxAge   time.Duration
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewFileCleanupService(sweeper Sweeper, maxAge time.Duration) *FileCleanupService {
	return &FileCleanupService{
		sweeper:  sweeper,
		maxAge:   maxAge,
		interval: 1 * time.Hour,
		done:     make(chan bool),
	}
}

func (fcs *FileCleanupService) Start() {
	fcs.ticker = time.NewTicker(fcs.interval)
	go func() {
		for {
			select {
			case <-fcs.done:
				return
			case <-fcs.ticker.C:
				fcs.RunOnce()
			}
		}
	}()
	log.Printf("[INFO] file cleanup started (max age %s)", fcs.maxAge)
}

func (fcs *FileCleanupService) Stop() {
	if fcs.ticker != nil {
		fcs.ticker.Stop()
		fcs.done <- true
	}
	log.Println("[INFO] file cleanup stopped")
}

// RunOnce sweeps immediately.
func (fcs *FileCleanupService) RunOnce() int {
	removed, err := fcs.sweeper.RemoveOlderThan(fcs.maxAge)
	if err != nil {
		log.Printf("[WARN] file cleanup failed: %v", err)
	}
	return removed
}
