package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	spoolFile             = "history_spool.log"
	DefaultSpoolMaxBytes  = 16 << 20
	DefaultReplayInterval = 30 * time.Second
)

var ErrSpoolFull = errors.New("history spool full")

// SpoolingStore writes through to primary and spools items to a local
// JSONL file while primary is failing. A replayer drains the spool back
// once primary recovers.
type SpoolingStore struct {
	primary  Store
	dir      string
	maxBytes int64
	interval time.Duration

	mu sync.Mutex // serializes spool appends and replays
}

func NewSpoolingStore(primary Store, dir string, maxBytes int64, interval time.Duration) (*SpoolingStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultSpoolMaxBytes
	}
	if interval <= 0 {
		interval = DefaultReplayInterval
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("history spool dir: %w", err)
	}
	return &SpoolingStore{primary: primary, dir: dir, maxBytes: maxBytes, interval: interval}, nil
}

func (s *SpoolingStore) Add(ctx context.Context, it Item) error {
	err := s.primary.Add(ctx, it)
	if err == nil {
		return nil
	}
	log.Printf("[History] Store write failed: %v. Spooling %s", err, it.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if spoolErr := s.spool(it); spoolErr != nil {
		log.Printf("[ERROR] History spool failed for %s: %v", it.ID, spoolErr)
		return fmt.Errorf("history write: %v; spool: %w", err, spoolErr)
	}
	return nil
}

// List reads primary only; spooled items show up after replay
func (s *SpoolingStore) List(ctx context.Context) ([]Item, error) {
	return s.primary.List(ctx)
}

func (s *SpoolingStore) path() string {
	return filepath.Join(s.dir, spoolFile)
}

func (s *SpoolingStore) spool(it Item) error {
	line, err := json.Marshal(it)
	if err != nil {
		return err
	}

	if info, err := os.Stat(s.path()); err == nil && info.Size()+int64(len(line))+1 > s.maxBytes {
		return ErrSpoolFull
	}

	f, err := os.OpenFile(s.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// StartReplayer replays the spool every interval until ctx is done
func (s *SpoolingStore) StartReplayer(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Replay(ctx)
			}
		}
	}()
}

// Replay moves spooled items into primary, oldest first. Items that still
// fail stay spooled for the next round.
func (s *SpoolingStore) Replay(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path())
	if err != nil || info.Size() == 0 {
		return 0
	}

	replay := filepath.Join(s.dir, fmt.Sprintf("replay_%d.log", time.Now().UnixNano()))
	if err := os.Rename(s.path(), replay); err != nil {
		log.Printf("[History] Failed to rotate spool for replay: %v", err)
		return 0
	}
	defer os.Remove(replay)

	f, err := os.Open(replay)
	if err != nil {
		log.Printf("[History] Failed to open replay file: %v", err)
		return 0
	}
	defer f.Close()

	var flushed, corrupt, respooled int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var it Item
		if err := json.Unmarshal(scanner.Bytes(), &it); err != nil {
			corrupt++
			continue
		}
		if err := s.primary.Add(ctx, it); err != nil {
			if s.spool(it) == nil {
				respooled++
			}
			continue
		}
		flushed++
	}

	if flushed > 0 || corrupt > 0 || respooled > 0 {
		log.Printf("[History] Replay: %d flushed, %d still spooled, %d corrupt", flushed, respooled, corrupt)
	}
	return flushed
}
