package state

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// lockTable hands out one mutual-exclusion slot per account. Transactions that
// touch disjoint accounts never contend.
type lockTable struct {
	mu    sync.Mutex
	slots map[solana.PublicKey]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[solana.PublicKey]*slot)}
}

func (t *lockTable) ref(key solana.PublicKey) *slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		t.slots[key] = s
	}
	s.refs++
	return s
}

func (t *lockTable) unref(key solana.PublicKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(t.slots, key)
	}
}

// acquire locks every key in ascending byte order so two transactions with
// overlapping account sets cannot deadlock. The returned release function
// must be called exactly once.
func (t *lockTable) acquire(ctx context.Context, keys []solana.PublicKey) (func(), error) {
	ordered := dedupeSorted(keys)
	held := make([]solana.PublicKey, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			t.mu.Lock()
			s := t.slots[held[i]]
			t.mu.Unlock()
			<-s.ch
			t.unref(held[i])
		}
	}
	for _, key := range ordered {
		s := t.ref(key)
		select {
		case s.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			t.unref(key)
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func dedupeSorted(keys []solana.PublicKey) []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(keys))
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
