package memorystore

import (
	"sort"
	"sync"

	"tradepulse/internal/trade"
)

// TradeStore holds every accepted trade for the process lifetime, keyed by
// transaction hash, with chronological and notional orderings kept in sync.
// One mutex covers the index rebuild and every read.
type TradeStore struct {
	mu     sync.Mutex
	byHash map[string]trade.Trade
	order  []string // hashes in first-seen order
	chrono []trade.Trade
	bySize []trade.Trade
}

func NewTradeStore() *TradeStore {
	return &TradeStore{
		byHash: make(map[string]trade.Trade),
	}
}

// Update adds the trades whose hash is not yet known and returns how many
// were accepted. Duplicates, within the batch or against the store, are
// ignored. Both orderings are appended to and then stably re-sorted, so ties
// keep existing entries ahead of new ones in batch order.
func (s *TradeStore) Update(batch []trade.Trade) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]trade.Trade, 0, len(batch))
	for _, t := range batch {
		if _, ok := s.byHash[t.TransactionHash]; ok {
			continue
		}
		s.byHash[t.TransactionHash] = t
		s.order = append(s.order, t.TransactionHash)
		fresh = append(fresh, t)
	}

	if len(fresh) == 0 {
		return 0
	}

	s.chrono = append(s.chrono, fresh...)
	sort.SliceStable(s.chrono, func(i, j int) bool {
		return s.chrono[i].Timestamp.After(s.chrono[j].Timestamp.Time)
	})

	s.bySize = append(s.bySize, fresh...)
	sort.SliceStable(s.bySize, func(i, j int) bool {
		return s.bySize[i].Notional() > s.bySize[j].Notional()
	})

	return len(fresh)
}

// GetAll returns every stored trade in first-seen order.
func (s *TradeStore) GetAll() []trade.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]trade.Trade, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.byHash[h])
	}
	return out
}

// GetRecent returns up to n trades, most recent first.
func (s *TradeStore) GetRecent(n int) []trade.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n > len(s.chrono) {
		n = len(s.chrono)
	}
	return clone(s.chrono[:n])
}

// GetSortedBySize returns all trades by notional value, largest first.
func (s *TradeStore) GetSortedBySize() []trade.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.bySize)
}

// GetSortedChronologically returns all trades, most recent first.
func (s *TradeStore) GetSortedChronologically() []trade.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.chrono)
}

// Count returns the number of stored trades.
func (s *TradeStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}

func clone(in []trade.Trade) []trade.Trade {
	out := make([]trade.Trade, len(in))
	copy(out, in)
	return out
}
