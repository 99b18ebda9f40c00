package report

import (
	"sync"

	"github.com/zeu5/pricing-rl/types"
)

// EpisodeRecord is the bookkeeping kept for one finished episode
type EpisodeRecord struct {
	ID          int       `json:"id"`
	Run         int       `json:"run"`
	Episode     int       `json:"episode"`
	Experiment  string    `json:"experiment"`
	TotalReward float64   `json:"total_reward"`
	Prices      []float64 `json:"prices,omitempty"`
	Rewards     []float64 `json:"rewards,omitempty"`
}

// Summary drops the per step sequences
func (e EpisodeRecord) Summary() EpisodeRecord {
	return EpisodeRecord{
		ID:          e.ID,
		Run:         e.Run,
		Episode:     e.Episode,
		Experiment:  e.Experiment,
		TotalReward: e.TotalReward,
	}
}

// Store is an Analyzer that retains every episode it is shown.
// It is safe to read while a run is still writing to it.
type Store struct {
	lock    *sync.RWMutex
	records []EpisodeRecord
	// index of the first record since the last Reset
	segment int
}

var _ types.Analyzer = &Store{}

func NewStore() *Store {
	return &Store{
		lock:    new(sync.RWMutex),
		records: make([]EpisodeRecord, 0),
	}
}

func (s *Store) Analyze(run, episode int, experiment string, trace *types.Trace) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.records = append(s.records, EpisodeRecord{
		ID:          len(s.records),
		Run:         run,
		Episode:     episode,
		Experiment:  experiment,
		TotalReward: trace.TotalReward(),
		Prices:      trace.Prices(),
		Rewards:     trace.Rewards(),
	})
}

// DataSet is the []float64 of total rewards recorded since the last Reset
func (s *Store) DataSet() types.DataSet {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]float64, 0, len(s.records)-s.segment)
	for _, r := range s.records[s.segment:] {
		out = append(out, r.TotalReward)
	}
	return out
}

// Reset starts a new segment, the history stays available through Episodes
func (s *Store) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.segment = len(s.records)
}

// Episodes returns the summaries of every recorded episode
func (s *Store) Episodes() []EpisodeRecord {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]EpisodeRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Summary()
	}
	return out
}

// Get returns the full record with the given id
func (s *Store) Get(id int) (EpisodeRecord, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if id < 0 || id >= len(s.records) {
		return EpisodeRecord{}, false
	}
	return s.records[id], true
}

func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.records)
}
