package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/teambrain/core"
	"github.com/hupe1980/teambrain/internal/util"
)

// maxRecordsPerTeam bounds each team's record list; the oldest records are
// evicted first once the bound is reached.
const maxRecordsPerTeam = 1024

// relatedThreshold is the minimum similarity for a record to count as
// related to another.
const relatedThreshold = 0.3

// InMemoryStore keeps records in process memory, bucketed per team.
// It is safe for concurrent use.
type InMemoryStore struct {
	mu      sync.RWMutex
	byTeam  map[string][]*Record
	byID    map[string]*Record
	nowFunc func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byTeam:  make(map[string][]*Record),
		byID:    make(map[string]*Record),
		nowFunc: time.Now,
	}
}

// Store implements Store.
func (s *InMemoryStore) Store(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = core.NewID()
	rec.Timestamp = s.nowFunc()
	if rec.Visibility == "" {
		rec.Visibility = VisibilityTeam
	}
	if rec.Confidence == 0 {
		rec.Confidence = initialConfidence(rec.Content)
	}

	stored := rec
	bucket := s.byTeam[rec.TeamID]
	if len(bucket) >= maxRecordsPerTeam {
		evicted := bucket[0]
		bucket = bucket[1:]
		delete(s.byID, evicted.ID)
	}
	bucket = append(bucket, &stored)
	s.byTeam[rec.TeamID] = bucket
	s.byID[stored.ID] = &stored

	return stored, nil
}

// Search implements Store.
func (s *InMemoryStore) Search(_ context.Context, q Query) ([]ScoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}

	var scored []ScoredRecord
	for _, rec := range s.candidates(q.TeamID) {
		if !visibleTo(*rec, q.UserID, q.TeamID) {
			continue
		}
		if q.Category != "" && rec.Category != q.Category {
			continue
		}
		if !hasAllTags(rec.Tags, q.Tags) {
			continue
		}
		sim := util.JaccardSimilarity(q.Text, rec.Content)
		if sim == 0 {
			sim = tagSimilarity(q.Text, rec.Tags)
		}
		if sim == 0 {
			continue
		}
		rec.Interactions++
		scored = append(scored, ScoredRecord{Record: *rec, Score: sim * rec.Confidence})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

// Verify implements Store.
func (s *InMemoryStore) Verify(_ context.Context, id, userID, teamID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok || rec.TeamID != teamID {
		return Record{}, ErrRecordNotFound
	}

	for _, v := range rec.VerifiedBy {
		if v == userID {
			return *rec, nil // already verified by this user
		}
	}

	rec.VerifiedBy = append(rec.VerifiedBy, userID)
	rec.Confidence += verifyBoost
	if rec.Confidence > maxConfidence {
		rec.Confidence = maxConfidence
	}

	return *rec, nil
}

// Related implements Store.
func (s *InMemoryStore) Related(_ context.Context, id, userID, teamID string, limit int) ([]ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 3
	}

	origin, ok := s.byID[id]
	if !ok || !visibleTo(*origin, userID, teamID) {
		return nil, ErrRecordNotFound
	}

	var scored []ScoredRecord
	for _, rec := range s.candidates(teamID) {
		if rec.ID == id || !visibleTo(*rec, userID, teamID) {
			continue
		}
		sim := util.JaccardSimilarity(origin.Content, rec.Content)
		if sim <= relatedThreshold {
			continue
		}
		scored = append(scored, ScoredRecord{Record: *rec, Score: sim})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

// Insights implements Store.
func (s *InMemoryStore) Insights(_ context.Context, teamID string) (Insights, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ins := Insights{
		TeamID:     teamID,
		ByCategory: make(map[string]int),
		TopTags:    make(map[string]int),
		TopContrib: make(map[string]int),
	}

	dayAgo := s.nowFunc().Add(-24 * time.Hour)
	var confidenceSum float64
	maxInteractions := 0
	for _, rec := range s.byTeam[teamID] {
		ins.TotalRecords++
		if rec.Timestamp.After(dayAgo) {
			ins.Last24h++
		}
		if rec.Category != "" {
			ins.ByCategory[rec.Category]++
		}
		for _, tag := range rec.Tags {
			ins.TopTags[strings.ToLower(tag)]++
		}
		ins.TopContrib[rec.Author]++
		confidenceSum += rec.Confidence
		if len(rec.VerifiedBy) > 0 {
			ins.Verified++
		}
		if rec.Interactions > maxInteractions {
			maxInteractions = rec.Interactions
			ins.MostInteracted = rec.ID
		}
	}
	if ins.TotalRecords > 0 {
		ins.AvgConfidence = confidenceSum / float64(ins.TotalRecords)
	}

	return ins, nil
}

// candidates returns the team's own records plus public records from other
// teams, which are readable across team boundaries.
func (s *InMemoryStore) candidates(teamID string) []*Record {
	out := make([]*Record, 0, len(s.byTeam[teamID]))
	out = append(out, s.byTeam[teamID]...)
	for team, bucket := range s.byTeam {
		if team == teamID {
			continue
		}
		for _, rec := range bucket {
			if rec.Visibility == VisibilityPublic {
				out = append(out, rec)
			}
		}
	}
	return out
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[strings.ToLower(t)] = true
	}
	for _, t := range want {
		if !set[strings.ToLower(t)] {
			return false
		}
	}
	return true
}

// tagSimilarity gives a weak match when the query mentions one of the
// record's tags but shares no content tokens.
func tagSimilarity(text string, tags []string) float64 {
	lower := strings.ToLower(text)
	for _, tag := range tags {
		if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
			return 0.2
		}
	}
	return 0
}
