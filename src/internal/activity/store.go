package activity

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"carecircle-activity-svc/src/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultMaxRecords = 1000
	DefaultListLimit  = 50

	recentWindow    = 24 * time.Hour
	topContributors = 5
)

// ListOptions narrows a feed query. Zero values mean "no filter".
type ListOptions struct {
	GroupAddress string
	UserAddress  string
	Types        []models.ActivityType
	Privacy      []models.Privacy
	Offset       int
	Limit        int
}

// Store is the in-memory feed. Records are kept most-recent-first and capped
// at maxRecords; the oldest record is evicted first.
type Store struct {
	mu         sync.RWMutex
	records    []models.ActivityRecord
	maxRecords int
	now        func() time.Time
}

type StoreOption func(*Store)

// WithClock replaces the wall clock used for timestamps and the recent window.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(maxRecords int, opts ...StoreOption) *Store {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	s := &Store{
		records:    make([]models.ActivityRecord, 0, maxRecords),
		maxRecords: maxRecords,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stamps the input with an id and timestamp and puts it at the head of the feed.
func (s *Store) Add(input models.NewActivity) models.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	record := models.ActivityRecord{
		ID:           newActivityID(ts),
		Type:         input.Type,
		Timestamp:    ts,
		Actor:        input.Actor,
		Target:       input.Target,
		Metadata:     input.Metadata,
		GroupAddress: input.GroupAddress,
		TxHash:       input.TxHash,
		Privacy:      input.Privacy,
	}
	record = cloneRecord(record)

	s.records = append(s.records, models.ActivityRecord{})
	copy(s.records[1:], s.records)
	s.records[0] = record

	if len(s.records) > s.maxRecords {
		s.records = s.records[:s.maxRecords]
	}

	return cloneRecord(record)
}

func (s *Store) List(opts ListOptions) []models.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := toSet(opts.Types)
	privacy := toSet(opts.Privacy)

	filtered := make([]models.ActivityRecord, 0)
	for _, r := range s.records {
		if opts.GroupAddress != "" && !strings.EqualFold(r.GroupAddress, opts.GroupAddress) {
			continue
		}
		if opts.UserAddress != "" && !strings.EqualFold(r.Actor.Address, opts.UserAddress) {
			continue
		}
		if types != nil {
			if _, ok := types[r.Type]; !ok {
				continue
			}
		}
		if privacy != nil {
			if _, ok := privacy[r.Privacy]; !ok {
				continue
			}
		}
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return []models.ActivityRecord{}
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	page := make([]models.ActivityRecord, 0, end-offset)
	for _, r := range filtered[offset:end] {
		page = append(page, cloneRecord(r))
	}
	return page
}

// Stats aggregates the feed of one group. When privacy levels are given only
// records at those levels are counted.
func (s *Store) Stats(groupAddress string, privacy ...models.Privacy) *models.ActivityStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	levels := toSet(privacy)

	stats := models.EmptyActivityStats()
	cutoff := s.now().Add(-recentWindow)

	counts := make(map[string]*models.Contributor)
	var order []string

	for _, r := range s.records {
		if !strings.EqualFold(r.GroupAddress, groupAddress) {
			continue
		}
		if levels != nil {
			if _, ok := levels[r.Privacy]; !ok {
				continue
			}
		}
		stats.TotalActivities++
		stats.ActivityByType[r.Type]++
		if r.Timestamp.After(cutoff) {
			stats.RecentActivities++
		}

		key := strings.ToLower(r.Actor.Address)
		c, ok := counts[key]
		if !ok {
			c = &models.Contributor{Address: r.Actor.Address, Nickname: r.Actor.Nickname}
			counts[key] = c
			order = append(order, key)
		}
		c.Count++
	}

	ranked := make([]models.Contributor, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, *counts[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topContributors {
		ranked = ranked[:topContributors]
	}
	stats.TopContributors = ranked

	return stats
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func newActivityID(ts time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", ts.UnixMilli(), suffix)
}

// cloneRecord copies every reference field so stored records cannot be
// changed through a returned value.
func cloneRecord(r models.ActivityRecord) models.ActivityRecord {
	r.Metadata = maps.Clone(r.Metadata)
	r.Actor.Avatar = clonePtr(r.Actor.Avatar)
	r.TxHash = clonePtr(r.TxHash)
	if r.Target != nil {
		t := *r.Target
		t.Address = clonePtr(t.Address)
		t.Nickname = clonePtr(t.Nickname)
		t.ID = clonePtr(t.ID)
		t.Name = clonePtr(t.Name)
		r.Target = &t
	}
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func toSet[T comparable](values []T) map[T]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
