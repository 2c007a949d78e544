package alarm

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hray3182/Nuhyi/internal/models"
)

// MemoryStore keeps alarms in process memory. It backs tests and
// deployments without a database.
type MemoryStore struct {
	mu     sync.Mutex
	alarms map[int64]map[string]models.Alarm
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alarms: make(map[int64]map[string]models.Alarm)}
}

func (s *MemoryStore) Save(_ context.Context, a models.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, ok := s.alarms[a.UserID]
	if !ok {
		byName = make(map[string]models.Alarm)
		s.alarms[a.UserID] = byName
	}
	byName[a.ID.String()] = a
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64, id models.AlarmID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.alarms[userID], id.String())
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]models.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Alarm
	for _, a := range s.alarms[userID] {
		out = append(out, a)
	}
	sortByFireAt(out)
	return out, nil
}

func (s *MemoryStore) ListDue(_ context.Context, now time.Time) ([]models.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Alarm
	for _, byName := range s.alarms {
		for name, a := range byName {
			if a.FireAt.After(now) {
				continue
			}
			out = append(out, a)
			a.FireAt = now.Add(ClaimLease)
			byName[name] = a
		}
	}
	sortByFireAt(out)
	return out, nil
}

func sortByFireAt(alarms []models.Alarm) {
	sort.Slice(alarms, func(i, j int) bool {
		if alarms[i].FireAt.Equal(alarms[j].FireAt) {
			return alarms[i].ID.String() < alarms[j].ID.String()
		}
		return alarms[i].FireAt.Before(alarms[j].FireAt)
	})
}
