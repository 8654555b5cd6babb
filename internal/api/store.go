package api

import (
	"sync"

	"github.com/google/uuid"
)

const defaultStoreCapacity = 1024

// ResultStore keeps the most recent transliteration responses so clients can
// fetch them again by id. The oldest entry is evicted once full.
type ResultStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	results  map[string]TransliterateResponse
}

func NewResultStore(capacity int) *ResultStore {
	if capacity <= 0 {
		capacity = defaultStoreCapacity
	}
	return &ResultStore{
		capacity: capacity,
		results:  make(map[string]TransliterateResponse),
	}
}

func (s *ResultStore) Put(resp TransliterateResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[resp.ID]; !ok {
		s.order = append(s.order, resp.ID)
	}
	s.results[resp.ID] = resp
	for len(s.order) > s.capacity {
		delete(s.results, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *ResultStore) Get(id string) (TransliterateResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.results[id]
	return resp, ok
}

func (s *ResultStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return false
	}
	delete(s.results, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func newResultID() string {
	return "xlit_" + uuid.NewString()
}
