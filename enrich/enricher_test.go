package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/paologalligit/films-feed/entities"
)

type MockDetailsExtractor struct {
	mu             sync.Mutex
	filmCalls      map[string]int
	attributeCalls map[string]int
}

func newMockDetailsExtractor() *MockDetailsExtractor {
	return &MockDetailsExtractor{filmCalls: map[string]int{}, attributeCalls: map[string]int{}}
}

func (m *MockDetailsExtractor) Sessions(ctx context.Context, query entities.SessionQuery) ([]entities.Session, error) {
	return nil, nil
}

func (m *MockDetailsExtractor) Films(ctx context.Context) ([]entities.FilmDetails, error) {
	return nil, nil
}

func (m *MockDetailsExtractor) Film(ctx context.Context, filmId string) (*entities.FilmDetails, error) {
	m.mu.Lock()
	m.filmCalls[filmId]++
	m.mu.Unlock()
	if filmId == "broken" {
		return nil, errors.New("boom")
	}
	return &entities.FilmDetails{FilmId: filmId, Title: "Title " + filmId}, nil
}

func (m *MockDetailsExtractor) Attribute(ctx context.Context, attributeId string) (*entities.AttributeDetails, error) {
	m.mu.Lock()
	m.attributeCalls[attributeId]++
	m.mu.Unlock()
	if attributeId == "broken" {
		return nil, errors.New("boom")
	}
	return &entities.AttributeDetails{AttributeId: attributeId, ShortName: "A" + attributeId}, nil
}

func TestEnricher_FilmIsMemoized(t *testing.T) {
	mock := newMockDetailsExtractor()
	e := New(mock, NewCache(), zerolog.Nop())
	ctx := context.Background()

	first := e.Film(ctx, "F1")
	second := e.Film(ctx, "F1")

	assert.Equal(t, "Title F1", first.Title)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.filmCalls["F1"])
	assert.Equal(t, Stats{Lookups: 1, Hits: 1}, e.Stats())
}

func TestEnricher_FailedLookupIsCachedEmpty(t *testing.T) {
	mock := newMockDetailsExtractor()
	e := New(mock, nil, zerolog.Nop())
	ctx := context.Background()

	film := e.Film(ctx, "broken")
	attribute := e.Attribute(ctx, "broken")
	e.Film(ctx, "broken")
	e.Attribute(ctx, "broken")

	assert.True(t, film.IsEmpty())
	assert.True(t, attribute.IsEmpty())
	assert.Equal(t, 1, mock.filmCalls["broken"])
	assert.Equal(t, 1, mock.attributeCalls["broken"])
	assert.Equal(t, 2, e.Stats().Failures)
}

func TestEnricher_PrefetchLooksUpEachIdOnce(t *testing.T) {
	mock := newMockDetailsExtractor()
	e := New(mock, NewCache(), zerolog.Nop())
	e.Workers = 4
	ctx := context.Background()

	e.Prefetch(ctx, []string{"F1", "F2", "F1", "F3"}, []string{"1", "2", "2"})
	e.Film(ctx, "F2")
	e.Attribute(ctx, "1")

	assert.Equal(t, map[string]int{"F1": 1, "F2": 1, "F3": 1}, mock.filmCalls)
	assert.Equal(t, map[string]int{"1": 1, "2": 1}, mock.attributeCalls)
	assert.Equal(t, 5, e.Stats().Lookups)
}

func TestCache_ScopedToOneEnricher(t *testing.T) {
	mock := newMockDetailsExtractor()
	ctx := context.Background()

	New(mock, NewCache(), zerolog.Nop()).Film(ctx, "F1")
	New(mock, NewCache(), zerolog.Nop()).Film(ctx, "F1")

	assert.Equal(t, 2, mock.filmCalls["F1"])
}
