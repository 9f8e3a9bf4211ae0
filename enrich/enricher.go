package enrich

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/paologalligit/films-feed/client"
	"github.com/paologalligit/films-feed/entities"
	"github.com/paologalligit/films-feed/team"
)

// Cache memoizes detail lookups for a single run. A failed lookup is stored
// as an empty value so it is not attempted again in the same run.
type Cache struct {
	mu         sync.Mutex
	films      map[string]entities.FilmDetails
	attributes map[string]entities.AttributeDetails
}

func NewCache() *Cache {
	return &Cache{
		films:      make(map[string]entities.FilmDetails),
		attributes: make(map[string]entities.AttributeDetails),
	}
}

func (c *Cache) film(id string) (entities.FilmDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.films[id]
	return f, ok
}

func (c *Cache) setFilm(id string, f entities.FilmDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.films[id] = f
}

func (c *Cache) attribute(id string) (entities.AttributeDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.attributes[id]
	return a, ok
}

func (c *Cache) setAttribute(id string, a entities.AttributeDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributes[id] = a
}

// Stats counts upstream traffic caused by the enricher.
type Stats struct {
	Lookups  int
	Hits     int
	Failures int
}

// Enricher resolves film and attribute details through the upstream client,
// at most once per id.
type Enricher struct {
	Client  client.Extractor
	Workers int
	Logger  zerolog.Logger

	cache *Cache
	// per-id locks keep two prefetch workers from fetching the same id
	inflight sync.Map
	statsMu  sync.Mutex
	stats    Stats
}

func New(c client.Extractor, cache *Cache, logger zerolog.Logger) *Enricher {
	if cache == nil {
		cache = NewCache()
	}
	return &Enricher{Client: c, Workers: 1, Logger: logger, cache: cache}
}

// Film returns the details for filmId. The zero value is returned when the
// lookup failed; callers fall back to the fields embedded in the session.
func (e *Enricher) Film(ctx context.Context, filmId string) entities.FilmDetails {
	if f, ok := e.cache.film(filmId); ok {
		e.count(func(s *Stats) { s.Hits++ })
		return f
	}
	unlock := e.lock("film:" + filmId)
	defer unlock()
	if f, ok := e.cache.film(filmId); ok {
		e.count(func(s *Stats) { s.Hits++ })
		return f
	}

	e.count(func(s *Stats) { s.Lookups++ })
	var details entities.FilmDetails
	film, err := e.Client.Film(ctx, filmId)
	if err != nil {
		e.count(func(s *Stats) { s.Failures++ })
		e.Logger.Warn().Err(err).Str("film_id", filmId).Msg("film lookup failed")
	} else if film != nil {
		details = *film
	}
	e.cache.setFilm(filmId, details)
	return details
}

// Attribute returns the details for attributeId, or the zero value when the
// lookup failed.
func (e *Enricher) Attribute(ctx context.Context, attributeId string) entities.AttributeDetails {
	if a, ok := e.cache.attribute(attributeId); ok {
		e.count(func(s *Stats) { s.Hits++ })
		return a
	}
	unlock := e.lock("attribute:" + attributeId)
	defer unlock()
	if a, ok := e.cache.attribute(attributeId); ok {
		e.count(func(s *Stats) { s.Hits++ })
		return a
	}

	e.count(func(s *Stats) { s.Lookups++ })
	var details entities.AttributeDetails
	attribute, err := e.Client.Attribute(ctx, attributeId)
	if err != nil {
		e.count(func(s *Stats) { s.Failures++ })
		e.Logger.Warn().Err(err).Str("attribute_id", attributeId).Msg("attribute lookup failed")
	} else if attribute != nil {
		details = *attribute
	}
	e.cache.setAttribute(attributeId, details)
	return details
}

type lookup struct {
	film bool
	id   string
}

// Prefetch warms the cache for the given ids using Workers concurrent
// lookups. Failures are already cached as empty details, so nothing is
// returned.
func (e *Enricher) Prefetch(ctx context.Context, filmIds, attributeIds []string) {
	jobs := make([]lookup, 0, len(filmIds)+len(attributeIds))
	for _, id := range filmIds {
		jobs = append(jobs, lookup{film: true, id: id})
	}
	for _, id := range attributeIds {
		jobs = append(jobs, lookup{id: id})
	}
	if len(jobs) == 0 {
		return
	}

	prefetchTeam := team.Team[lookup, struct{}]{
		WorkerCount: e.Workers,
		Worker: func(ctx context.Context, job lookup) (struct{}, error) {
			if job.film {
				e.Film(ctx, job.id)
			} else {
				e.Attribute(ctx, job.id)
			}
			return struct{}{}, nil
		},
	}
	prefetchTeam.Run(ctx, jobs)
	e.Logger.Debug().Int("films", len(filmIds)).Int("attributes", len(attributeIds)).Msg("details prefetched")
}

func (e *Enricher) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

func (e *Enricher) count(f func(*Stats)) {
	e.statsMu.Lock()
	f(&e.stats)
	e.statsMu.Unlock()
}

func (e *Enricher) lock(key string) func() {
	m, _ := e.inflight.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
