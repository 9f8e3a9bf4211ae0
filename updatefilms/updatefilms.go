package updatefilms

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/paologalligit/films-feed/aggregate"
	"github.com/paologalligit/films-feed/client"
	"github.com/paologalligit/films-feed/constant"
	"github.com/paologalligit/films-feed/enrich"
	"github.com/paologalligit/films-feed/entities"
	"github.com/paologalligit/films-feed/feed"
	"github.com/paologalligit/films-feed/persistence"
	"github.com/paologalligit/films-feed/publish"
)

// ErrNoSessions means the upstream returned nothing usable; the previous
// feed is left untouched.
var ErrNoSessions = errors.New("no sessions could be fetched")

type UpdateFilmsOptions struct {
	RunId           string
	Client          client.Extractor
	CinemaId        string
	CinemaName      string
	StartDate       string
	EndDate         string
	PageSize        int
	Workers         int
	IncludeUpcoming bool
	Aggregate       aggregate.Options
	Writer          *feed.Writer
	Recorders       []persistence.Persistence
	Publisher       publish.Publisher
	Now             func() time.Time
	Logger          zerolog.Logger
}

type Result struct {
	RunId      string
	Outcome    feed.Outcome
	Checksum   string
	Films      int
	Stats      aggregate.Stats
	Enrichment enrich.Stats
}

// RunUpdateFilms fetches the sessions, builds the feed and writes it when it
// changed. Recording and publishing failures are logged only.
func RunUpdateFilms(ctx context.Context, options *UpdateFilmsOptions) (*Result, error) {
	logger := options.Logger
	now := time.Now
	if options.Now != nil {
		now = options.Now
	}
	started := now()
	aggOpts := options.Aggregate
	aggOpts.Now = started
	if aggOpts.Location == nil {
		aggOpts.Location = time.Local
	}

	query, err := sessionWindow(options, started.In(aggOpts.Location))
	if err != nil {
		return nil, err
	}

	sessions := fetchSessions(ctx, options.Client, query, options.PageSize, logger)
	logger.Info().Int("sessions", len(sessions)).Str("from", query.StartDate).Str("to", query.EndDate).Msg("sessions fetched")
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	enricher := enrich.New(options.Client, enrich.NewCache(), logger)
	enricher.Workers = max(options.Workers, 1)
	if enricher.Workers > 1 {
		filmIds, attributeIds := distinctIds(aggregate.Eligible(sessions, aggOpts))
		enricher.Prefetch(ctx, filmIds, attributeIds)
	}

	if options.IncludeUpcoming {
		films, err := options.Client.Films(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("film list unavailable, upcoming films skipped")
		}
		aggOpts.Upcoming = films
	}

	feedData, stats := aggregate.Transform(ctx, sessions, enricher, aggOpts)
	logger.Info().
		Int("kept", stats.Kept).
		Int("ignored", stats.Ignored).
		Interface("reasons", stats.Reasons).
		Int("films", len(feedData.Films)).
		Int("legend", len(feedData.Legend)).
		Msg("sessions aggregated")

	doc, err := feed.Build(options.CinemaName, feedData, started)
	if err != nil {
		return nil, err
	}
	outcome, data, err := options.Writer.Write(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to write feed: %w", err)
	}

	result := &Result{
		RunId:      options.RunId,
		Outcome:    outcome,
		Checksum:   doc.Meta.Checksum,
		Films:      len(feedData.Films),
		Stats:      stats,
		Enrichment: enricher.Stats(),
	}
	logger.Info().Str("outcome", outcome.String()).Str("checksum", doc.Meta.Checksum).Str("path", options.Writer.FilePath).Msg("feed checked")

	record(ctx, options.Recorders, entities.RunLogEntry{
		RunId:    options.RunId,
		Checksum: doc.Meta.Checksum,
		Films:    result.Films,
		Sessions: stats.Sessions,
		Kept:     stats.Kept,
		Ignored:  stats.Ignored,
		Changed:  outcome == feed.Written,
		LoggedAt: started,
	}, logger)

	if outcome == feed.Written && options.Publisher != nil {
		name := filepath.Base(options.Writer.FilePath)
		if err := options.Publisher.Publish(ctx, name, data); err != nil {
			logger.Error().Err(err).Str("object", name).Msg("publish failed")
		} else {
			logger.Info().Str("object", name).Msg("feed published")
		}
	}
	return result, nil
}

// sessionWindow fills in the default window: today when no start is given,
// and WINDOW_DAYS after the start when no end is given.
func sessionWindow(options *UpdateFilmsOptions, today time.Time) (entities.SessionQuery, error) {
	query := entities.SessionQuery{
		CinemaId:     options.CinemaId,
		StartDate:    options.StartDate,
		EndDate:      options.EndDate,
		IncludeFilms: true,
	}
	if query.CinemaId == "" {
		query.CinemaId = constant.CINEMA_ID
	}
	start := today
	if query.StartDate == "" {
		query.StartDate = today.Format(constant.DAY_LAYOUT)
	} else {
		parsed, err := time.ParseInLocation(constant.DAY_LAYOUT, query.StartDate, today.Location())
		if err != nil {
			return query, fmt.Errorf("invalid start date %q: %w", query.StartDate, err)
		}
		start = parsed
	}
	if query.EndDate == "" {
		query.EndDate = start.AddDate(0, 0, constant.WINDOW_DAYS).Format(constant.DAY_LAYOUT)
	}
	return query, nil
}

// fetchSessions never fails: transport and decoding errors are logged and
// whatever was gathered so far is returned. Sessions repeated across pages
// are kept once. A page shorter than pageSize, or one that brings no new
// session, is the last one.
func fetchSessions(ctx context.Context, c client.Extractor, query entities.SessionQuery, pageSize int, logger zerolog.Logger) []entities.Session {
	if pageSize <= 0 {
		sessions, err := c.Sessions(ctx, query)
		if err != nil {
			logger.Error().Err(err).Msg("failed to fetch sessions")
			return nil
		}
		return sessions
	}

	var all []entities.Session
	seen := make(map[string]bool)
	for page := 1; page <= constant.MAX_PAGES; page++ {
		q := query
		q.PageSize = pageSize
		q.PageNumber = page
		sessions, err := c.Sessions(ctx, q)
		if err != nil {
			logger.Error().Err(err).Int("page", page).Msg("failed to fetch sessions page, stopping")
			break
		}
		added := 0
		for _, s := range sessions {
			key := sessionKey(s)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, s)
			added++
		}
		if len(sessions) < pageSize {
			break
		}
		if added == 0 {
			logger.Warn().Int("page", page).Msg("page repeated earlier sessions, upstream ignores paging")
			break
		}
	}
	return all
}

// sessionKey identifies a session across pages; the start time and film
// stand in when the upstream omits the id.
func sessionKey(s entities.Session) string {
	if s.SessionId != "" {
		return s.SessionId
	}
	return s.FilmId + "@" + s.StartTime
}

func distinctIds(sessions []entities.Session) ([]string, []string) {
	seenFilms := map[string]bool{}
	seenAttributes := map[string]bool{}
	var filmIds, attributeIds []string
	for _, s := range sessions {
		if !seenFilms[s.FilmId] {
			seenFilms[s.FilmId] = true
			filmIds = append(filmIds, s.FilmId)
		}
		for _, id := range s.AttributeIds {
			if !seenAttributes[id] {
				seenAttributes[id] = true
				attributeIds = append(attributeIds, id)
			}
		}
	}
	return filmIds, attributeIds
}

func record(ctx context.Context, recorders []persistence.Persistence, entry entities.RunLogEntry, logger zerolog.Logger) {
	for _, r := range recorders {
		if err := r.WriteRun(ctx, entry); err != nil {
			logger.Warn().Err(err).Msg("failed to record run")
		}
	}
}
