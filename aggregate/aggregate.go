package aggregate

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/paologalligit/films-feed/constant"
	"github.com/paologalligit/films-feed/entities"
	"github.com/paologalligit/films-feed/utils"
)

// Reasons a session is left out of the feed.
const (
	ReasonChannel  = "channel"
	ReasonStatus   = "status"
	ReasonShowType = "show_type"
	ReasonPast     = "past"
	ReasonBadTime  = "bad_time"
)

// DetailSource resolves film and attribute metadata. It never fails: a
// missing detail comes back as the zero value.
type DetailSource interface {
	Film(ctx context.Context, filmId string) entities.FilmDetails
	Attribute(ctx context.Context, attributeId string) entities.AttributeDetails
}

type Options struct {
	Now               time.Time
	LeadTime          time.Duration
	Location          *time.Location
	LowSeatsThreshold int
	LegendExclude     []string
	// Upcoming films are added without showings when they open after Now
	// and no session of theirs survived the filter.
	Upcoming []entities.FilmDetails
}

type Stats struct {
	Sessions int
	Kept     int
	Ignored  int
	Reasons  map[string]int
}

type timedShowing struct {
	start   time.Time
	showing entities.Showing
}

type filmBuild struct {
	film    *entities.FilmAggregate
	is3D    bool
	days    map[string][]timedShowing
	first   time.Time
	last    time.Time
	shows   int
	opening time.Time
}

type aggregator struct {
	opts      Options
	details   DetailSource
	threshold time.Time
	films     map[string]*filmBuild
	order     []*filmBuild
	legend    map[string]entities.AttributeDetails
	stats     Stats
}

// Transform filters the sessions, groups them by film and returns the sorted
// feed together with counts of what was kept and dropped.
func Transform(ctx context.Context, sessions []entities.Session, details DetailSource, opts Options) (*entities.Feed, Stats) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	a := &aggregator{
		opts:      opts,
		details:   details,
		threshold: opts.Now.Add(opts.LeadTime),
		films:     make(map[string]*filmBuild),
		legend:    make(map[string]entities.AttributeDetails),
		stats:     Stats{Sessions: len(sessions), Reasons: make(map[string]int)},
	}

	for _, s := range sessions {
		start, reason := a.accept(s)
		if reason != "" {
			a.stats.Ignored++
			a.stats.Reasons[reason]++
			continue
		}
		a.stats.Kept++
		a.add(ctx, s, start)
	}
	a.addUpcoming()

	return &entities.Feed{
		Legend: a.sortedLegend(),
		Films:  a.sortedFilms(),
	}, a.stats
}

// Eligible returns the sessions that pass the inclusion rules, in input order.
func Eligible(sessions []entities.Session, opts Options) []entities.Session {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	a := &aggregator{opts: opts, threshold: opts.Now.Add(opts.LeadTime)}
	var kept []entities.Session
	for _, s := range sessions {
		if _, reason := a.accept(s); reason == "" {
			kept = append(kept, s)
		}
	}
	return kept
}

// accept applies the inclusion rules and returns the parsed start time, or
// the reason the session is dropped.
func (a *aggregator) accept(s entities.Session) (time.Time, string) {
	if !hasChannel(s.SalesChannels, constant.WEB_CHANNEL) {
		return time.Time{}, ReasonChannel
	}
	if !strings.EqualFold(s.Status, constant.STATUS_OPEN) {
		return time.Time{}, ReasonStatus
	}
	if s.ShowType != "" && !strings.EqualFold(s.ShowType, constant.SHOW_PUBLIC) {
		return time.Time{}, ReasonShowType
	}
	start, err := ParseStartTime(s.StartTime, a.opts.Location)
	if err != nil {
		return time.Time{}, ReasonBadTime
	}
	if !start.After(a.threshold) {
		return time.Time{}, ReasonPast
	}
	return start, ""
}

func (a *aggregator) add(ctx context.Context, s entities.Session, start time.Time) {
	fb, ok := a.films[s.FilmId]
	if !ok {
		fb = a.newFilm(ctx, s)
		a.films[s.FilmId] = fb
		a.order = append(a.order, fb)
	}

	showing := entities.Showing{
		Time:           start.Format(constant.HOUR_LAYOUT),
		Attributes:     a.labels(ctx, s, fb.is3D),
		SeatsAvailable: s.SeatsAvailable,
		IsSoldOut:      s.SoldOut,
	}
	day := start.Format(constant.DAY_LAYOUT)
	fb.days[day] = append(fb.days[day], timedShowing{start: start, showing: showing})

	if fb.shows == 0 || start.Before(fb.first) {
		fb.first = start
	}
	if fb.shows == 0 || start.After(fb.last) {
		fb.last = start
	}
	fb.shows++
}

func (a *aggregator) newFilm(ctx context.Context, s entities.Session) *filmBuild {
	d := a.details.Film(ctx, s.FilmId)
	film := &entities.FilmAggregate{
		FilmId:          s.FilmId,
		Title:           firstNonEmpty(d.Title, s.FilmTitle),
		Synopsis:        d.Synopsis,
		Rating:          firstNonEmpty(d.Rating, s.Rating),
		DurationMinutes: d.DurationMinutes,
		Genres:          d.Genres,
		Format:          firstNonEmpty(d.Format, s.FilmFormat),
		OpeningDate:     d.OpeningDate,
		PosterUrl:       firstNonEmpty(d.PosterUrl, s.FilmImageUrl),
		ThumbnailUrl:    d.ThumbnailUrl,
		BackdropUrl:     d.BackdropUrl,
		TrailerUrl:      d.TrailerUrl,
		Content:         d.Content,
	}
	if film.DurationMinutes == 0 {
		film.DurationMinutes = s.Duration
	}
	if len(film.Genres) == 0 {
		film.Genres = s.Genres
	}
	return &filmBuild{
		film:    film,
		is3D:    entities.FilmDetails{Format: film.Format}.Is3D(),
		days:    make(map[string][]timedShowing),
		opening: a.parseOpening(film.OpeningDate),
	}
}

func (a *aggregator) addUpcoming() {
	for _, d := range a.opts.Upcoming {
		if d.FilmId == "" {
			continue
		}
		if _, ok := a.films[d.FilmId]; ok {
			continue
		}
		opening := a.parseOpening(d.OpeningDate)
		if opening.IsZero() || !opening.After(a.opts.Now) {
			continue
		}
		fb := &filmBuild{
			film: &entities.FilmAggregate{
				FilmId:          d.FilmId,
				Title:           d.Title,
				Synopsis:        d.Synopsis,
				Rating:          d.Rating,
				DurationMinutes: d.DurationMinutes,
				Genres:          d.Genres,
				Format:          d.Format,
				OpeningDate:     d.OpeningDate,
				PosterUrl:       d.PosterUrl,
				ThumbnailUrl:    d.ThumbnailUrl,
				BackdropUrl:     d.BackdropUrl,
				TrailerUrl:      d.TrailerUrl,
				Content:         d.Content,
			},
			days:    make(map[string][]timedShowing),
			opening: opening,
		}
		a.films[d.FilmId] = fb
		a.order = append(a.order, fb)
	}
}

func (a *aggregator) sortedFilms() []*entities.FilmAggregate {
	builds := append([]*filmBuild(nil), a.order...)
	sort.SliceStable(builds, func(i, j int) bool {
		return filmLess(builds[i], builds[j])
	})

	films := make([]*entities.FilmAggregate, 0, len(builds))
	for _, fb := range builds {
		film := fb.film
		if film.Genres == nil {
			film.Genres = []string{}
		}
		film.Schedule = make(entities.Schedule, len(fb.days))
		for day, shows := range fb.days {
			sort.SliceStable(shows, func(i, j int) bool {
				return shows[i].start.Before(shows[j].start)
			})
			list := make([]entities.Showing, len(shows))
			for i, s := range shows {
				list[i] = s.showing
			}
			film.Schedule[day] = list
		}
		if fb.shows > 0 {
			first := fb.first.Format(time.RFC3339)
			last := fb.last.Format(time.RFC3339)
			film.FirstShowTimestamp = &first
			film.LastShowTimestamp = &last
		}
		films = append(films, film)
	}
	return films
}

// filmLess orders by next showtime, then films without showings by opening
// date, then by folded title.
func filmLess(a, b *filmBuild) bool {
	aShows, bShows := a.shows > 0, b.shows > 0
	if aShows != bShows {
		return aShows
	}
	if aShows {
		if !a.first.Equal(b.first) {
			return a.first.Before(b.first)
		}
	} else if !a.opening.Equal(b.opening) {
		// unknown opening dates go last
		if a.opening.IsZero() || b.opening.IsZero() {
			return b.opening.IsZero()
		}
		return a.opening.Before(b.opening)
	}
	return utils.FoldKey(a.film.Title) < utils.FoldKey(b.film.Title)
}

func (a *aggregator) sortedLegend() []entities.LegendEntry {
	legend := make([]entities.LegendEntry, 0, len(a.legend))
	for _, attr := range a.legend {
		if a.excluded(attr.ShortName) {
			continue
		}
		legend = append(legend, entities.LegendEntry{
			AttributeId:     attr.AttributeId,
			ShortName:       attr.ShortName,
			Description:     attr.Description,
			FontColor:       attr.FontColor,
			BackgroundColor: attr.BackgroundColor,
		})
	}
	sort.Slice(legend, func(i, j int) bool {
		if legend[i].ShortName != legend[j].ShortName {
			return utils.LessFold(legend[i].ShortName, legend[j].ShortName)
		}
		return legend[i].AttributeId < legend[j].AttributeId
	})
	return legend
}

func (a *aggregator) excluded(shortName string) bool {
	for _, name := range a.opts.LegendExclude {
		if strings.EqualFold(name, shortName) {
			return true
		}
	}
	return false
}

func (a *aggregator) parseOpening(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := ParseStartTime(value, a.opts.Location)
	if err != nil {
		if t, err = time.ParseInLocation(constant.DAY_LAYOUT, value, a.opts.Location); err != nil {
			return time.Time{}
		}
	}
	return t
}

// ParseStartTime reads the upstream's local timestamps ("2006-01-02T15:04:05",
// taken to be in loc) and RFC3339 ones, which are converted to loc.
func ParseStartTime(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constant.LOCAL_LAYOUT, value, loc)
	if err == nil {
		return t, nil
	}
	t, rfcErr := time.Parse(time.RFC3339, value)
	if rfcErr != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func hasChannel(channels []string, want string) bool {
	for _, c := range channels {
		if strings.EqualFold(strings.TrimSpace(c), want) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
