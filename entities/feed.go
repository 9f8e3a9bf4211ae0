package entities

import "time"

// Showing is one screening inside a film's daily schedule.
type Showing struct {
	Time           string   `json:"heure"`
	Attributes     []string `json:"attributs"`
	SeatsAvailable int      `json:"places"`
	IsSoldOut      bool     `json:"complet"`
}

// Schedule maps an ISO day ("2006-01-02") to its showings. encoding/json
// writes map keys sorted, so days come out in calendar order.
type Schedule map[string][]Showing

type FilmAggregate struct {
	FilmId             string   `json:"id"`
	Title              string   `json:"titre"`
	Synopsis           string   `json:"synopsis"`
	Rating             string   `json:"classification"`
	DurationMinutes    int      `json:"duree"`
	Genres             []string `json:"genre"`
	Format             string   `json:"format"`
	OpeningDate        string   `json:"date_sortie"`
	PosterUrl          string   `json:"poster"`
	ThumbnailUrl       string   `json:"vignette"`
	BackdropUrl        string   `json:"arriere_plan"`
	TrailerUrl         string   `json:"bande_annonce"`
	Content            string   `json:"contenu"`
	FirstShowTimestamp *string  `json:"premiere_seance"`
	LastShowTimestamp  *string  `json:"derniere_seance"`
	Schedule           Schedule `json:"horaire"`
}

type LegendEntry struct {
	AttributeId     string `json:"id"`
	ShortName       string `json:"nom"`
	Description     string `json:"description"`
	FontColor       string `json:"couleur_texte"`
	BackgroundColor string `json:"couleur_fond"`
}

// Feed is the checksummed part of the output document.
type Feed struct {
	Legend []LegendEntry    `json:"legende"`
	Films  []*FilmAggregate `json:"films"`
}

type Meta struct {
	Checksum    string `json:"checksum"`
	GeneratedAt string `json:"derniere_mise_a_jour"`
}

type OutputDocument struct {
	CinemaName string           `json:"cinema"`
	Legend     []LegendEntry    `json:"legende"`
	Films      []*FilmAggregate `json:"films"`
	Meta       Meta             `json:"_meta"`
}

// RunLogEntry records the outcome of one run.
type RunLogEntry struct {
	RunId    string    `json:"runId"`
	Checksum string    `json:"checksum"`
	Films    int       `json:"films"`
	Sessions int       `json:"sessions"`
	Kept     int       `json:"kept"`
	Ignored  int       `json:"ignored"`
	Changed  bool      `json:"changed"`
	LoggedAt time.Time `json:"loggedAt"`
}
