package entities

// Session is one scheduled screening as returned by the sessions endpoint.
// The film fields are the copies the upstream embeds in every session; they
// are only used when the film lookup comes back empty.
type Session struct {
	SessionId      string   `json:"Id"`
	FilmId         string   `json:"FilmId"`
	StartTime      string   `json:"FeatureStartTime"`
	Status         string   `json:"Status"`
	SalesChannels  []string `json:"SalesVia"`
	ShowType       string   `json:"ShowType"`
	SeatsAvailable int      `json:"SeatsAvailable"`
	SoldOut        bool     `json:"SoldOut"`
	AttributeIds   []string `json:"Attributes"`

	FilmTitle    string   `json:"Title"`
	FilmFormat   string   `json:"FilmFormat"`
	Rating       string   `json:"Rating"`
	Duration     int      `json:"Duration"`
	Genres       []string `json:"Genres"`
	FilmImageUrl string   `json:"FilmImageUrl"`
}

// SessionQuery holds the optional query parameters of the sessions endpoint.
// Zero values are left out of the request.
type SessionQuery struct {
	CinemaId   string
	StartDate  string
	EndDate    string
	PageSize   int
	PageNumber int
	// IncludeFilms asks the upstream to embed the film fields in each session.
	IncludeFilms bool
}
