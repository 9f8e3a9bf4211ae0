package entities

import "strings"

type FilmDetails struct {
	FilmId          string   `json:"Id"`
	Title           string   `json:"Title"`
	Synopsis        string   `json:"Synopsis"`
	Rating          string   `json:"Rating"`
	DurationMinutes int      `json:"Duration"`
	Genres          []string `json:"Genres"`
	Format          string   `json:"Format"`
	OpeningDate     string   `json:"OpeningDate"`
	Status          string   `json:"Status"`
	PosterUrl       string   `json:"FilmPosterUrl"`
	ThumbnailUrl    string   `json:"FilmPosterThumbnailUrl"`
	BackdropUrl     string   `json:"BackdropImageUrl"`
	TrailerUrl      string   `json:"FilmTrailerUrl"`
	Content         string   `json:"Content"`
}

// IsEmpty reports whether the lookup produced nothing usable.
func (f FilmDetails) IsEmpty() bool {
	return f.FilmId == "" && f.Title == ""
}

// Is3D reports whether the presentation format is the 3D digital one.
func (f FilmDetails) Is3D() bool {
	return strings.Contains(strings.ToLower(f.Format), "3d digital")
}

type AttributeDetails struct {
	AttributeId     string `json:"Id"`
	ShortName       string `json:"ShortName"`
	Description     string `json:"Description"`
	FontColor       string `json:"FontColor"`
	BackgroundColor string `json:"BackgroundColor"`
}

func (a AttributeDetails) IsEmpty() bool {
	return a.AttributeId == "" && a.ShortName == ""
}
