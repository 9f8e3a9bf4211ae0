package constant

import "time"

const (
	API_URL        = "https://api.us.veezi.com"
	SESSIONS_PATH  = "/v1/session"
	FILM_PATH      = "/v1/film/%s"
	FILMS_PATH     = "/v1/film"
	ATTRIBUTE_PATH = "/v1/attribute/%s"

	TOKEN_HEADER = "VeeziAccessToken"

	CINEMA_ID     = "0"
	CINEMA_NAME   = "Cinéma Centre-Ville"
	OUTPUT_FILE   = "films.json"
	CINEMA_TZ     = "America/Toronto"
	WEB_CHANNEL   = "WWW"
	STATUS_OPEN   = "Open"
	SHOW_PUBLIC   = "Public"
	LABEL_SOLD    = "COMPLET"
	LABEL_3D      = "3D"
	FORMAT_3D     = "3D Digital"
	DAY_LAYOUT    = "2006-01-02"
	HOUR_LAYOUT   = "15:04"
	LOCAL_LAYOUT  = "2006-01-02T15:04:05"
	MAX_PAGES     = 1000
	WINDOW_DAYS   = 30
	LOW_SEATS     = 11
	DEFAULT_LEAD  = 0 * time.Minute
	REQUEST_LIMIT = 10 * time.Second
)
