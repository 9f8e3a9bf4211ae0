package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paologalligit/films-feed/constant"
	"github.com/paologalligit/films-feed/entities"
)

// ErrNotJSON is returned when the upstream answers with another content type.
var ErrNotJSON = errors.New("response is not json")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Url        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.Url)
}

type Extractor interface {
	Sessions(ctx context.Context, query entities.SessionQuery) ([]entities.Session, error)
	Film(ctx context.Context, filmId string) (*entities.FilmDetails, error)
	Films(ctx context.Context) ([]entities.FilmDetails, error)
	Attribute(ctx context.Context, attributeId string) (*entities.AttributeDetails, error)
}

type ExtractorClient struct {
	client  *http.Client
	baseUrl string
	token   string
}

type Options struct {
	BaseUrl   string
	Token     string
	Transport http.RoundTripper
	Timeout   time.Duration
}

func New(options *Options) *ExtractorClient {
	httpClient := &http.Client{Timeout: options.Timeout}
	if options.Transport != nil {
		httpClient.Transport = options.Transport
	}
	return &ExtractorClient{
		client:  httpClient,
		baseUrl: strings.TrimRight(options.BaseUrl, "/"),
		token:   options.Token,
	}
}

// Sessions fetches one page of sessions (or all of them when the query has
// no page size).
func (c *ExtractorClient) Sessions(ctx context.Context, query entities.SessionQuery) ([]entities.Session, error) {
	params := url.Values{}
	if query.CinemaId != "" {
		params.Set("cinemaId", query.CinemaId)
	}
	if query.IncludeFilms {
		params.Set("includeFilms", "true")
	}
	if query.StartDate != "" {
		params.Set("startDate", query.StartDate)
	}
	if query.EndDate != "" {
		params.Set("endDate", query.EndDate)
	}
	if query.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(query.PageSize))
		params.Set("pageNumber", strconv.Itoa(max(query.PageNumber, 1)))
	}
	var sessions []entities.Session
	if err := c.getJSON(ctx, constant.SESSIONS_PATH, params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *ExtractorClient) Film(ctx context.Context, filmId string) (*entities.FilmDetails, error) {
	var film entities.FilmDetails
	if err := c.getJSON(ctx, fmt.Sprintf(constant.FILM_PATH, url.PathEscape(filmId)), nil, &film); err != nil {
		return nil, err
	}
	return &film, nil
}

func (c *ExtractorClient) Films(ctx context.Context) ([]entities.FilmDetails, error) {
	var films []entities.FilmDetails
	if err := c.getJSON(ctx, constant.FILMS_PATH, nil, &films); err != nil {
		return nil, err
	}
	return films, nil
}

func (c *ExtractorClient) Attribute(ctx context.Context, attributeId string) (*entities.AttributeDetails, error) {
	var attribute entities.AttributeDetails
	if err := c.getJSON(ctx, fmt.Sprintf(constant.ATTRIBUTE_PATH, url.PathEscape(attributeId)), nil, &attribute); err != nil {
		return nil, err
	}
	return &attribute, nil
}

func (c *ExtractorClient) HTTPClient() *http.Client {
	return c.client
}

func (c *ExtractorClient) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	target := c.baseUrl + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	body, err := c.doGet(ctx, target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", target, err)
	}
	return nil
}

// doGet is an internal helper for GET requests
func (c *ExtractorClient) doGet(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(constant.TOKEN_HEADER, c.token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Url: target, StatusCode: resp.StatusCode}
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || (mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json")) {
		return nil, fmt.Errorf("%s: %w", target, ErrNotJSON)
	}
	return io.ReadAll(resp.Body)
}
