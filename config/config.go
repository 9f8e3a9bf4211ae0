package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/paologalligit/films-feed/constant"
	"github.com/paologalligit/films-feed/utils"
)

var ErrMissingToken = errors.New("VEEZI_ACCESS_TOKEN is not set")

type Config struct {
	Token             string        `validate:"required"`
	ApiUrl            string        `validate:"required,url"`
	CinemaId          string        `validate:"required"`
	CinemaName        string        `validate:"required"`
	OutputPath        string        `validate:"required"`
	Timezone          string        `validate:"required"`
	LowSeatsThreshold int           `validate:"gte=0"`
	LeadTime          time.Duration `validate:"gte=0"`
	LegendExclude     []string
	RequestTimeout    time.Duration `validate:"gt=0"`
	PageSize          int           `validate:"gte=0"`
	Workers           int           `validate:"gte=1,lte=64"`
	ProxyUrl          string        `validate:"omitempty,url"`
	DatabaseUrl       string
	RunLog            string
	GCSBucket         string
	IncludeUpcoming   bool
	LogLevel          string `validate:"oneof=debug info warn error"`
	StartDate         string `validate:"omitempty,datetime=2006-01-02"`
	EndDate           string `validate:"omitempty,datetime=2006-01-02"`

	Location *time.Location `validate:"-"`
}

// Load reads envFile (or .env when empty, if present) into the process
// environment and builds the configuration from it. Variables already set
// in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load() // Load .env if present, ignore error
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from lookup, applying defaults.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := &Config{
		Token:         get("VEEZI_ACCESS_TOKEN", ""),
		ApiUrl:        get("VEEZI_API_URL", constant.API_URL),
		CinemaId:      get("CINEMA_ID", constant.CINEMA_ID),
		CinemaName:    get("CINEMA_NAME", constant.CINEMA_NAME),
		OutputPath:    get("OUTPUT_PATH", constant.OUTPUT_FILE),
		Timezone:      get("CINEMA_TIMEZONE", constant.CINEMA_TZ),
		LegendExclude: utils.SplitList(get("LEGEND_EXCLUDE", "")),
		ProxyUrl:      get("PROXY_URL", ""),
		DatabaseUrl:   get("DATABASE_URL", ""),
		RunLog:        get("RUN_LOG", ""),
		GCSBucket:     get("GCS_BUCKET", ""),
		LogLevel:      strings.ToLower(get("LOG_LEVEL", "info")),
		StartDate:     get("SESSION_START_DATE", ""),
		EndDate:       get("SESSION_END_DATE", ""),
	}
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}

	var errs []error
	cfg.LowSeatsThreshold = parseInt(get("LOW_SEATS_THRESHOLD", strconv.Itoa(constant.LOW_SEATS)), "LOW_SEATS_THRESHOLD", &errs)
	cfg.PageSize = parseInt(get("PAGE_SIZE", "0"), "PAGE_SIZE", &errs)
	cfg.Workers = parseInt(get("WORKERS", "1"), "WORKERS", &errs)
	cfg.LeadTime = parseDuration(get("LEAD_TIME", constant.DEFAULT_LEAD.String()), "LEAD_TIME", &errs)
	cfg.RequestTimeout = parseDuration(get("REQUEST_TIMEOUT", constant.REQUEST_LIMIT.String()), "REQUEST_TIMEOUT", &errs)
	if v := get("INCLUDE_UPCOMING", "false"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("INCLUDE_UPCOMING: %w", err))
		}
		cfg.IncludeUpcoming = b
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and resolves the time zone. It is also
// called again after command line flags override fields.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid CINEMA_TIMEZONE %q: %w", c.Timezone, err)
	}
	c.Location = loc
	if c.StartDate != "" && c.EndDate != "" && c.EndDate < c.StartDate {
		return fmt.Errorf("invalid configuration: end date %s is before start date %s", c.EndDate, c.StartDate)
	}
	return nil
}

func parseInt(value, key string, errs *[]error) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return n
}

func parseDuration(value, key string, errs *[]error) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return d
}
