package owid

import (
	"errors"
	"net/url"
	"time"
)

const (
	// DefaultDataURL is the complete per-country dataset
	DefaultDataURL = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/owid-covid-data.json"
	// DefaultLocationsURL is the vaccination metadata table
	DefaultLocationsURL = "https://raw.githubusercontent.com/owid/covid-19-data/master/public/data/vaccinations/locations.csv"
	// DefaultMaxBodyBytes bounds a single download (the full dataset is large)
	DefaultMaxBodyBytes int64 = 512 * 1024 * 1024
	// DefaultTimeout is the HTTP timeout of one download
	DefaultTimeout = 2 * time.Minute
)

// Errors for source configuration
var (
	ErrConfigMissingDataURL      = errors.New("owid: data url is required")
	ErrConfigMissingLocationsURL = errors.New("owid: locations url is required")
	ErrConfigInvalidURL          = errors.New("owid: invalid url")
)

// Config holds the download locations of the published datasets
type Config struct {
	// DataURL is the JSON document keyed by ISO code
	DataURL string
	// LocationsURL is the CSV table listing approved vaccines per country
	LocationsURL string
	// Timeout is the HTTP timeout of one download
	Timeout time.Duration
	// MaxBodyBytes limits the size of a response body
	MaxBodyBytes int64
	// UserAgent is sent with every request when set
	UserAgent string
}

// NewConfig creates a configuration pointing at the public datasets
func NewConfig() *Config {
	return &Config{
		DataURL:      DefaultDataURL,
		LocationsURL: DefaultLocationsURL,
		Timeout:      DefaultTimeout,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Validate checks the configuration and fills in defaults for zero values
func (c *Config) Validate() error {
	if c.DataURL == "" {
		return ErrConfigMissingDataURL
	}
	if c.LocationsURL == "" {
		return ErrConfigMissingLocationsURL
	}
	for _, raw := range []string{c.DataURL, c.LocationsURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ErrConfigInvalidURL
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return nil
}
