package pubmed

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the E-utilities endpoint
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"
	// DefaultTool identifies this application to NCBI
	DefaultTool = "vaxdash"
	// DefaultTimeout is the HTTP timeout of one call
	DefaultTimeout = 30 * time.Second
	// maxResponseSize is the maximum allowed response size (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

// Errors for E-utilities configuration
var (
	ErrConfigMissingEmail   = errors.New("pubmed: contact email is required")
	ErrConfigInvalidBaseURL = errors.New("pubmed: invalid base url")
)

// Config holds E-utilities settings. NCBI asks every client to send a
// contact email and a tool name with each request.
type Config struct {
	// BaseURL is the E-utilities root, ending with a slash
	BaseURL string
	// Email is the contact address sent as the email parameter
	Email string
	// Tool is the application name sent as the tool parameter
	Tool string
	// APIKey raises the NCBI rate limit when set
	APIKey string
	// Database is the Entrez database searched (default pubmed)
	Database string
	// Timeout is the HTTP timeout of one call
	Timeout time.Duration
}

// NewConfig creates a configuration with defaults
func NewConfig(email string) *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		Email:    email,
		Tool:     DefaultTool,
		Database: "pubmed",
		Timeout:  DefaultTimeout,
	}
}

// Validate checks the configuration and fills in defaults for zero values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrConfigMissingEmail
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.Database == "" {
		c.Database = "pubmed"
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
