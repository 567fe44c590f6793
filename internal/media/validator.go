package media

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cuongbtq/redditlink/internal/job"
)

// DefaultAllowedDomains lists the hosts media may be fetched from
var DefaultAllowedDomains = []string{
	// Reddit
	"reddit.com", "www.reddit.com", "old.reddit.com", "redd.it",
	// YouTube
	"youtube.com", "www.youtube.com", "youtu.be", "m.youtube.com",
	// Twitter/X
	"twitter.com", "x.com", "t.co",
}

// Validator checks submitted URLs against an allow-list and quality
// selectors against the format table.
type Validator struct {
	allowed map[string]struct{}
}

// NewValidator creates a validator. An empty list falls back to
// DefaultAllowedDomains.
func NewValidator(domains []string) *Validator {
	if len(domains) == 0 {
		domains = DefaultAllowedDomains
	}
	allowed := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		allowed[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return &Validator{allowed: allowed}
}

// ValidateURL accepts only http(s) URLs whose authority is allow-listed
func (v *Validator) ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return job.NewValidationError("invalid URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return job.NewValidationError("only HTTP/HTTPS URLs are allowed")
	}

	if _, ok := v.allowed[strings.ToLower(u.Host)]; !ok {
		return job.NewValidationError(fmt.Sprintf(
			"URL not supported. Allowed: Reddit, YouTube, Twitter/X. Got: %q", u.Host,
		))
	}
	return nil
}

// ValidateQuality rejects selectors missing from the format table
func (v *Validator) ValidateQuality(quality string) error {
	if _, ok := FormatFor(quality); !ok {
		return job.NewValidationError(fmt.Sprintf(
			"invalid quality: %q (allowed: %s)", quality, strings.Join(Qualities(), ", "),
		))
	}
	return nil
}
