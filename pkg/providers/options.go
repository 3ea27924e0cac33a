package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Options configures a provider. Name, URL, List and DateFormat are required
// by every provider; the others depend on the federation.
type Options struct {
	// Name identifies the federation in errors and selects the implementation.
	Name string `mapstructure:"name"`
	// URL is the web site root, without trailing slash.
	URL string `mapstructure:"url"`
	// List is the results index path.
	List string `mapstructure:"list"`
	// DateFormat is the Go layout of dates published by the federation.
	DateFormat string `mapstructure:"dateFormat"`

	Details string `mapstructure:"details"`
	Clubs   string `mapstructure:"clubs"`
	Couples string `mapstructure:"couples"`
	Search  string `mapstructure:"search"`

	// Charset forces response decoding. Empty means detect from the response.
	Charset string `mapstructure:"charset"`
	// Timezone is the IANA zone dates are published in.
	Timezone string        `mapstructure:"timezone"`
	Retries  int           `mapstructure:"retries"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

var commonFields = []string{"name", "url", "list", "dateFormat"}

// DecodeOptions reads options from an untyped configuration map. Values of
// the wrong type are rejected rather than converted.
func DecodeOptions(raw interface{}) (Options, error) {
	var opts Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &opts,
	})
	if err != nil {
		return opts, err
	}
	if err := decoder.Decode(raw); err != nil {
		return opts, &ValidationError{Reason: err.Error()}
	}
	return opts, nil
}

// Validate checks the common required fields plus the extra ones.
func (o Options) Validate(extra ...string) error {
	for _, field := range append(append([]string{}, commonFields...), extra...) {
		if strings.TrimSpace(o.field(field)) == "" {
			return &ValidationError{Provider: o.Name, Field: field, Reason: "is required"}
		}
	}
	if o.Retries < 0 {
		return &ValidationError{Provider: o.Name, Field: "retries", Reason: "must be positive"}
	}
	if o.Timezone != "" {
		if _, err := time.LoadLocation(o.Timezone); err != nil {
			return &ValidationError{Provider: o.Name, Field: "timezone", Reason: err.Error()}
		}
	}
	return nil
}

// ValidateTemplate checks that the URL template in field formats exactly one
// argument of the type of sample, e.g. "%s" for a string or "%[1]d" for an int.
func (o Options) ValidateTemplate(field string, sample interface{}) error {
	verb := "%s"
	if _, ok := sample.(int); ok {
		verb = "%d"
	}
	out := fmt.Sprintf(o.field(field), sample)
	if strings.Contains(out, "%!") || !strings.Contains(out, fmt.Sprint(sample)) {
		return &ValidationError{Provider: o.Name, Field: field, Reason: fmt.Sprintf("must contain a single %s argument, got %q", verb, o.field(field))}
	}
	return nil
}

// Location returns the federation's time zone, fallback when none is configured.
func (o Options) Location(fallback *time.Location) *time.Location {
	if o.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Endpoint joins the site root and a relative path.
func (o Options) Endpoint(path string) string {
	return strings.TrimSuffix(o.URL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (o Options) field(name string) string {
	switch name {
	case "name":
		return o.Name
	case "url":
		return o.URL
	case "list":
		return o.List
	case "dateFormat":
		return o.DateFormat
	case "details":
		return o.Details
	case "clubs":
		return o.Clubs
	case "couples":
		return o.Couples
	case "search":
		return o.Search
	}
	return ""
}
