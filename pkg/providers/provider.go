// Package providers defines what a federation provider offers and the
// options, errors and logging contract all providers share.
package providers

import (
	"context"

	"github.com/palmares-dance/palmares/pkg/competition"
)

// Provider extracts competitions published by one federation web site.
// Only read operations are supported.
type Provider interface {
	Name() string
	// ListResults returns the headers (no contests) of the competitions of
	// the season or year starting in year, merged and sorted by date.
	ListResults(ctx context.Context, year int) ([]*competition.Competition, error)
	// GetDetails fetches every contest ranking reachable from the
	// competition's data urls and stores them in its Contests.
	GetDetails(ctx context.Context, c *competition.Competition) (*competition.Competition, error)
}

// Directory is implemented by providers that can look up clubs (or
// countries) and couples.
type Directory interface {
	SearchGroups(ctx context.Context, query string) ([]string, error)
	GetGroupCouples(ctx context.Context, group string) ([]string, error)
	SearchCouples(ctx context.Context, query string) ([]string, error)
}

// DirectoryOf returns p's directory, or a NotImplementedError naming feature.
func DirectoryOf(p Provider, feature string) (Directory, error) {
	if d, ok := p.(Directory); ok {
		return d, nil
	}
	return nil, &NotImplementedError{Provider: p.Name(), Feature: feature}
}

// Logger abstracts logging so callers can plug logrus or anything alike.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NopLogger silently discards all messages.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Infof(string, ...interface{})  {}
func (NopLogger) Warnf(string, ...interface{})  {}
func (NopLogger) Errorf(string, ...interface{}) {}
