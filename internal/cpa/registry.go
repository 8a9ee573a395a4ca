package cpa

import (
	"errors"
	"strings"

	"offerwall/internal/config"
)

var ErrUnknownProvider = errors.New("unknown provider")

// Registry holds the configured network adapters keyed by name.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry builds adapters for every network with credentials present.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{providers: map[string]Provider{}}
	for _, p := range []Provider{
		NewCPAGrip(cfg.CPAGrip, cfg.MarginPercent),
		NewOGAds(cfg.OGAds, cfg.MarginPercent),
		NewAdGate(cfg.AdGate, cfg.MarginPercent),
	} {
		if p.Configured() {
			r.providers[p.Name()] = p
			r.order = append(r.order, p.Name())
		}
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToUpper(name)]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// All returns the configured providers in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}
