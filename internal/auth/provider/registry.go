package provider

import (
	"errors"
	"fmt"
	"slices"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
)

var ErrDuplicateProvider = errors.New("provider already registered")

// Registry maps provider names to adapters. It is filled at startup and
// read-only afterwards.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers every provider in ps.
func NewRegistry(ps ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p under p.Name().
func (r *Registry) Register(p Provider) error {
	name := p.Name()
	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}
	r.providers[name] = p
	return nil
}

// Get returns domain.ErrUnsupportedProvider, naming the provider, for
// unknown names.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, domain.ErrUnsupportedProvider.WithMessage("Unsupported Provider %q", name)
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ConfigAll runs every provider's Config and stops at the first failure.
func (r *Registry) ConfigAll() error {
	for _, name := range r.Names() {
		if err := r.providers[name].Config(); err != nil {
			return fmt.Errorf("provider %s: %w", name, err)
		}
	}
	return nil
}
