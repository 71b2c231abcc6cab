package persona

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Registry holds the fixed persona table plus per-persona availability.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	personas  map[string]*Persona
	order     []string // registration order, used for stable iteration
	available map[string]bool
	logger    zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		personas:  make(map[string]*Persona),
		available: make(map[string]bool),
		logger:    logger.With().Str("component", "persona.registry").Logger(),
	}
}

// Register adds a persona. Returns an error if the ID is already taken.
func (r *Registry) Register(p *Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.personas[p.ID]; exists {
		return fmt.Errorf("registry: persona %q already registered", p.ID)
	}
	r.personas[p.ID] = p
	r.order = append(r.order, p.ID)
	r.available[p.ID] = true
	r.logger.Info().Str("id", p.ID).Str("role", string(p.Role)).Msg("persona registered")
	return nil
}

// Get returns the persona with the given ID, or false if not found.
func (r *Registry) Get(id string) (*Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.personas[id]
	return p, ok
}

// All returns all personas in registration order.
func (r *Registry) All() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.personas[id])
	}
	return out
}

// ByRole returns all personas of the given role, in registration order.
func (r *Registry) ByRole(role Role) []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Persona
	for _, id := range r.order {
		if p := r.personas[id]; p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// FirstAvailableByRole returns the first available persona of the role,
// skipping busy ones. Returns nil when every persona of the role is busy
// or the role has no personas.
func (r *Registry) FirstAvailableByRole(role Role) *Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		p := r.personas[id]
		if p.Role == role && r.available[id] {
			return p
		}
	}
	return nil
}

// IsAvailable reports the availability flag for a persona.
func (r *Registry) IsAvailable(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available[id]
}

// MarkBusy flags a persona as unavailable for routing.
func (r *Registry) MarkBusy(id string) {
	r.SetAvailability(id, false)
}

// SetAvailability toggles a persona's availability flag.
func (r *Registry) SetAvailability(id string, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.personas[id]; !ok {
		return
	}
	r.available[id] = available
	r.logger.Debug().Str("id", id).Bool("available", available).Msg("persona availability changed")
}

// AliasTable returns the name-reference lookup table for the mention
// extractor: lowercased display names, display names with internal
// whitespace removed, and role names, each mapped to a persona ID.
// The first registered persona wins a contested alias.
func (r *Registry) AliasTable() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := make(map[string]string)
	add := func(alias, id string) {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			return
		}
		if _, taken := table[alias]; !taken {
			table[alias] = id
		}
	}

	for _, id := range r.order {
		p := r.personas[id]
		add(p.DisplayName, id)
		add(strings.ReplaceAll(p.DisplayName, " ", ""), id)
		add(string(p.Role), id)
		add(strings.ReplaceAll(string(p.Role), "_", ""), id)
		add(strings.ReplaceAll(string(p.Role), "_", " "), id)
	}
	return table
}

// Count returns the number of registered personas.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
