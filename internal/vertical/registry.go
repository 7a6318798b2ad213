package vertical

import (
	"fmt"
	"sort"
)

// Registry keeps a mapping from vertical names to their built profiles.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: map[string]*Profile{}}
}

// Register adds or replaces a profile.
func (r *Registry) Register(profile *Profile) {
	if r.profiles == nil {
		r.profiles = map[string]*Profile{}
	}
	r.profiles[profile.Name] = profile
}

// Resolve returns a profile by name or an error if it is absent.
func (r *Registry) Resolve(name string) (*Profile, error) {
	if profile, ok := r.profiles[name]; ok {
		return profile, nil
	}
	return nil, fmt.Errorf("vertical %s is not registered", name)
}

// Names lists registered verticals in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
