package platforms

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// Registry holds the known platform profiles
type Registry struct {
	profiles map[string]Profile
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		profiles: make(map[string]Profile),
		logger:   logger,
	}
}

// DefaultRegistry returns a registry with every built-in profile
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for _, p := range Builtin() {
		// Builtin names are unique.
		_ = r.Register(p)
	}
	return r
}

// Register adds a profile
func (r *Registry) Register(p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.Name]; exists {
		return fmt.Errorf("platform %s already registered", p.Name)
	}
	r.profiles[p.Name] = p
	r.logger.Debug("registered platform",
		slog.String("platform", p.Name),
		slog.String("display_name", p.DisplayName),
		slog.String("side", string(p.Side)),
	)
	return nil
}

// Get returns a profile by name
func (r *Registry) Get(name string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatformType, name)
	}
	return p, nil
}

// For returns the named profile, checking it belongs to side
func (r *Registry) For(side record.Origin, name string) (Profile, error) {
	p, err := r.Get(name)
	if err != nil {
		return Profile{}, err
	}
	if p.Side != side {
		return Profile{}, fmt.Errorf("%w: %q is not a %s platform", ErrUnsupportedPlatformType, name, side)
	}
	return p, nil
}

// List returns the profiles for side sorted by name. An empty side lists all.
func (r *Registry) List(side record.Origin) []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if side == "" || p.Side == side {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
