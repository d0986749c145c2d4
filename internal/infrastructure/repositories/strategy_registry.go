package repositories

import (
	"fmt"

	domainRepos "github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// StrategyRegistry manages all registered migration discovery strategies.
type StrategyRegistry struct {
	strategies map[string]domainRepos.DiscoveryStrategy
	names      []string
}

// NewStrategyRegistry creates an empty strategy registry.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: make(map[string]domainRepos.DiscoveryStrategy),
	}
}

// Register adds a strategy under its name.
func (r *StrategyRegistry) Register(s domainRepos.DiscoveryStrategy) {
	if _, exists := r.strategies[s.Name()]; !exists {
		r.names = append(r.names, s.Name())
	}
	r.strategies[s.Name()] = s
}

// Get returns the strategy with the given name.
func (r *StrategyRegistry) Get(name string) (domainRepos.DiscoveryStrategy, error) {
	strategy, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown discovery strategy: %q", name)
	}
	return strategy, nil
}

// Names returns the registered strategy names in registration order.
func (r *StrategyRegistry) Names() []string {
	return append([]string(nil), r.names...)
}
