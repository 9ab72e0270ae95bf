package services

import (
	"context"
	"time"
)

// Identity provider names.
const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

// ProviderIdentity is what an OAuth provider tells us about the user.
type ProviderIdentity struct {
	Subject string
	Email   string
	Name    string
	Avatar  string
}

// IdentityProvider performs the OAuth round trip with one provider.
type IdentityProvider interface {
	Name() string
	Authenticate(ctx context.Context) (*ProviderIdentity, error)
}

// SimulatedProvider returns a fixed identity after a delay.
type SimulatedProvider struct {
	name     string
	identity ProviderIdentity
	latency  time.Duration
}

// NewSimulatedProvider creates a provider that always yields identity.
func NewSimulatedProvider(name string, identity ProviderIdentity, latency time.Duration) *SimulatedProvider {
	return &SimulatedProvider{name: name, identity: identity, latency: latency}
}

// DefaultProviders returns the branded Google and Apple mock providers.
func DefaultProviders(latency time.Duration) []IdentityProvider {
	return []IdentityProvider{
		NewSimulatedProvider(ProviderGoogle, ProviderIdentity{
			Subject: "google-oauth2|demo",
			Email:   "demo.user@gmail.com",
			Name:    "Google User",
			Avatar:  "https://lh3.googleusercontent.com/a/default-user",
		}, latency),
		NewSimulatedProvider(ProviderApple, ProviderIdentity{
			Subject: "apple|demo",
			Email:   "demo.user@privaterelay.appleid.com",
			Name:    "Apple User",
		}, latency),
	}
}

func (p *SimulatedProvider) Name() string {
	return p.name
}

// Authenticate waits the simulated latency and returns the fixed identity.
func (p *SimulatedProvider) Authenticate(ctx context.Context) (*ProviderIdentity, error) {
	if err := sleepContext(ctx, p.latency); err != nil {
		return nil, err
	}
	id := p.identity
	return &id, nil
}

