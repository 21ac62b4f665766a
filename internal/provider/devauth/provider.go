package devauth

import (
	"context"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

// Provider is the mock identity provider used when AUTH_PROVIDER_MODE=mock.
// Every exchange resolves to the same fixed identity; development only.
type Provider struct {
	identity domain.Identity
}

// New builds a mock provider returning the given identity.
func New(identity domain.Identity) *Provider {
	return &Provider{identity: identity}
}

func (p *Provider) Name() string {
	return "mock"
}

func (p *Provider) AuthCodeURL(state, nonce string) string {
	return "/auth/callback?code=mock&state=" + state
}

func (p *Provider) Exchange(_ context.Context, code, _ string) (*domain.Identity, error) {
	if code == "" {
		return nil, nil
	}
	identity := p.identity
	return &identity, nil
}

func (p *Provider) CurrentUser(_ context.Context, accessToken string) (*domain.Identity, error) {
	if accessToken == "" {
		return nil, nil
	}
	identity := p.identity
	return &identity, nil
}
