package devauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

func TestProvider(t *testing.T) {
	p := New(domain.Identity{ID: "dev-user", Email: "dev@example.com"})

	identity, err := p.Exchange(context.Background(), "any-code", "")
	require.NoError(t, err)
	require.Equal(t, "dev-user", identity.ID)

	// no code means no authenticated user, not an error
	identity, err = p.Exchange(context.Background(), "", "")
	require.NoError(t, err)
	require.Nil(t, identity)

	identity, err = p.CurrentUser(context.Background(), "token")
	require.NoError(t, err)
	require.Equal(t, "dev@example.com", identity.Email)

	identity, err = p.CurrentUser(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, identity)
}
