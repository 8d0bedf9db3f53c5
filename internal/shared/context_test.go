package shared_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockline/stockline/internal/shared"
)

func TestActorID(t *testing.T) {
	// No principal in context must not panic and resolves to zero.
	require.Zero(t, shared.ActorID(context.Background()))

	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: 5, Role: "staff"})
	require.EqualValues(t, 5, shared.ActorID(ctx))

	p := shared.PrincipalFromContext(ctx)
	require.NotNil(t, p)
	require.Equal(t, "staff", p.Role)
}
