package games

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	game, err := svc.Register(ctx, 570, "Dota 2")
	require.NoError(t, err)
	assert.NotZero(t, game.ID)
	assert.Equal(t, int64(570), game.AppID)

	// app id is unique across all games
	_, err = svc.Register(ctx, 570, "Dota 2 again")
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, int64(570), dup.AppID)
}

func TestRegister_InvalidAppID(t *testing.T) {
	svc := NewService(NewInMemoryStore())

	_, err := svc.Register(context.Background(), 0, "nope")
	var invalid *InvalidIDError
	assert.ErrorAs(t, err, &invalid)
}

func TestValidateAndGet(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	game, err := svc.Register(ctx, 440, "Team Fortress 2")
	require.NoError(t, err)

	got, err := svc.ValidateAndGet(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, game.AppID, got.AppID)

	_, err = svc.ValidateAndGet(ctx, -1)
	var invalid *InvalidIDError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.ValidateAndGet(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	svc := NewService(NewInMemoryStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, 570, "Dota 2")
	require.NoError(t, err)
	_, err = svc.Register(ctx, 440, "Team Fortress 2")
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
