package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/zone_service/internal/models"
)

func TestMemoryRepo(t *testing.T) {
	testRepository(t, func(t *testing.T) Repository { return NewMemoryRepo() })
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	z := &models.Zone{Name: "z", Polygon: square}
	require.NoError(t, r.CreateZone(ctx, z))

	got, err := r.GetZone(ctx, z.ID)
	require.NoError(t, err)
	got.Polygon[0].Lat = 42

	again, err := r.GetZone(ctx, z.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), again.Polygon[0].Lat)
}

func TestMemoryRepo_CheckedOutCartIsNotActive(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	userID := uuid.New()
	r.PutCart(models.ShoppingCart{ID: uuid.New(), UserID: userID, Status: models.CartStatusCheckedOut})

	_, err := r.ActiveCart(ctx, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}
