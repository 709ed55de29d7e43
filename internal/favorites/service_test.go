package favorites

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roperito/roperito-backend/internal/testdb"
	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/enums"
	pkgerrors "github.com/roperito/roperito-backend/pkg/errors"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *testdb.Fixtures) {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)
	return svc, testdb.NewFixtures(t, conn)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestAddAndRemoveKeepCountInSync(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()
	seller := fx.User("Sofia")
	product := fx.Product(seller.ID, "Wool coat", 30000)
	alice, bob := fx.User("Alice"), fx.User("Bob")

	require.NoError(t, svc.Add(ctx, alice.ID, product.ID))
	require.NoError(t, svc.Add(ctx, bob.ID, product.ID))
	assert.Equal(t, 2, fx.Reload(product.ID).FavoritesCount)

	err := svc.Add(ctx, alice.ID, product.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, 2, fx.Reload(product.ID).FavoritesCount, "failed insert must not bump the counter")

	require.NoError(t, svc.Remove(ctx, alice.ID, product.ID))
	assert.Equal(t, 1, fx.Reload(product.ID).FavoritesCount)

	err = svc.Remove(ctx, alice.ID, product.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, 1, fx.Reload(product.ID).FavoritesCount)
}

func TestAddRejections(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()
	seller := fx.User("Sofia")
	product := fx.Product(seller.ID, "Wool coat", 30000)

	err := svc.Add(ctx, seller.ID, product.ID)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	err = svc.Add(ctx, fx.User("Alice").ID, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	fx.Deactivate(product.ID)
	err = svc.Add(ctx, fx.User("Bob").ID, product.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListAndCheck(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()
	seller := fx.User("Sofia")
	buyer := fx.User("Bruno")

	for _, title := range []string{"Scarf", "Boots", "Hat"} {
		require.NoError(t, svc.Add(ctx, buyer.ID, fx.Product(seller.ID, title, 1000).ID))
	}

	page, err := svc.List(ctx, buyer.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "Sofia", page.Items[0].SellerName)
	assert.NotNil(t, page.Items[0].MainImage)

	rest, err := svc.List(ctx, buyer.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)

	seen := map[string]bool{}
	for _, item := range append(page.Items, rest.Items...) {
		seen[item.Title] = true
	}
	assert.Len(t, seen, 3)

	check, err := svc.Check(ctx, buyer.ID, rest.Items[0].ProductID)
	require.NoError(t, err)
	assert.True(t, check.IsFavorite)

	fx.Deactivate(rest.Items[0].ProductID)
	all, err := svc.List(ctx, buyer.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2, "inactive products drop out of the list")

	check, err = svc.Check(ctx, seller.ID, rest.Items[0].ProductID)
	require.NoError(t, err)
	assert.False(t, check.IsFavorite)
}

func TestMostFavoritedOnlyAvailable(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()
	seller := fx.User("Sofia")
	popular := fx.Product(seller.ID, "Popular", 1000)
	quiet := fx.Product(seller.ID, "Quiet", 1000)
	reserved := fx.Product(seller.ID, "Reserved", 1000)

	for _, name := range []string{"A", "B", "C"} {
		user := fx.User(name)
		require.NoError(t, svc.Add(ctx, user.ID, popular.ID))
		require.NoError(t, svc.Add(ctx, user.ID, reserved.ID))
	}
	require.NoError(t, svc.Add(ctx, fx.User("D").ID, quiet.ID))
	fx.SetProductStatus(reserved.ID, enums.ProductStatusReserved)

	top, err := svc.MostFavorited(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, popular.ID, top[0].ProductID)
	assert.Equal(t, 3, top[0].FavoritesCount)
	assert.Equal(t, quiet.ID, top[1].ProductID)
}
