package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/stretchr/testify/require"
)

var superuser = auth.Principal{Role: auth.RoleSuperuser, UserID: 1}

func TestPlaceRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	created := insertPlace(t, ctx, repo, "Cafe", 55.75, 37.61, 7)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedDT.IsZero())

	got, err := repo.Places().Get(ctx, created.ID, false)
	require.NoError(t, err)
	require.Equal(t, "Cafe", got.Name)
	require.Equal(t, int64(7), got.CreatedBy)
	require.Zero(t, got.Rating)
	require.Zero(t, got.AcceptsCnt)

	_, err = repo.Places().Get(ctx, created.ID+100, true)
	require.ErrorIs(t, err, places.ErrNotFound)

	exists, err := repo.Places().Exists(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestPlaceRepositoryDerivedFields(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	p := insertPlace(t, ctx, repo, "Cafe", 1, 1, 1)

	for user, value := range map[int64]int{1: 4, 2: 5, 3: 0} {
		_, err := repo.Ratings().Create(ctx, places.NewRating{PlaceID: p.ID, CreatedBy: user, Rating: value})
		require.NoError(t, err)
		_, err = repo.Accepts().CreateIfAbsent(ctx, places.NewAccept{PlaceID: p.ID, CreatedBy: user})
		require.NoError(t, err)
	}
	_, err := repo.Ratings().SoftDeleteActive(ctx, p.ID, 3)
	require.NoError(t, err)

	got, err := repo.Places().Get(ctx, p.ID, false)
	require.NoError(t, err)
	require.InDelta(t, 4.5, got.Rating, 1e-9, "deleted ratings are excluded from the mean")
	require.Equal(t, int64(3), got.AcceptsCnt)
}

func TestPlaceRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	a := insertPlace(t, ctx, repo, "A", 20, 30, 1)
	insertPlace(t, ctx, repo, "B", 50, 30, 1)
	c := insertPlace(t, ctx, repo, "C", 10, 20, 2)
	gone := insertPlace(t, ctx, repo, "D", 15, 25, 1)
	_, err := repo.Places().SoftDelete(ctx, gone.ID)
	require.NoError(t, err)

	page := places.Page{Limit: places.DefaultLimit}
	box := places.NewBoundingBox(30, 40, 10, 20)

	res, err := repo.Places().List(ctx, places.PlaceFilter{Box: &box}, page)
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total, "corners are inclusive, deleted rows hidden")
	require.Equal(t, []int64{a.ID, c.ID}, placeIDs(res.Items))

	res, err = repo.Places().List(ctx, places.PlaceFilter{Box: &box, IncludeDeleted: true}, page)
	require.NoError(t, err)
	require.Equal(t, []int64{a.ID, c.ID, gone.ID}, placeIDs(res.Items))

	mine := int64(2)
	res, err = repo.Places().List(ctx, places.PlaceFilter{CreatedBy: &mine}, page)
	require.NoError(t, err)
	require.Equal(t, []int64{c.ID}, placeIDs(res.Items))

	res, err = repo.Places().List(ctx, places.PlaceFilter{}, places.Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Total)
	require.Len(t, res.Items, 2)
}

func TestPlaceRepositoryUpdateSoftDeleteRestore(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	p := insertPlace(t, ctx, repo, "Cafe", 1, 1, 1)

	name := "Bistro"
	checked := true
	require.NoError(t, repo.Places().Update(ctx, p.ID, places.PlacePatch{Name: &name, CheckedByModerator: &checked}))
	got, err := repo.Places().Get(ctx, p.ID, false)
	require.NoError(t, err)
	require.Equal(t, "Bistro", got.Name)
	require.True(t, got.CheckedByModerator)
	require.Equal(t, p.Address, got.Address)

	require.ErrorIs(t, repo.Places().Update(ctx, p.ID+100, places.PlacePatch{Name: &name}), places.ErrNotFound)

	changed, err := repo.Places().SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = repo.Places().SoftDelete(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, changed)
	_, err = repo.Places().SoftDelete(ctx, p.ID+100)
	require.ErrorIs(t, err, places.ErrNotFound)

	_, err = repo.Places().Get(ctx, p.ID, false)
	require.ErrorIs(t, err, places.ErrNotFound)

	require.NoError(t, repo.Places().Restore(ctx, p.ID))
	got, err = repo.Places().Get(ctx, p.ID, false)
	require.NoError(t, err)
	require.False(t, got.DeletedFlg)
}

func TestAcceptRepositoryOneLivePerUser(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	p := insertPlace(t, ctx, repo, "Cafe", 1, 1, 1)

	first, err := repo.Accepts().CreateIfAbsent(ctx, places.NewAccept{PlaceID: p.ID, CreatedBy: 5})
	require.NoError(t, err)

	_, err = repo.Accepts().CreateIfAbsent(ctx, places.NewAccept{PlaceID: p.ID, CreatedBy: 5})
	require.ErrorIs(t, err, places.ErrAlreadyAccepted)

	changed, err := repo.Accepts().SoftDelete(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = repo.Accepts().CreateIfAbsent(ctx, places.NewAccept{PlaceID: p.ID, CreatedBy: 5})
	require.NoError(t, err, "a tombstoned accept does not block a new one")

	_, err = repo.Accepts().CreateIfAbsent(ctx, places.NewAccept{PlaceID: p.ID + 100, CreatedBy: 5})
	require.ErrorIs(t, err, places.ErrPlaceMissing)
}

func TestRatingRepositoryConflictAndSupersede(t *testing.T) {
	ctx := context.Background()
	repo, pool := newTestRepository(t)
	p := insertPlace(t, ctx, repo, "Cafe", 1, 1, 1)

	first, err := repo.Ratings().Create(ctx, places.NewRating{PlaceID: p.ID, CreatedBy: 5, Rating: 4})
	require.NoError(t, err)

	_, err = repo.Ratings().Create(ctx, places.NewRating{PlaceID: p.ID, CreatedBy: 5, Rating: 2})
	require.ErrorIs(t, err, places.ErrConflict)

	n, err := repo.Ratings().SoftDeleteActive(ctx, p.ID, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	second, err := repo.Ratings().Create(ctx, places.NewRating{PlaceID: p.ID, CreatedBy: 5, Rating: 2})
	require.NoError(t, err)
	require.Equal(t, 1, liveCount(t, ctx, pool, "ratings", p.ID))

	old, err := repo.Ratings().Get(ctx, first.ID, true)
	require.NoError(t, err)
	require.True(t, old.DeletedFlg)
	require.True(t, old.UpdatedDT.After(first.UpdatedDT) || old.UpdatedDT.Equal(first.UpdatedDT))
	require.Equal(t, 4, old.Rating, "tombstoning keeps the stored value")

	_, err = repo.Ratings().Get(ctx, first.ID, false)
	require.ErrorIs(t, err, places.ErrNotFound)
	live, err := repo.Ratings().Get(ctx, second.ID, false)
	require.NoError(t, err)
	require.Equal(t, 2, live.Rating)
}

func TestChildListFilters(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	p := insertPlace(t, ctx, repo, "Cafe", 1, 1, 1)
	other := insertPlace(t, ctx, repo, "Bar", 2, 2, 1)

	img1, err := repo.Images().Create(ctx, places.NewPlaceImage{PlaceID: p.ID, CreatedBy: 1, PicID: 10})
	require.NoError(t, err)
	_, err = repo.Images().Create(ctx, places.NewPlaceImage{PlaceID: p.ID, CreatedBy: 1, PicID: 11})
	require.NoError(t, err)
	_, err = repo.Images().Create(ctx, places.NewPlaceImage{PlaceID: other.ID, CreatedBy: 1, PicID: 12})
	require.NoError(t, err)
	_, err = repo.Images().SoftDelete(ctx, img1.ID)
	require.NoError(t, err)

	page := places.Page{Limit: places.DefaultLimit}
	res, err := repo.Images().List(ctx, places.ChildFilter{PlaceID: &p.ID}, page)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	require.Equal(t, int64(11), res.Items[0].PicID)

	res, err = repo.Images().List(ctx, places.ChildFilter{PlaceID: &p.ID, IncludeDeleted: true}, page)
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total)

	res, err = repo.Images().List(ctx, places.ChildFilter{}, places.Page{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 1)

	_, err = repo.Images().Create(ctx, places.NewPlaceImage{PlaceID: other.ID + 100, CreatedBy: 1, PicID: 13})
	require.ErrorIs(t, err, places.ErrPlaceMissing)
}

func TestServiceCascadeAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	repo, pool := newTestRepository(t)
	p := insertPlace(t, ctx, repo, "Cafe", 1, 1, 1)
	sibling := insertPlace(t, ctx, repo, "Bar", 2, 2, 1)

	for _, id := range []int64{p.ID, sibling.ID} {
		_, err := repo.Accepts().CreateIfAbsent(ctx, places.NewAccept{PlaceID: id, CreatedBy: 9})
		require.NoError(t, err)
		_, err = repo.Ratings().Create(ctx, places.NewRating{PlaceID: id, CreatedBy: 9, Rating: 3})
		require.NoError(t, err)
		_, err = repo.Images().Create(ctx, places.NewPlaceImage{PlaceID: id, CreatedBy: 9, PicID: 1})
		require.NoError(t, err)
	}

	svc := places.NewService(repo, nil, nil)
	require.NoError(t, svc.DeletePlace(ctx, superuser, p.ID, false))

	for _, table := range []string{"accepts", "ratings", "place_images"} {
		require.Zero(t, liveCount(t, ctx, pool, table, p.ID), table)
		require.Equal(t, 1, liveCount(t, ctx, pool, table, sibling.ID), table)
	}

	// Repeating the delete finds nothing left to change.
	require.NoError(t, svc.DeletePlace(ctx, superuser, p.ID, true))
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	p := insertPlace(t, ctx, repo, "Cafe", 1, 1, 1)

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(ctx context.Context, tx places.Store) error {
		if _, err := tx.Places().SoftDelete(ctx, p.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Places().Get(ctx, p.ID, false)
	require.NoError(t, err)
	require.False(t, got.DeletedFlg)
}

func placeIDs(items []places.Place) []int64 {
	ids := make([]int64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids
}
