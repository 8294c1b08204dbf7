package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
)

// childTable implements the operations accepts, ratings and place images
// share. Every tombstone, direct or cascaded, goes through markDeleted.
type childTable[T any] struct {
	db      queryer
	table   string
	entity  string
	columns string
	scan    func(pgx.Row) (T, error)
	// touch bumps updated_dt alongside the flag.
	touch bool
}

func (t childTable[T]) Get(ctx context.Context, id int64, includeDeleted bool) (row T, err error) {
	start := time.Now()
	defer func() { record(t.entity+"_get", start, err) }()

	ds := dialect.From(t.table).Prepared(true).Select(goqu.L(t.columns)).Where(goqu.C("id").Eq(id))
	if !includeDeleted {
		ds = ds.Where(goqu.C("deleted_flg").IsFalse())
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return row, fmt.Errorf("build %s get: %w", t.entity, err)
	}
	row, err = t.scan(t.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, places.ErrNotFound
	}
	if err != nil {
		return row, fmt.Errorf("get %s: %w", t.entity, err)
	}
	return row, nil
}

func (t childTable[T]) List(ctx context.Context, filter places.ChildFilter, page places.Page) (res places.ListResult[T], err error) {
	start := time.Now()
	defer func() { record(t.entity+"_list", start, err) }()

	ds := dialect.From(t.table).Prepared(true)
	if !filter.IncludeDeleted {
		ds = ds.Where(goqu.C("deleted_flg").IsFalse())
	}
	if filter.PlaceID != nil {
		ds = ds.Where(goqu.C("place_id").Eq(*filter.PlaceID))
	}

	if res.Total, err = count(ctx, t.db, ds); err != nil {
		return res, fmt.Errorf("count %s: %w", t.entity, err)
	}

	query, args, err := paged(ds.Select(goqu.L(t.columns)), "id", page).ToSQL()
	if err != nil {
		return res, fmt.Errorf("build %s list: %w", t.entity, err)
	}
	rows, err := t.db.Query(ctx, query, args...)
	if err != nil {
		return res, fmt.Errorf("list %s: %w", t.entity, err)
	}
	defer rows.Close()

	res.Items = make([]T, 0, page.Limit)
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return res, fmt.Errorf("scan %s: %w", t.entity, err)
		}
		res.Items = append(res.Items, item)
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterate %s: %w", t.entity, err)
	}
	return res, nil
}

func (t childTable[T]) SoftDelete(ctx context.Context, id int64) (bool, error) {
	n, err := t.markDeleted(ctx, "soft_delete", goqu.Ex{"id": id})
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var exists bool
	if err := t.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+t.table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s: %w", t.entity, err)
	}
	if !exists {
		return false, places.ErrNotFound
	}
	return false, nil
}

func (t childTable[T]) SoftDeleteByPlace(ctx context.Context, placeID int64) (int64, error) {
	return t.markDeleted(ctx, "cascade", goqu.Ex{"place_id": placeID})
}

// markDeleted flips deleted_flg on every live row matching where and
// returns how many rows changed. No other column is validated or touched.
func (t childTable[T]) markDeleted(ctx context.Context, op string, where goqu.Ex) (n int64, err error) {
	start := time.Now()
	defer func() { record(t.entity+"_"+op, start, err) }()

	set := goqu.Record{"deleted_flg": true}
	if t.touch {
		set["updated_dt"] = goqu.L("now()")
	}
	query, args, err := dialect.Update(t.table).Prepared(true).
		Set(set).
		Where(where, goqu.C("deleted_flg").IsFalse()).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build %s delete: %w", t.entity, err)
	}
	tag, err := t.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("soft delete %s: %w", t.entity, err)
	}
	return tag.RowsAffected(), nil
}

// Accepts

const acceptColumns = `id, created_by, place_id, created_dt, deleted_flg`

func scanAccept(row pgx.Row) (places.Accept, error) {
	var a places.Accept
	err := row.Scan(&a.ID, &a.CreatedBy, &a.PlaceID, &a.CreatedDT, &a.DeletedFlg)
	return a, err
}

func acceptsTable(db queryer) childTable[places.Accept] {
	return childTable[places.Accept]{db: db, table: "accepts", entity: "accept", columns: acceptColumns, scan: scanAccept}
}

type AcceptRepository struct {
	childTable[places.Accept]
}

var _ places.AcceptStore = (*AcceptRepository)(nil)

// CreateIfAbsent relies on the partial unique index: a live row for the
// pair suppresses the insert and no row comes back.
func (r *AcceptRepository) CreateIfAbsent(ctx context.Context, in places.NewAccept) (a places.Accept, err error) {
	start := time.Now()
	defer func() { record("accept_create", start, err) }()

	a, err = scanAccept(r.db.QueryRow(ctx, `
INSERT INTO accepts (place_id, created_by)
VALUES ($1, $2)
ON CONFLICT (place_id, created_by) WHERE NOT deleted_flg DO NOTHING
RETURNING `+acceptColumns, in.PlaceID, in.CreatedBy))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return places.Accept{}, places.ErrAlreadyAccepted
	case err != nil:
		return places.Accept{}, fmt.Errorf("insert accept: %w", translate(err))
	}
	return a, nil
}

// Ratings

const ratingColumns = `id, created_by, place_id, rating, created_dt, updated_dt, deleted_flg`

func scanRating(row pgx.Row) (places.Rating, error) {
	var r places.Rating
	var value int16
	err := row.Scan(&r.ID, &r.CreatedBy, &r.PlaceID, &value, &r.CreatedDT, &r.UpdatedDT, &r.DeletedFlg)
	r.Rating = int(value)
	return r, err
}

func ratingsTable(db queryer) childTable[places.Rating] {
	return childTable[places.Rating]{db: db, table: "ratings", entity: "rating", columns: ratingColumns, scan: scanRating, touch: true}
}

type RatingRepository struct {
	childTable[places.Rating]
}

var _ places.RatingStore = (*RatingRepository)(nil)

func (r *RatingRepository) SoftDeleteActive(ctx context.Context, placeID, createdBy int64) (int64, error) {
	return r.markDeleted(ctx, "supersede", goqu.Ex{"place_id": placeID, "created_by": createdBy})
}

func (r *RatingRepository) Create(ctx context.Context, in places.NewRating) (rating places.Rating, err error) {
	start := time.Now()
	defer func() { record("rating_create", start, err) }()

	rating, err = scanRating(r.db.QueryRow(ctx, `
INSERT INTO ratings (place_id, created_by, rating)
VALUES ($1, $2, $3)
RETURNING `+ratingColumns, in.PlaceID, in.CreatedBy, in.Rating))
	if err != nil {
		return places.Rating{}, fmt.Errorf("insert rating: %w", translate(err))
	}
	return rating, nil
}

// Place images

const imageColumns = `id, created_by, place_id, pic_id, created_dt, deleted_flg`

func scanImage(row pgx.Row) (places.PlaceImage, error) {
	var img places.PlaceImage
	err := row.Scan(&img.ID, &img.CreatedBy, &img.PlaceID, &img.PicID, &img.CreatedDT, &img.DeletedFlg)
	return img, err
}

func imagesTable(db queryer) childTable[places.PlaceImage] {
	return childTable[places.PlaceImage]{db: db, table: "place_images", entity: "place_image", columns: imageColumns, scan: scanImage}
}

type ImageRepository struct {
	childTable[places.PlaceImage]
}

var _ places.ImageStore = (*ImageRepository)(nil)

func (r *ImageRepository) Create(ctx context.Context, in places.NewPlaceImage) (img places.PlaceImage, err error) {
	start := time.Now()
	defer func() { record("place_image_create", start, err) }()

	img, err = scanImage(r.db.QueryRow(ctx, `
INSERT INTO place_images (place_id, created_by, pic_id)
VALUES ($1, $2, $3)
RETURNING `+imageColumns, in.PlaceID, in.CreatedBy, in.PicID))
	if err != nil {
		return places.PlaceImage{}, fmt.Errorf("insert place image: %w", translate(err))
	}
	return img, nil
}
