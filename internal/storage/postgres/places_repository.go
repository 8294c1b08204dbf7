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

var _ places.PlaceStore = (*PlaceRepository)(nil)

type PlaceRepository struct {
	db queryer
}

// placeColumns selects a place with its derived fields computed from live
// children.
const placeColumns = `p.id, p.name, p.latitude, p.longitude, p.address, p.checked_by_moderator,
       p.created_by, p.created_dt, p.deleted_flg,
       COALESCE((SELECT AVG(r.rating) FROM ratings r WHERE r.place_id = p.id AND NOT r.deleted_flg), 0)::float8 AS rating,
       (SELECT COUNT(*) FROM accepts a WHERE a.place_id = p.id AND NOT a.deleted_flg) AS accepts_cnt`

func scanPlace(row pgx.Row) (places.Place, error) {
	var p places.Place
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Latitude,
		&p.Longitude,
		&p.Address,
		&p.CheckedByModerator,
		&p.CreatedBy,
		&p.CreatedDT,
		&p.DeletedFlg,
		&p.Rating,
		&p.AcceptsCnt,
	)
	return p, err
}

func (r *PlaceRepository) Create(ctx context.Context, in places.NewPlace) (p places.Place, err error) {
	start := time.Now()
	defer func() { record("place_create", start, err) }()

	p = places.Place{
		Name:               in.Name,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		Address:            in.Address,
		CheckedByModerator: in.CheckedByModerator,
		CreatedBy:          in.CreatedBy,
	}
	err = r.db.QueryRow(ctx, `
INSERT INTO places (name, latitude, longitude, address, checked_by_moderator, created_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_dt`,
		in.Name, in.Latitude, in.Longitude, in.Address, in.CheckedByModerator, in.CreatedBy,
	).Scan(&p.ID, &p.CreatedDT)
	if err != nil {
		return places.Place{}, fmt.Errorf("insert place: %w", err)
	}
	return p, nil
}

func (r *PlaceRepository) Get(ctx context.Context, id int64, includeDeleted bool) (p places.Place, err error) {
	start := time.Now()
	defer func() { record("place_get", start, err) }()

	p, err = scanPlace(r.db.QueryRow(ctx, `
SELECT `+placeColumns+`
  FROM places p
 WHERE p.id = $1
   AND (NOT p.deleted_flg OR $2)`, id, includeDeleted))
	if errors.Is(err, pgx.ErrNoRows) {
		return places.Place{}, places.ErrNotFound
	}
	if err != nil {
		return places.Place{}, fmt.Errorf("get place: %w", err)
	}
	return p, nil
}

func (r *PlaceRepository) Exists(ctx context.Context, id int64) (exists bool, err error) {
	start := time.Now()
	defer func() { record("place_exists", start, err) }()

	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM places WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check place: %w", err)
	}
	return exists, nil
}

func (r *PlaceRepository) List(ctx context.Context, filter places.PlaceFilter, page places.Page) (res places.ListResult[places.Place], err error) {
	start := time.Now()
	defer func() { record("place_list", start, err) }()

	ds := dialect.From(goqu.T("places").As("p")).Prepared(true)
	if !filter.IncludeDeleted {
		ds = ds.Where(goqu.I("p.deleted_flg").IsFalse())
	}
	if box := filter.Box; box != nil {
		ds = ds.Where(
			goqu.I("p.latitude").Between(goqu.Range(box.MinLat, box.MaxLat)),
			goqu.I("p.longitude").Between(goqu.Range(box.MinLong, box.MaxLong)),
		)
	}
	if filter.CreatedBy != nil {
		ds = ds.Where(goqu.I("p.created_by").Eq(*filter.CreatedBy))
	}

	if res.Total, err = count(ctx, r.db, ds); err != nil {
		return res, fmt.Errorf("count places: %w", err)
	}

	query, args, err := paged(ds.Select(goqu.L(placeColumns)), "p.id", page).ToSQL()
	if err != nil {
		return res, fmt.Errorf("build place list: %w", err)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return res, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	res.Items = make([]places.Place, 0, page.Limit)
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return res, fmt.Errorf("scan place: %w", err)
		}
		res.Items = append(res.Items, p)
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterate places: %w", err)
	}
	return res, nil
}

func (r *PlaceRepository) Update(ctx context.Context, id int64, patch places.PlacePatch) (err error) {
	start := time.Now()
	defer func() { record("place_update", start, err) }()

	set := goqu.Record{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Latitude != nil {
		set["latitude"] = *patch.Latitude
	}
	if patch.Longitude != nil {
		set["longitude"] = *patch.Longitude
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.CheckedByModerator != nil {
		set["checked_by_moderator"] = *patch.CheckedByModerator
	}
	if patch.CreatedBy != nil {
		set["created_by"] = *patch.CreatedBy
	}
	if len(set) == 0 {
		return nil
	}

	query, args, err := dialect.Update("places").Prepared(true).Set(set).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build place update: %w", err)
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return places.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) SoftDelete(ctx context.Context, id int64) (changed bool, err error) {
	start := time.Now()
	defer func() { record("place_soft_delete", start, err) }()

	tag, err := r.db.Exec(ctx, `UPDATE places SET deleted_flg = true WHERE id = $1 AND NOT deleted_flg`, id)
	if err != nil {
		return false, fmt.Errorf("soft delete place: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, places.ErrNotFound
	}
	return false, nil
}

func (r *PlaceRepository) Restore(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { record("place_restore", start, err) }()

	tag, err := r.db.Exec(ctx, `UPDATE places SET deleted_flg = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("restore place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return places.ErrNotFound
	}
	return nil
}

// count runs SELECT COUNT(*) over the filtered dataset.
func count(ctx context.Context, db queryer, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// paged orders by id and applies the offset/limit window.
func paged(ds *goqu.SelectDataset, idColumn string, page places.Page) *goqu.SelectDataset {
	ds = ds.Order(goqu.I(idColumn).Asc()).Limit(uint(page.Limit))
	if page.Offset > 0 {
		ds = ds.Offset(uint(page.Offset))
	}
	return ds
}
