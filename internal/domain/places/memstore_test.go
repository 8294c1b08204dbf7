package places

import (
	"context"
	"maps"
	"slices"
	"time"
)

// memStore is an in-memory Store. WithTx snapshots all tables and restores
// them when fn fails.
type memStore struct {
	nextID  int64
	places  map[int64]Place
	accepts map[int64]Accept
	ratings map[int64]Rating
	images  map[int64]PlaceImage

	// ratingConflicts makes the next N rating inserts fail with ErrConflict.
	ratingConflicts int
	txCount         int
	storeCalls      int
}

func newMemStore() *memStore {
	return &memStore{
		places:  map[int64]Place{},
		accepts: map[int64]Accept{},
		ratings: map[int64]Rating{},
		images:  map[int64]PlaceImage{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) Places() PlaceStore   { s.storeCalls++; return memPlaces{s} }
func (s *memStore) Accepts() AcceptStore { s.storeCalls++; return memAccepts{s} }
func (s *memStore) Ratings() RatingStore { s.storeCalls++; return memRatings{s} }
func (s *memStore) Images() ImageStore   { s.storeCalls++; return memImages{s} }

func (s *memStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	s.txCount++
	places, accepts, ratings, images := maps.Clone(s.places), maps.Clone(s.accepts), maps.Clone(s.ratings), maps.Clone(s.images)
	if err := fn(ctx, s); err != nil {
		s.places, s.accepts, s.ratings, s.images = places, accepts, ratings, images
		return err
	}
	return nil
}

func pageOf[T any](rows []T, page Page) ListResult[T] {
	total := int64(len(rows))
	start := min(page.Offset, len(rows))
	end := min(start+page.Limit, len(rows))
	return ListResult[T]{Items: rows[start:end], Total: total}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

type memPlaces struct{ s *memStore }

func (m memPlaces) derive(p Place) Place {
	var sum, n int64
	p.AcceptsCnt = 0
	for _, a := range m.s.accepts {
		if a.PlaceID == p.ID && !a.DeletedFlg {
			p.AcceptsCnt++
		}
	}
	for _, r := range m.s.ratings {
		if r.PlaceID == p.ID && !r.DeletedFlg {
			sum += int64(r.Rating)
			n++
		}
	}
	p.Rating = 0
	if n > 0 {
		p.Rating = float64(sum) / float64(n)
	}
	return p
}

func (m memPlaces) Create(ctx context.Context, in NewPlace) (Place, error) {
	p := Place{
		ID:                 m.s.id(),
		Name:               in.Name,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		Address:            in.Address,
		CheckedByModerator: in.CheckedByModerator,
		CreatedBy:          in.CreatedBy,
		CreatedDT:          time.Now().UTC(),
	}
	m.s.places[p.ID] = p
	return m.derive(p), nil
}

func (m memPlaces) Get(ctx context.Context, id int64, includeDeleted bool) (Place, error) {
	p, ok := m.s.places[id]
	if !ok || !Visible(p.DeletedFlg, includeDeleted) {
		return Place{}, ErrNotFound
	}
	return m.derive(p), nil
}

func (m memPlaces) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.s.places[id]
	return ok, nil
}

func (m memPlaces) List(ctx context.Context, filter PlaceFilter, page Page) (ListResult[Place], error) {
	var rows []Place
	for _, id := range sortedKeys(m.s.places) {
		p := m.s.places[id]
		if !Visible(p.DeletedFlg, filter.IncludeDeleted) {
			continue
		}
		if filter.Box != nil && !filter.Box.Contains(p.Latitude, p.Longitude) {
			continue
		}
		if filter.CreatedBy != nil && p.CreatedBy != *filter.CreatedBy {
			continue
		}
		rows = append(rows, m.derive(p))
	}
	return pageOf(rows, page), nil
}

func (m memPlaces) Update(ctx context.Context, id int64, patch PlacePatch) error {
	p, ok := m.s.places[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Latitude != nil {
		p.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		p.Longitude = *patch.Longitude
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.CheckedByModerator != nil {
		p.CheckedByModerator = *patch.CheckedByModerator
	}
	if patch.CreatedBy != nil {
		p.CreatedBy = *patch.CreatedBy
	}
	m.s.places[id] = p
	return nil
}

func (m memPlaces) SoftDelete(ctx context.Context, id int64) (bool, error) {
	p, ok := m.s.places[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.DeletedFlg {
		return false, nil
	}
	p.DeletedFlg = true
	m.s.places[id] = p
	return true, nil
}

func (m memPlaces) Restore(ctx context.Context, id int64) error {
	p, ok := m.s.places[id]
	if !ok {
		return ErrNotFound
	}
	p.DeletedFlg = false
	m.s.places[id] = p
	return nil
}

// child tables share their visibility, listing and tombstoning logic.

type childRow interface {
	Accept | Rating | PlaceImage
}

func childMeta[T childRow](row T) (placeID int64, deleted bool) {
	switch r := any(row).(type) {
	case Accept:
		return r.PlaceID, r.DeletedFlg
	case Rating:
		return r.PlaceID, r.DeletedFlg
	case PlaceImage:
		return r.PlaceID, r.DeletedFlg
	}
	return 0, false
}

func markDeleted[T childRow](row T) T {
	switch r := any(row).(type) {
	case Accept:
		r.DeletedFlg = true
		return any(r).(T)
	case Rating:
		r.DeletedFlg = true
		r.UpdatedDT = time.Now().UTC()
		return any(r).(T)
	case PlaceImage:
		r.DeletedFlg = true
		return any(r).(T)
	}
	return row
}

func childGet[T childRow](table map[int64]T, id int64, includeDeleted bool) (T, error) {
	row, ok := table[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	if _, deleted := childMeta(row); !Visible(deleted, includeDeleted) {
		var zero T
		return zero, ErrNotFound
	}
	return row, nil
}

func childList[T childRow](table map[int64]T, filter ChildFilter, page Page) ListResult[T] {
	var rows []T
	for _, id := range sortedKeys(table) {
		row := table[id]
		placeID, deleted := childMeta(row)
		if !Visible(deleted, filter.IncludeDeleted) {
			continue
		}
		if filter.PlaceID != nil && placeID != *filter.PlaceID {
			continue
		}
		rows = append(rows, row)
	}
	return pageOf(rows, page)
}

func childSoftDelete[T childRow](table map[int64]T, id int64) (bool, error) {
	row, ok := table[id]
	if !ok {
		return false, ErrNotFound
	}
	if _, deleted := childMeta(row); deleted {
		return false, nil
	}
	table[id] = markDeleted(row)
	return true, nil
}

func childSoftDeleteWhere[T childRow](table map[int64]T, match func(T) bool) int64 {
	var n int64
	for id, row := range table {
		if _, deleted := childMeta(row); deleted || !match(row) {
			continue
		}
		table[id] = markDeleted(row)
		n++
	}
	return n
}

func byPlace[T childRow](placeID int64) func(T) bool {
	return func(row T) bool {
		id, _ := childMeta(row)
		return id == placeID
	}
}

type memAccepts struct{ s *memStore }

func (m memAccepts) Get(ctx context.Context, id int64, includeDeleted bool) (Accept, error) {
	return childGet(m.s.accepts, id, includeDeleted)
}

func (m memAccepts) List(ctx context.Context, filter ChildFilter, page Page) (ListResult[Accept], error) {
	return childList(m.s.accepts, filter, page), nil
}

func (m memAccepts) SoftDelete(ctx context.Context, id int64) (bool, error) {
	return childSoftDelete(m.s.accepts, id)
}

func (m memAccepts) SoftDeleteByPlace(ctx context.Context, placeID int64) (int64, error) {
	return childSoftDeleteWhere(m.s.accepts, byPlace[Accept](placeID)), nil
}

func (m memAccepts) CreateIfAbsent(ctx context.Context, in NewAccept) (Accept, error) {
	if _, ok := m.s.places[in.PlaceID]; !ok {
		return Accept{}, ErrPlaceMissing
	}
	for _, a := range m.s.accepts {
		if a.PlaceID == in.PlaceID && a.CreatedBy == in.CreatedBy && !a.DeletedFlg {
			return Accept{}, ErrAlreadyAccepted
		}
	}
	a := Accept{ID: m.s.id(), PlaceID: in.PlaceID, CreatedBy: in.CreatedBy, CreatedDT: time.Now().UTC()}
	m.s.accepts[a.ID] = a
	return a, nil
}

type memRatings struct{ s *memStore }

func (m memRatings) Get(ctx context.Context, id int64, includeDeleted bool) (Rating, error) {
	return childGet(m.s.ratings, id, includeDeleted)
}

func (m memRatings) List(ctx context.Context, filter ChildFilter, page Page) (ListResult[Rating], error) {
	return childList(m.s.ratings, filter, page), nil
}

func (m memRatings) SoftDelete(ctx context.Context, id int64) (bool, error) {
	return childSoftDelete(m.s.ratings, id)
}

func (m memRatings) SoftDeleteByPlace(ctx context.Context, placeID int64) (int64, error) {
	return childSoftDeleteWhere(m.s.ratings, byPlace[Rating](placeID)), nil
}

func (m memRatings) SoftDeleteActive(ctx context.Context, placeID, createdBy int64) (int64, error) {
	return childSoftDeleteWhere(m.s.ratings, func(r Rating) bool {
		return r.PlaceID == placeID && r.CreatedBy == createdBy
	}), nil
}

func (m memRatings) Create(ctx context.Context, in NewRating) (Rating, error) {
	if m.s.ratingConflicts > 0 {
		m.s.ratingConflicts--
		return Rating{}, ErrConflict
	}
	for _, r := range m.s.ratings {
		if r.PlaceID == in.PlaceID && r.CreatedBy == in.CreatedBy && !r.DeletedFlg {
			return Rating{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	r := Rating{ID: m.s.id(), PlaceID: in.PlaceID, CreatedBy: in.CreatedBy, Rating: in.Rating, CreatedDT: now, UpdatedDT: now}
	m.s.ratings[r.ID] = r
	return r, nil
}

type memImages struct{ s *memStore }

func (m memImages) Get(ctx context.Context, id int64, includeDeleted bool) (PlaceImage, error) {
	return childGet(m.s.images, id, includeDeleted)
}

func (m memImages) List(ctx context.Context, filter ChildFilter, page Page) (ListResult[PlaceImage], error) {
	return childList(m.s.images, filter, page), nil
}

func (m memImages) SoftDelete(ctx context.Context, id int64) (bool, error) {
	return childSoftDelete(m.s.images, id)
}

func (m memImages) SoftDeleteByPlace(ctx context.Context, placeID int64) (int64, error) {
	return childSoftDeleteWhere(m.s.images, byPlace[PlaceImage](placeID)), nil
}

func (m memImages) Create(ctx context.Context, in NewPlaceImage) (PlaceImage, error) {
	img := PlaceImage{ID: m.s.id(), PlaceID: in.PlaceID, CreatedBy: in.CreatedBy, PicID: in.PicID, CreatedDT: time.Now().UTC()}
	m.s.images[img.ID] = img
	return img, nil
}
