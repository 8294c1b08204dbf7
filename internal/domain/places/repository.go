package places

import "context"

// PlaceStore persists places. Derived fields (Rating, AcceptsCnt) are
// computed from live children on every read.
type PlaceStore interface {
	Create(ctx context.Context, p NewPlace) (Place, error)
	// Get returns ErrNotFound for a missing id, and for a deleted row unless
	// includeDeleted is set.
	Get(ctx context.Context, id int64, includeDeleted bool) (Place, error)
	// Exists reports whether any row has this id, deleted or not.
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter PlaceFilter, page Page) (ListResult[Place], error)
	// Update writes the non-flag fields of patch. DeletedFlg is ignored.
	Update(ctx context.Context, id int64, patch PlacePatch) error
	// SoftDelete sets deleted_flg and reports whether it was previously false.
	SoftDelete(ctx context.Context, id int64) (bool, error)
	// Restore clears deleted_flg. Children stay deleted.
	Restore(ctx context.Context, id int64) error
}

// ChildStore holds the operations shared by accepts, ratings and images.
// SoftDelete and SoftDeleteByPlace write the flag the same way; the cascade
// only goes through SoftDeleteByPlace.
type ChildStore[T any] interface {
	Get(ctx context.Context, id int64, includeDeleted bool) (T, error)
	List(ctx context.Context, filter ChildFilter, page Page) (ListResult[T], error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
	SoftDeleteByPlace(ctx context.Context, placeID int64) (int64, error)
}

type AcceptStore interface {
	ChildStore[Accept]
	// CreateIfAbsent inserts unless a live accept exists for the pair, in
	// which case it returns ErrAlreadyAccepted.
	CreateIfAbsent(ctx context.Context, a NewAccept) (Accept, error)
}

type RatingStore interface {
	ChildStore[Rating]
	// SoftDeleteActive tombstones the live rating for the pair, if any.
	SoftDeleteActive(ctx context.Context, placeID, createdBy int64) (int64, error)
	// Create inserts a rating. A live rating for the same pair yields ErrConflict.
	Create(ctx context.Context, r NewRating) (Rating, error)
}

type ImageStore interface {
	ChildStore[PlaceImage]
	Create(ctx context.Context, img NewPlaceImage) (PlaceImage, error)
}

// Store groups the per-entity stores and runs work in a transaction.
type Store interface {
	Places() PlaceStore
	Accepts() AcceptStore
	Ratings() RatingStore
	Images() ImageStore

	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
