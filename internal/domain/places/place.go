package places

import "time"

// AcceptType labels how well the community has confirmed a place.
type AcceptType string

const (
	AcceptTypeUnverified     AcceptType = "unverified"
	AcceptTypeWeaklyVerified AcceptType = "weakly verified"
	AcceptTypeVerifiedByMany AcceptType = "verified by many"
	AcceptTypeVerified       AcceptType = "verified"
)

// AcceptTypeFor maps a count of live accepts to its tier.
func AcceptTypeFor(acceptsCnt int64) AcceptType {
	switch {
	case acceptsCnt < 50:
		return AcceptTypeUnverified
	case acceptsCnt < 100:
		return AcceptTypeWeaklyVerified
	case acceptsCnt < 200:
		return AcceptTypeVerifiedByMany
	default:
		return AcceptTypeVerified
	}
}

type Place struct {
	ID                 int64
	Name               string
	Latitude           float64
	Longitude          float64
	Address            string
	CheckedByModerator bool
	CreatedBy          int64
	CreatedDT          time.Time
	DeletedFlg         bool

	// Derived from live children on every read.
	Rating     float64
	AcceptsCnt int64
}

func (p Place) AcceptType() AcceptType {
	return AcceptTypeFor(p.AcceptsCnt)
}

type Accept struct {
	ID         int64
	CreatedBy  int64
	PlaceID    int64
	CreatedDT  time.Time
	DeletedFlg bool
}

type Rating struct {
	ID         int64
	CreatedBy  int64
	PlaceID    int64
	Rating     int
	CreatedDT  time.Time
	UpdatedDT  time.Time
	DeletedFlg bool
}

type PlaceImage struct {
	ID         int64
	CreatedBy  int64
	PlaceID    int64
	PicID      int64
	CreatedDT  time.Time
	DeletedFlg bool
}

type NewPlace struct {
	Name               string
	Latitude           float64
	Longitude          float64
	Address            string
	CheckedByModerator bool
	CreatedBy          int64
}

// PlacePatch carries the fields present in an update request. Nil means
// the field was not part of the changed-field set.
type PlacePatch struct {
	Name               *string
	Latitude           *float64
	Longitude          *float64
	Address            *string
	CheckedByModerator *bool
	CreatedBy          *int64
	DeletedFlg         *bool
}

// HasFieldChanges reports whether the patch touches anything besides the
// deleted flag.
func (p PlacePatch) HasFieldChanges() bool {
	return p.Name != nil || p.Latitude != nil || p.Longitude != nil ||
		p.Address != nil || p.CheckedByModerator != nil || p.CreatedBy != nil
}

type NewAccept struct {
	PlaceID   int64
	CreatedBy int64
}

type NewRating struct {
	PlaceID   int64
	CreatedBy int64
	Rating    int
}

type NewPlaceImage struct {
	PlaceID   int64
	CreatedBy int64
	PicID     int64
}
