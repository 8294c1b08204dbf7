package handlers

import (
	"time"

	"github.com/Togather-Foundation/places/internal/domain/places"
)

type placeResponse struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	Address            string     `json:"address"`
	CheckedByModerator bool       `json:"checked_by_moderator"`
	CreatedBy          int64      `json:"created_by"`
	CreatedDT          *time.Time `json:"created_dt,omitempty"`
	DeletedFlg         bool       `json:"deleted_flg"`
	Rating             float64    `json:"rating"`
	AcceptsCnt         int64      `json:"accepts_cnt"`
	AcceptType         string     `json:"accept_type"`
}

// placeSummary is the list representation.
func placeSummary(p places.Place) placeResponse {
	return placeResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		Address:            p.Address,
		CheckedByModerator: p.CheckedByModerator,
		CreatedBy:          p.CreatedBy,
		DeletedFlg:         p.DeletedFlg,
		Rating:             p.Rating,
		AcceptsCnt:         p.AcceptsCnt,
		AcceptType:         string(p.AcceptType()),
	}
}

// placeDetail adds the creation time to the list representation.
func placeDetail(p places.Place) placeResponse {
	resp := placeSummary(p)
	created := p.CreatedDT.UTC()
	resp.CreatedDT = &created
	return resp
}

type acceptResponse struct {
	ID         int64     `json:"id"`
	CreatedBy  int64     `json:"created_by"`
	PlaceID    int64     `json:"place_id"`
	CreatedDT  time.Time `json:"created_dt"`
	DeletedFlg bool      `json:"deleted_flg"`
}

func newAcceptResponse(a places.Accept) acceptResponse {
	return acceptResponse{
		ID:         a.ID,
		CreatedBy:  a.CreatedBy,
		PlaceID:    a.PlaceID,
		CreatedDT:  a.CreatedDT.UTC(),
		DeletedFlg: a.DeletedFlg,
	}
}

type ratingResponse struct {
	ID         int64     `json:"id"`
	CreatedBy  int64     `json:"created_by"`
	PlaceID    int64     `json:"place_id"`
	Rating     int       `json:"rating"`
	CreatedDT  time.Time `json:"created_dt"`
	UpdatedDT  time.Time `json:"updated_dt"`
	DeletedFlg bool      `json:"deleted_flg"`
}

func newRatingResponse(r places.Rating) ratingResponse {
	return ratingResponse{
		ID:         r.ID,
		CreatedBy:  r.CreatedBy,
		PlaceID:    r.PlaceID,
		Rating:     r.Rating,
		CreatedDT:  r.CreatedDT.UTC(),
		UpdatedDT:  r.UpdatedDT.UTC(),
		DeletedFlg: r.DeletedFlg,
	}
}

// ratingCreatedResponse is a new rating plus the place's mean after it.
type ratingCreatedResponse struct {
	ratingResponse
	CurrentRating float64 `json:"current_rating"`
}

type placeImageResponse struct {
	ID         int64     `json:"id"`
	CreatedBy  int64     `json:"created_by"`
	PlaceID    int64     `json:"place_id"`
	PicID      int64     `json:"pic_id"`
	CreatedDT  time.Time `json:"created_dt"`
	DeletedFlg bool      `json:"deleted_flg"`
}

func newPlaceImageResponse(img places.PlaceImage) placeImageResponse {
	return placeImageResponse{
		ID:         img.ID,
		CreatedBy:  img.CreatedBy,
		PlaceID:    img.PlaceID,
		PicID:      img.PicID,
		CreatedDT:  img.CreatedDT.UTC(),
		DeletedFlg: img.DeletedFlg,
	}
}
