package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/domain/places"
)

type RatingService interface {
	ListRatings(ctx context.Context, p auth.Principal, filter places.ChildFilter, page places.Page) (places.ListResult[places.Rating], error)
	GetRating(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (places.Rating, error)
	CreateRating(ctx context.Context, p auth.Principal, in places.NewRating) (places.RatingResult, error)
	DeleteRating(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error
}

type RatingsHandler struct {
	childHandler[places.Rating, ratingResponse]
	service RatingService
}

func NewRatingsHandler(service RatingService, env string, baseURL string) *RatingsHandler {
	return &RatingsHandler{
		childHandler: childHandler[places.Rating, ratingResponse]{
			env:     env,
			baseURL: baseURL,
			list:    service.ListRatings,
			get:     service.GetRating,
			remove:  service.DeleteRating,
			render:  newRatingResponse,
		},
		service: service,
	}
}

type createRatingRequest struct {
	PlaceID   int64 `json:"place_id" validate:"required"`
	Rating    *int  `json:"rating" validate:"required"`
	CreatedBy int64 `json:"created_by" validate:"gte=0"`
}

// Create supersedes the caller's previous rating of the place and reports
// the resulting mean as current_rating.
func (h *RatingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.env, err)
		return
	}

	result, err := h.service.CreateRating(r.Context(), auth.PrincipalFromContext(r.Context()), places.NewRating{
		PlaceID:   req.PlaceID,
		CreatedBy: req.CreatedBy,
		Rating:    *req.Rating,
	})
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}
	writeJSON(w, http.StatusCreated, ratingCreatedResponse{
		ratingResponse: newRatingResponse(result.Rating),
		CurrentRating:  result.CurrentRating,
	})
}
