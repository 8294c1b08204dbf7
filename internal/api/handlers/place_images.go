package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/domain/places"
)

type ImageService interface {
	ListImages(ctx context.Context, p auth.Principal, filter places.ChildFilter, page places.Page) (places.ListResult[places.PlaceImage], error)
	GetImage(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (places.PlaceImage, error)
	CreateImage(ctx context.Context, p auth.Principal, in places.NewPlaceImage) (places.PlaceImage, error)
	DeleteImage(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error
}

type PlaceImagesHandler struct {
	childHandler[places.PlaceImage, placeImageResponse]
	service ImageService
}

func NewPlaceImagesHandler(service ImageService, env string, baseURL string) *PlaceImagesHandler {
	return &PlaceImagesHandler{
		childHandler: childHandler[places.PlaceImage, placeImageResponse]{
			env:     env,
			baseURL: baseURL,
			list:    service.ListImages,
			get:     service.GetImage,
			remove:  service.DeleteImage,
			render:  newPlaceImageResponse,
		},
		service: service,
	}
}

type createPlaceImageRequest struct {
	PlaceID   int64 `json:"place_id" validate:"required"`
	PicID     int64 `json:"pic_id" validate:"required"`
	CreatedBy int64 `json:"created_by" validate:"gte=0"`
}

func (h *PlaceImagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPlaceImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.env, err)
		return
	}

	img, err := h.service.CreateImage(r.Context(), auth.PrincipalFromContext(r.Context()), places.NewPlaceImage{
		PlaceID:   req.PlaceID,
		PicID:     req.PicID,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPlaceImageResponse(img))
}
