package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/places/internal/api/pagination"
	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/domain/places"
)

// PlaceService is the slice of places.Service the place endpoints use.
type PlaceService interface {
	ListPlaces(ctx context.Context, p auth.Principal, filter places.PlaceFilter, page places.Page) (places.ListResult[places.Place], error)
	GetPlace(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (places.Place, error)
	CreatePlace(ctx context.Context, p auth.Principal, in places.NewPlace) (places.Place, error)
	UpdatePlace(ctx context.Context, p auth.Principal, id int64, patch places.PlacePatch, withDeleted bool) (places.Place, error)
	DeletePlace(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error
}

type PlacesHandler struct {
	Service PlaceService
	Env     string
	BaseURL string
}

func NewPlacesHandler(service PlaceService, env string, baseURL string) *PlacesHandler {
	return &PlacesHandler{Service: service, Env: env, BaseURL: baseURL}
}

type createPlaceRequest struct {
	Name               string   `json:"name" validate:"required"`
	Latitude           *float64 `json:"latitude" validate:"required"`
	Longitude          *float64 `json:"longitude" validate:"required"`
	Address            string   `json:"address" validate:"required"`
	CheckedByModerator bool     `json:"checked_by_moderator"`
	CreatedBy          int64    `json:"created_by" validate:"gte=0"`
}

// updatePlaceRequest is a partial update: absent fields stay unchanged.
type updatePlaceRequest struct {
	Name               *string  `json:"name"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Address            *string  `json:"address"`
	CheckedByModerator *bool    `json:"checked_by_moderator"`
	CreatedBy          *int64   `json:"created_by" validate:"omitnil,gt=0"`
	DeletedFlg         *bool    `json:"deleted_flg"`
}

func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := places.ParsePlaceFilter(query)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	page, err := places.ParsePage(query)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}

	result, err := h.Service.ListPlaces(r.Context(), auth.PrincipalFromContext(r.Context()), filter, page)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}

	items := make([]placeResponse, 0, len(result.Items))
	for _, place := range result.Items {
		items = append(items, placeSummary(place))
	}
	writeJSON(w, http.StatusOK, pagination.New(pageURL(h.BaseURL, r), items, result.Total, page.Limit, page.Offset))
}

func (h *PlacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, withDeleted, err := idAndVisibility(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}

	place, err := h.Service.GetPlace(r.Context(), auth.PrincipalFromContext(r.Context()), id, withDeleted)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, placeDetail(place))
}

func (h *PlacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Env, err)
		return
	}

	place, err := h.Service.CreatePlace(r.Context(), auth.PrincipalFromContext(r.Context()), places.NewPlace{
		Name:               req.Name,
		Latitude:           *req.Latitude,
		Longitude:          *req.Longitude,
		Address:            req.Address,
		CheckedByModerator: req.CheckedByModerator,
		CreatedBy:          req.CreatedBy,
	})
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeDetail(place))
}

// Update answers 202 with the place as stored after the change.
func (h *PlacesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, withDeleted, err := idAndVisibility(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	var req updatePlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Env, err)
		return
	}

	place, err := h.Service.UpdatePlace(r.Context(), auth.PrincipalFromContext(r.Context()), id, places.PlacePatch{
		Name:               req.Name,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		Address:            req.Address,
		CheckedByModerator: req.CheckedByModerator,
		CreatedBy:          req.CreatedBy,
		DeletedFlg:         req.DeletedFlg,
	}, withDeleted)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusAccepted, placeDetail(place))
}

func (h *PlacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, withDeleted, err := idAndVisibility(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	if err := h.Service.DeletePlace(r.Context(), auth.PrincipalFromContext(r.Context()), id, withDeleted); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
