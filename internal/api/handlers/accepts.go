package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/domain/places"
)

type AcceptService interface {
	ListAccepts(ctx context.Context, p auth.Principal, filter places.ChildFilter, page places.Page) (places.ListResult[places.Accept], error)
	GetAccept(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (places.Accept, error)
	CreateAccept(ctx context.Context, p auth.Principal, in places.NewAccept) (places.Accept, error)
	DeleteAccept(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error
}

type AcceptsHandler struct {
	childHandler[places.Accept, acceptResponse]
	service AcceptService
}

func NewAcceptsHandler(service AcceptService, env string, baseURL string) *AcceptsHandler {
	return &AcceptsHandler{
		childHandler: childHandler[places.Accept, acceptResponse]{
			env:     env,
			baseURL: baseURL,
			list:    service.ListAccepts,
			get:     service.GetAccept,
			remove:  service.DeleteAccept,
			render:  newAcceptResponse,
		},
		service: service,
	}
}

type createAcceptRequest struct {
	PlaceID   int64 `json:"place_id" validate:"required"`
	CreatedBy int64 `json:"created_by" validate:"gte=0"`
}

func (h *AcceptsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAcceptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.env, err)
		return
	}

	accept, err := h.service.CreateAccept(r.Context(), auth.PrincipalFromContext(r.Context()), places.NewAccept{
		PlaceID:   req.PlaceID,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAcceptResponse(accept))
}
