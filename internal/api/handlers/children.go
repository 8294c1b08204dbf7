package handlers

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/places/internal/api/pagination"
	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/domain/places"
)

// childHandler serves the read and delete endpoints shared by accepts,
// ratings and place images. T is the domain row, R its JSON form.
type childHandler[T, R any] struct {
	env     string
	baseURL string
	list    func(ctx context.Context, p auth.Principal, filter places.ChildFilter, page places.Page) (places.ListResult[T], error)
	get     func(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (T, error)
	remove  func(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error
	render  func(T) R
}

func (h childHandler[T, R]) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := places.ParseChildFilter(query)
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}
	page, err := places.ParsePage(query)
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}

	result, err := h.list(r.Context(), auth.PrincipalFromContext(r.Context()), filter, page)
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}

	items := make([]R, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, h.render(item))
	}
	writeJSON(w, http.StatusOK, pagination.New(pageURL(h.baseURL, r), items, result.Total, page.Limit, page.Offset))
}

func (h childHandler[T, R]) Get(w http.ResponseWriter, r *http.Request) {
	id, withDeleted, err := idAndVisibility(r)
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}
	item, err := h.get(r.Context(), auth.PrincipalFromContext(r.Context()), id, withDeleted)
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}
	writeJSON(w, http.StatusOK, h.render(item))
}

func (h childHandler[T, R]) Delete(w http.ResponseWriter, r *http.Request) {
	id, withDeleted, err := idAndVisibility(r)
	if err != nil {
		writeError(w, r, h.env, err)
		return
	}
	if err := h.remove(r.Context(), auth.PrincipalFromContext(r.Context()), id, withDeleted); err != nil {
		writeError(w, r, h.env, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func idAndVisibility(r *http.Request) (int64, bool, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, false, err
	}
	withDeleted, err := places.ParseWithDeleted(r.URL.Query())
	if err != nil {
		return 0, false, err
	}
	return id, withDeleted, nil
}
