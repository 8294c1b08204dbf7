package places

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/rs/zerolog"
)

// CascadeResult counts the children tombstoned by one cascade run.
type CascadeResult struct {
	Accepts int64
	Ratings int64
	Images  int64
}

// cascadeSoftDelete tombstones every live child of placeID. It must run in
// the same transaction that flipped the place's deleted flag. Running it
// again finds no live children and changes nothing.
func cascadeSoftDelete(ctx context.Context, store Store, placeID int64) (CascadeResult, error) {
	var (
		res CascadeResult
		err error
	)

	if res.Accepts, err = store.Accepts().SoftDeleteByPlace(ctx, placeID); err != nil {
		return res, fmt.Errorf("cascade accepts: %w", err)
	}
	if res.Ratings, err = store.Ratings().SoftDeleteByPlace(ctx, placeID); err != nil {
		return res, fmt.Errorf("cascade ratings: %w", err)
	}
	if res.Images, err = store.Images().SoftDeleteByPlace(ctx, placeID); err != nil {
		return res, fmt.Errorf("cascade images: %w", err)
	}

	metrics.CascadeRunsTotal.Inc()
	metrics.SoftDeletesTotal.WithLabelValues("accept", "cascade").Add(float64(res.Accepts))
	metrics.SoftDeletesTotal.WithLabelValues("rating", "cascade").Add(float64(res.Ratings))
	metrics.SoftDeletesTotal.WithLabelValues("place_image", "cascade").Add(float64(res.Images))

	zerolog.Ctx(ctx).Info().
		Int64("place_id", placeID).
		Int64("accepts", res.Accepts).
		Int64("ratings", res.Ratings).
		Int64("images", res.Images).
		Msg("place soft-delete cascaded")

	return res, nil
}
