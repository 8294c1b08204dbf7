package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/Togather-Foundation/places/internal/sanitize"
	"github.com/rs/zerolog"
)

const (
	MinRating = 0
	MaxRating = 5

	maxTextLength = 512

	// maxRatingAttempts bounds retries when a concurrent rating for the same
	// pair wins the race on the partial unique index.
	maxRatingAttempts = 3
)

type Service struct {
	store  Store
	media  MediaValidator
	events EventReporter
}

// NewService wires the domain to its store and collaborators. events may be
// nil, in which case no usage events are sent.
func NewService(store Store, media MediaValidator, events EventReporter) *Service {
	return &Service{store: store, media: media, events: events}
}

// RatingResult is a freshly created rating plus the place's mean rating
// after the write.
type RatingResult struct {
	Rating        Rating
	CurrentRating float64
}

// Places

func (s *Service) ListPlaces(ctx context.Context, p auth.Principal, filter PlaceFilter, page Page) (ListResult[Place], error) {
	filter.IncludeDeleted = ShowDeleted(filter.IncludeDeleted, p.Role)
	return s.store.Places().List(ctx, filter, page)
}

func (s *Service) GetPlace(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (Place, error) {
	place, err := s.store.Places().Get(ctx, id, ShowDeleted(withDeleted, p.Role))
	if err != nil {
		return Place{}, err
	}
	s.emit(ctx, ActionPlaceOpened, place.ID, p.UserID)
	return place, nil
}

func (s *Service) CreatePlace(ctx context.Context, p auth.Principal, in NewPlace) (Place, error) {
	var err error
	if in.Name, err = cleanText("name", in.Name); err != nil {
		return Place{}, err
	}
	if in.Address, err = cleanText("address", in.Address); err != nil {
		return Place{}, err
	}
	if in.CreatedBy, err = resolveCreator(in.CreatedBy, p); err != nil {
		return Place{}, err
	}

	place, err := s.store.Places().Create(ctx, in)
	if err != nil {
		return Place{}, fmt.Errorf("create place: %w", err)
	}
	s.emit(ctx, ActionPlaceCreated, place.ID, in.CreatedBy)
	return place, nil
}

// UpdatePlace applies patch to a place visible to the caller. Setting
// deleted_flg to true soft-deletes the place and cascades to its children
// when the flag actually flips; setting it to false restores only the place.
func (s *Service) UpdatePlace(ctx context.Context, p auth.Principal, id int64, patch PlacePatch, withDeleted bool) (Place, error) {
	if err := cleanPatch(&patch); err != nil {
		return Place{}, err
	}
	showDeleted := ShowDeleted(withDeleted, p.Role)

	var updated Place
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Places().Get(ctx, id, showDeleted); err != nil {
			return err
		}
		if patch.HasFieldChanges() {
			if err := tx.Places().Update(ctx, id, patch); err != nil {
				return fmt.Errorf("update place: %w", err)
			}
		}
		if patch.DeletedFlg != nil {
			if *patch.DeletedFlg {
				if _, err := softDeletePlace(ctx, tx, id); err != nil {
					return err
				}
			} else if err := tx.Places().Restore(ctx, id); err != nil {
				return fmt.Errorf("restore place: %w", err)
			}
		}

		var err error
		updated, err = tx.Places().Get(ctx, id, true)
		return err
	})
	if err != nil {
		return Place{}, err
	}

	s.emit(ctx, ActionPlaceEdited, id, p.UserID)
	return updated, nil
}

// DeletePlace soft-deletes a place visible to the caller and its children.
// Deleting an already deleted place is a no-op.
func (s *Service) DeletePlace(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error {
	showDeleted := ShowDeleted(withDeleted, p.Role)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Places().Get(ctx, id, showDeleted); err != nil {
			return err
		}
		_, err := softDeletePlace(ctx, tx, id)
		return err
	})
	if err != nil {
		return err
	}

	s.emit(ctx, ActionPlaceDeleted, id, p.UserID)
	return nil
}

// softDeletePlace flips the place's flag and, only on a real transition,
// runs the cascade inside the same transaction.
func softDeletePlace(ctx context.Context, tx Store, id int64) (bool, error) {
	changed, err := tx.Places().SoftDelete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("soft delete place: %w", err)
	}
	if !changed {
		return false, nil
	}
	metrics.SoftDeletesTotal.WithLabelValues("place", "direct").Inc()
	if _, err := cascadeSoftDelete(ctx, tx, id); err != nil {
		return true, err
	}
	return true, nil
}

// Accepts

func (s *Service) ListAccepts(ctx context.Context, p auth.Principal, filter ChildFilter, page Page) (ListResult[Accept], error) {
	filter.IncludeDeleted = ShowDeleted(filter.IncludeDeleted, p.Role)
	return s.store.Accepts().List(ctx, filter, page)
}

func (s *Service) GetAccept(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (Accept, error) {
	return s.store.Accepts().Get(ctx, id, ShowDeleted(withDeleted, p.Role))
}

// CreateAccept records that a user confirms a place. A second live accept
// for the same pair is rejected.
func (s *Service) CreateAccept(ctx context.Context, p auth.Principal, in NewAccept) (Accept, error) {
	var err error
	if in.CreatedBy, err = resolveCreator(in.CreatedBy, p); err != nil {
		return Accept{}, err
	}
	if err := s.requirePlace(ctx, s.store, in.PlaceID); err != nil {
		return Accept{}, err
	}

	accept, err := s.store.Accepts().CreateIfAbsent(ctx, in)
	switch {
	case errors.Is(err, ErrAlreadyAccepted):
		metrics.UniquenessConflictsTotal.WithLabelValues("accept").Inc()
		return Accept{}, invalid("", "already confirmed this place")
	case errors.Is(err, ErrPlaceMissing):
		return Accept{}, invalid("place_id", "place does not exist")
	case err != nil:
		return Accept{}, fmt.Errorf("create accept: %w", err)
	}

	s.emit(ctx, ActionPlaceAccepted, accept.PlaceID, accept.CreatedBy)
	return accept, nil
}

// DeleteAccept soft-deletes any accept visible to the caller. Ownership is
// not checked.
func (s *Service) DeleteAccept(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error {
	return deleteChild[Accept](ctx, s.store.Accepts(), "accept", id, ShowDeleted(withDeleted, p.Role))
}

// Ratings

func (s *Service) ListRatings(ctx context.Context, p auth.Principal, filter ChildFilter, page Page) (ListResult[Rating], error) {
	filter.IncludeDeleted = ShowDeleted(filter.IncludeDeleted, p.Role)
	return s.store.Ratings().List(ctx, filter, page)
}

func (s *Service) GetRating(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (Rating, error) {
	return s.store.Ratings().Get(ctx, id, ShowDeleted(withDeleted, p.Role))
}

// CreateRating replaces the caller's live rating for the place, if any,
// with a new one and reports the place's resulting mean rating.
func (s *Service) CreateRating(ctx context.Context, p auth.Principal, in NewRating) (RatingResult, error) {
	if err := ValidateRating(in.Rating); err != nil {
		return RatingResult{}, err
	}
	var err error
	if in.CreatedBy, err = resolveCreator(in.CreatedBy, p); err != nil {
		return RatingResult{}, err
	}

	var result RatingResult
	for attempt := 1; ; attempt++ {
		err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
			if err := s.requirePlace(ctx, tx, in.PlaceID); err != nil {
				return err
			}
			superseded, err := tx.Ratings().SoftDeleteActive(ctx, in.PlaceID, in.CreatedBy)
			if err != nil {
				return fmt.Errorf("supersede rating: %w", err)
			}
			created, err := tx.Ratings().Create(ctx, in)
			if err != nil {
				return err
			}
			place, err := tx.Places().Get(ctx, in.PlaceID, true)
			if err != nil {
				return err
			}
			if superseded > 0 {
				metrics.RatingSupersessionsTotal.Add(float64(superseded))
			}
			result = RatingResult{Rating: created, CurrentRating: place.Rating}
			return nil
		})
		if !errors.Is(err, ErrConflict) || attempt >= maxRatingAttempts {
			break
		}
		metrics.UniquenessConflictsTotal.WithLabelValues("rating").Inc()
		zerolog.Ctx(ctx).Debug().Int("attempt", attempt).Int64("place_id", in.PlaceID).Msg("rating write raced, retrying")
	}

	switch {
	case errors.Is(err, ErrPlaceMissing):
		return RatingResult{}, invalid("place_id", "place does not exist")
	case err != nil:
		return RatingResult{}, err
	}
	return result, nil
}

func (s *Service) DeleteRating(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error {
	return deleteChild[Rating](ctx, s.store.Ratings(), "rating", id, ShowDeleted(withDeleted, p.Role))
}

// Place images

func (s *Service) ListImages(ctx context.Context, p auth.Principal, filter ChildFilter, page Page) (ListResult[PlaceImage], error) {
	filter.IncludeDeleted = ShowDeleted(filter.IncludeDeleted, p.Role)
	return s.store.Images().List(ctx, filter, page)
}

func (s *Service) GetImage(ctx context.Context, p auth.Principal, id int64, withDeleted bool) (PlaceImage, error) {
	return s.store.Images().Get(ctx, id, ShowDeleted(withDeleted, p.Role))
}

// CreateImage attaches a Media image to a place after confirming the image
// resolves in the Media service.
func (s *Service) CreateImage(ctx context.Context, p auth.Principal, in NewPlaceImage) (PlaceImage, error) {
	var err error
	if in.CreatedBy, err = resolveCreator(in.CreatedBy, p); err != nil {
		return PlaceImage{}, err
	}
	if in.PicID <= 0 {
		return PlaceImage{}, invalid("pic_id", "must be a positive integer")
	}
	if err := s.requirePlace(ctx, s.store, in.PlaceID); err != nil {
		return PlaceImage{}, err
	}

	ok, err := s.media.ImageExists(ctx, in.PicID, p.Token)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("pic_id", in.PicID).Msg("media lookup failed")
		return PlaceImage{}, invalid("pic_id", "image could not be verified")
	}
	if !ok {
		return PlaceImage{}, invalid("pic_id", "image does not exist")
	}

	img, err := s.store.Images().Create(ctx, in)
	switch {
	case errors.Is(err, ErrPlaceMissing):
		return PlaceImage{}, invalid("place_id", "place does not exist")
	case err != nil:
		return PlaceImage{}, fmt.Errorf("create place image: %w", err)
	}
	return img, nil
}

func (s *Service) DeleteImage(ctx context.Context, p auth.Principal, id int64, withDeleted bool) error {
	return deleteChild[PlaceImage](ctx, s.store.Images(), "place_image", id, ShowDeleted(withDeleted, p.Role))
}

// helpers

func deleteChild[T any](ctx context.Context, store ChildStore[T], entity string, id int64, showDeleted bool) error {
	if _, err := store.Get(ctx, id, showDeleted); err != nil {
		return err
	}
	changed, err := store.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", entity, err)
	}
	if changed {
		metrics.SoftDeletesTotal.WithLabelValues(entity, "direct").Inc()
	}
	return nil
}

// requirePlace accepts any existing place row, deleted or not.
func (s *Service) requirePlace(ctx context.Context, store Store, placeID int64) error {
	if placeID <= 0 {
		return invalid("place_id", "must be a positive integer")
	}
	exists, err := store.Places().Exists(ctx, placeID)
	if err != nil {
		return fmt.Errorf("check place: %w", err)
	}
	if !exists {
		return invalid("place_id", "place does not exist")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action EventAction, placeID, userID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.Report(ctx, Event{Action: action, PlaceID: placeID, UserID: userID}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", string(action)).Int64("place_id", placeID).Msg("stats event dropped")
	}
}

// ValidateRating enforces the closed range [0, 5].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return invalid("rating", fmt.Sprintf("must be between %d and %d", MinRating, MaxRating))
	}
	return nil
}

// resolveCreator uses the explicit created_by when given, else the caller.
func resolveCreator(explicit int64, p auth.Principal) (int64, error) {
	switch {
	case explicit > 0:
		return explicit, nil
	case explicit < 0:
		return 0, invalid("created_by", "must be a positive integer")
	case p.UserID > 0:
		return p.UserID, nil
	default:
		return 0, invalid("created_by", "required")
	}
}

func cleanText(field, value string) (string, error) {
	cleaned := strings.TrimSpace(sanitize.Text(value))
	if cleaned == "" {
		return "", invalid(field, "must not be empty")
	}
	if utf8.RuneCountInString(cleaned) > maxTextLength {
		return "", invalid(field, fmt.Sprintf("must be at most %d characters", maxTextLength))
	}
	return cleaned, nil
}

func cleanPatch(patch *PlacePatch) error {
	if patch.Name != nil {
		name, err := cleanText("name", *patch.Name)
		if err != nil {
			return err
		}
		patch.Name = &name
	}
	if patch.Address != nil {
		address, err := cleanText("address", *patch.Address)
		if err != nil {
			return err
		}
		patch.Address = &address
	}
	if patch.CreatedBy != nil && *patch.CreatedBy <= 0 {
		return invalid("created_by", "must be a positive integer")
	}
	return nil
}
