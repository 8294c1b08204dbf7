package places

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Page is an offset/limit window over an id-ordered result set.
type Page struct {
	Limit  int
	Offset int
}

// ListResult is one page of rows plus the total number of matching rows.
type ListResult[T any] struct {
	Items []T
	Total int64
}

// BoundingBox is a normalized rectangle: Min <= Max on both axes.
type BoundingBox struct {
	MinLat  float64
	MaxLat  float64
	MinLong float64
	MaxLong float64
}

// NewBoundingBox builds a rectangle from two opposite corners given in
// either diagonal order.
func NewBoundingBox(lat1, long1, lat2, long2 float64) BoundingBox {
	return BoundingBox{
		MinLat:  min(lat1, lat2),
		MaxLat:  max(lat1, lat2),
		MinLong: min(long1, long2),
		MaxLong: max(long1, long2),
	}
}

func (b BoundingBox) Contains(lat, long float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && long >= b.MinLong && long <= b.MaxLong
}

// PlaceFilter narrows a place listing. IncludeDeleted is what the caller
// asked for until the service replaces it with the effective visibility.
type PlaceFilter struct {
	IncludeDeleted bool
	Box            *BoundingBox
	CreatedBy      *int64
}

// ChildFilter narrows accept, rating and image listings.
type ChildFilter struct {
	IncludeDeleted bool
	PlaceID        *int64
}

// ParsePlaceFilter reads with_deleted, only_mine, user_id and the four
// bounding-box corners.
func ParsePlaceFilter(values url.Values) (PlaceFilter, error) {
	var filter PlaceFilter

	withDeleted, err := ParseWithDeleted(values)
	if err != nil {
		return filter, err
	}
	filter.IncludeDeleted = withDeleted

	box, err := parseBoundingBox(values)
	if err != nil {
		return filter, err
	}
	filter.Box = box

	onlyMine, err := parseBool(values, "only_mine")
	if err != nil {
		return filter, err
	}
	if onlyMine {
		rawUser := strings.TrimSpace(values.Get("user_id"))
		if rawUser == "" {
			return filter, invalid("user_id", "required when only_mine is set")
		}
		userID, err := strconv.ParseInt(rawUser, 10, 64)
		if err != nil || userID <= 0 {
			return filter, invalid("user_id", "must be a positive integer")
		}
		filter.CreatedBy = &userID
	}

	return filter, nil
}

// ParseChildFilter reads with_deleted and place_id.
func ParseChildFilter(values url.Values) (ChildFilter, error) {
	var filter ChildFilter

	withDeleted, err := ParseWithDeleted(values)
	if err != nil {
		return filter, err
	}
	filter.IncludeDeleted = withDeleted

	if rawPlace := strings.TrimSpace(values.Get("place_id")); rawPlace != "" {
		placeID, err := strconv.ParseInt(rawPlace, 10, 64)
		if err != nil || placeID <= 0 {
			return filter, invalid("place_id", "must be a positive integer")
		}
		filter.PlaceID = &placeID
	}
	return filter, nil
}

// ParseWithDeleted reads the with_deleted flag; absent means false.
func ParseWithDeleted(values url.Values) (bool, error) {
	return parseBool(values, "with_deleted")
}

// ParsePage reads limit and offset.
func ParsePage(values url.Values) (Page, error) {
	page := Page{Limit: DefaultLimit}

	if rawLimit := strings.TrimSpace(values.Get("limit")); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			return page, invalid("limit", "must be a number")
		}
		if parsed < 1 || parsed > MaxLimit {
			return page, invalid("limit", "must be between 1 and 200")
		}
		page.Limit = parsed
	}

	if rawOffset := strings.TrimSpace(values.Get("offset")); rawOffset != "" {
		parsed, err := strconv.Atoi(rawOffset)
		if err != nil {
			return page, invalid("offset", "must be a number")
		}
		if parsed < 0 {
			return page, invalid("offset", "must not be negative")
		}
		page.Offset = parsed
	}

	return page, nil
}

var boxParams = [4]string{"lat1", "long1", "lat2", "long2"}

func parseBoundingBox(values url.Values) (*BoundingBox, error) {
	var raw [4]string
	present := 0
	for i, name := range boxParams {
		raw[i] = strings.TrimSpace(values.Get(name))
		if raw[i] != "" {
			present++
		}
	}

	switch present {
	case 0:
		return nil, nil
	case len(boxParams):
	default:
		return nil, invalid("lat1,long1,lat2,long2", "all 4 coordinates required")
	}

	var coords [4]float64
	for i, name := range boxParams {
		parsed, err := strconv.ParseFloat(raw[i], 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return nil, invalid(name, "must be a valid number")
		}
		coords[i] = parsed
	}

	box := NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
	return &box, nil
}

func parseBool(values url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(name, "must be true or false")
	}
	return parsed, nil
}
