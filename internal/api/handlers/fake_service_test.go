package handlers

import (
	"context"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/domain/places"
)

// fakeService records the arguments of the last call and returns canned
// results. It satisfies every service interface the handlers accept.
type fakeService struct {
	err error

	placeList  []places.Place
	place      places.Place
	acceptList []places.Accept
	accept     places.Accept
	ratingList []places.Rating
	rating     places.Rating
	rated      places.RatingResult
	imageList  []places.PlaceImage
	image      places.PlaceImage
	total      int64

	calls          int
	gotPrincipal   auth.Principal
	gotPlaceFilter places.PlaceFilter
	gotChildFilter places.ChildFilter
	gotPage        places.Page
	gotID          int64
	gotWithDeleted bool
	gotNewPlace    places.NewPlace
	gotPatch       places.PlacePatch
	gotNewAccept   places.NewAccept
	gotNewRating   places.NewRating
	gotNewImage    places.NewPlaceImage
}

func (f *fakeService) seen(p auth.Principal) {
	f.calls++
	f.gotPrincipal = p
}

func (f *fakeService) seenID(p auth.Principal, id int64, withDeleted bool) {
	f.seen(p)
	f.gotID = id
	f.gotWithDeleted = withDeleted
}

func (f *fakeService) ListPlaces(_ context.Context, p auth.Principal, filter places.PlaceFilter, page places.Page) (places.ListResult[places.Place], error) {
	f.seen(p)
	f.gotPlaceFilter, f.gotPage = filter, page
	return places.ListResult[places.Place]{Items: f.placeList, Total: f.total}, f.err
}

func (f *fakeService) GetPlace(_ context.Context, p auth.Principal, id int64, withDeleted bool) (places.Place, error) {
	f.seenID(p, id, withDeleted)
	return f.place, f.err
}

func (f *fakeService) CreatePlace(_ context.Context, p auth.Principal, in places.NewPlace) (places.Place, error) {
	f.seen(p)
	f.gotNewPlace = in
	return f.place, f.err
}

func (f *fakeService) UpdatePlace(_ context.Context, p auth.Principal, id int64, patch places.PlacePatch, withDeleted bool) (places.Place, error) {
	f.seenID(p, id, withDeleted)
	f.gotPatch = patch
	return f.place, f.err
}

func (f *fakeService) DeletePlace(_ context.Context, p auth.Principal, id int64, withDeleted bool) error {
	f.seenID(p, id, withDeleted)
	return f.err
}

func (f *fakeService) ListAccepts(_ context.Context, p auth.Principal, filter places.ChildFilter, page places.Page) (places.ListResult[places.Accept], error) {
	f.seen(p)
	f.gotChildFilter, f.gotPage = filter, page
	return places.ListResult[places.Accept]{Items: f.acceptList, Total: f.total}, f.err
}

func (f *fakeService) GetAccept(_ context.Context, p auth.Principal, id int64, withDeleted bool) (places.Accept, error) {
	f.seenID(p, id, withDeleted)
	return f.accept, f.err
}

func (f *fakeService) CreateAccept(_ context.Context, p auth.Principal, in places.NewAccept) (places.Accept, error) {
	f.seen(p)
	f.gotNewAccept = in
	return f.accept, f.err
}

func (f *fakeService) DeleteAccept(_ context.Context, p auth.Principal, id int64, withDeleted bool) error {
	f.seenID(p, id, withDeleted)
	return f.err
}

func (f *fakeService) ListRatings(_ context.Context, p auth.Principal, filter places.ChildFilter, page places.Page) (places.ListResult[places.Rating], error) {
	f.seen(p)
	f.gotChildFilter, f.gotPage = filter, page
	return places.ListResult[places.Rating]{Items: f.ratingList, Total: f.total}, f.err
}

func (f *fakeService) GetRating(_ context.Context, p auth.Principal, id int64, withDeleted bool) (places.Rating, error) {
	f.seenID(p, id, withDeleted)
	return f.rating, f.err
}

func (f *fakeService) CreateRating(_ context.Context, p auth.Principal, in places.NewRating) (places.RatingResult, error) {
	f.seen(p)
	f.gotNewRating = in
	return f.rated, f.err
}

func (f *fakeService) DeleteRating(_ context.Context, p auth.Principal, id int64, withDeleted bool) error {
	f.seenID(p, id, withDeleted)
	return f.err
}

func (f *fakeService) ListImages(_ context.Context, p auth.Principal, filter places.ChildFilter, page places.Page) (places.ListResult[places.PlaceImage], error) {
	f.seen(p)
	f.gotChildFilter, f.gotPage = filter, page
	return places.ListResult[places.PlaceImage]{Items: f.imageList, Total: f.total}, f.err
}

func (f *fakeService) GetImage(_ context.Context, p auth.Principal, id int64, withDeleted bool) (places.PlaceImage, error) {
	f.seenID(p, id, withDeleted)
	return f.image, f.err
}

func (f *fakeService) CreateImage(_ context.Context, p auth.Principal, in places.NewPlaceImage) (places.PlaceImage, error) {
	f.seen(p)
	f.gotNewImage = in
	return f.image, f.err
}

func (f *fakeService) DeleteImage(_ context.Context, p auth.Principal, id int64, withDeleted bool) error {
	f.seenID(p, id, withDeleted)
	return f.err
}
