// Package pagination builds limit/offset page envelopes.
package pagination

import (
	"net/url"
	"strconv"
)

// Page is the list response envelope.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// New wraps one window of results. Links keep every other query parameter
// of requestURL; next is nil on the last page, previous on the first.
func New[T any](requestURL *url.URL, results []T, count int64, limit, offset int) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{
		Count:   count,
		Limit:   limit,
		Offset:  offset,
		Results: results,
	}

	if int64(offset+limit) < count {
		next := withWindow(requestURL, limit, offset+limit)
		page.Next = &next
	}
	if offset > 0 {
		previous := withWindow(requestURL, limit, max(offset-limit, 0))
		page.Previous = &previous
	}
	return page
}

func withWindow(u *url.URL, limit, offset int) string {
	link := *u
	q := link.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	link.RawQuery = q.Encode()
	return link.String()
}
