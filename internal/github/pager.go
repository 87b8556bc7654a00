package github

import (
	"context"
	"strings"
)

// perPage is the page size requested for every paginated collection.
const perPage = "per_page=100"

// Pager walks a paginated collection one page at a time, following the
// rel="next" entry of the Link response header.
//
// A Pager belongs to the caller that created it and must not be shared between
// goroutines. It is not restartable: once exhausted, or after a failed page
// fetch, create a new one.
type Pager[T any] struct {
	client  *Client
	headers []Header
	next    string
}

// NewPager creates a pager starting at path. The page size parameter is
// appended to path.
func NewPager[T any](client *Client, path string, headers ...Header) *Pager[T] {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return &Pager[T]{
		client:  client,
		headers: headers,
		next:    path + sep + perPage,
	}
}

// HasNext reports whether another page can be fetched.
func (p *Pager[T]) HasNext() bool {
	return p.next != ""
}

// Next fetches the following page. It returns ErrNoMorePages when the pager is
// exhausted. The pager moves past the page before fetching it, so an error
// leaves it exhausted.
func (p *Pager[T]) Next(ctx context.Context, creds Credentials) ([]T, error) {
	if !p.HasNext() {
		return nil, ErrNoMorePages
	}
	path := p.next
	p.next = ""

	resp, err := p.client.do(ctx, creds, Request{Method: MethodGet, Path: path, Headers: p.headers})
	if err != nil {
		return nil, err
	}
	items, err := decodeArray[T](resp.body)
	if err != nil {
		return nil, err
	}
	p.next = resp.next
	return items, nil
}

// All fetches every remaining page in order. On error the partial result is
// discarded.
func (p *Pager[T]) All(ctx context.Context, creds Credentials) ([]T, error) {
	var all []T
	for p.HasNext() {
		page, err := p.Next(ctx, creds)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	if all == nil {
		all = []T{}
	}
	return all, nil
}

// nextPagePath extracts the rel="next" target from a Link header and reduces it
// to a path below the API origin of host.
//
// The URL taken is the one between the last '<' and '>' preceding the
// rel="next" marker. Only its path and query are kept, so the request is always
// sent to the configured origin. When the link names a different host that
// host is returned as foreign for the caller to report. An enterprise origin
// prefix such as /api/v3 is removed so it is not applied twice.
func nextPagePath(link, host string) (path string, foreign string) {
	marker := strings.Index(link, `rel="next"`)
	if marker == -1 {
		return "", ""
	}
	end := strings.LastIndex(link[:marker], ">")
	if end == -1 {
		return "", ""
	}
	start := strings.LastIndex(link[:end], "<")
	if start == -1 {
		return "", ""
	}

	target := link[start+1 : end]
	if _, rest, ok := strings.Cut(target, "://"); ok {
		target = rest
	} else {
		target = RemoveProtocolPrefix(target)
	}
	slash := strings.Index(target, "/")
	if slash == -1 {
		return "", ""
	}
	linkHost, path := target[:slash], target[slash:]

	originHost, originPath, _ := strings.Cut(ResolveAPIOrigin(host), "/")
	if originPath != "" {
		prefix := "/" + originPath
		lower := strings.ToLower(path)
		lowerPrefix := strings.ToLower(prefix)
		if lower == lowerPrefix || strings.HasPrefix(lower, lowerPrefix+"/") || strings.HasPrefix(lower, lowerPrefix+"?") {
			path = path[len(prefix):]
			if path == "" || path[0] == '?' {
				path = "/" + path
			}
		}
	}

	if linkHost != "" && !strings.EqualFold(linkHost, originHost) {
		foreign = linkHost
	}
	return path, foreign
}
