package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dom/blog-api/internal/domain"
)

const (
	linksOnEachSide = 3
	previousLabel   = "&laquo; Previous"
	nextLabel       = "Next &raquo;"
	ellipsisLabel   = "..."
)

// Paginator is the Laravel-style envelope returned by the post listing.
type Paginator struct {
	CurrentPage  int            `json:"current_page"`
	Data         []*domain.Post `json:"data"`
	FirstPageURL string         `json:"first_page_url"`
	From         *int           `json:"from"`
	LastPage     int            `json:"last_page"`
	LastPageURL  string         `json:"last_page_url"`
	Links        []PageLink     `json:"links"`
	NextPageURL  *string        `json:"next_page_url"`
	Path         string         `json:"path"`
	PerPage      int            `json:"per_page"`
	PrevPageURL  *string        `json:"prev_page_url"`
	To           *int           `json:"to"`
	Total        int64          `json:"total"`
}

type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

func NewPaginator(page *domain.PostPage, path string) *Paginator {
	lastPage := page.LastPage()
	pageURL := func(n int) string {
		return fmt.Sprintf("%s?page=%d", path, n)
	}
	optionalURL := func(n int, ok bool) *string {
		if !ok {
			return nil
		}
		u := pageURL(n)
		return &u
	}

	p := &Paginator{
		CurrentPage:  page.Page,
		Data:         page.Posts,
		FirstPageURL: pageURL(1),
		LastPage:     lastPage,
		LastPageURL:  pageURL(lastPage),
		NextPageURL:  optionalURL(page.Page+1, page.Page < lastPage),
		Path:         path,
		PerPage:      page.PerPage,
		PrevPageURL:  optionalURL(page.Page-1, page.Page > 1),
		Total:        page.Total,
	}
	if p.Data == nil {
		p.Data = []*domain.Post{}
	}

	if len(page.Posts) > 0 {
		from := (page.Page-1)*page.PerPage + 1
		to := from + len(page.Posts) - 1
		p.From = &from
		p.To = &to
	}

	p.Links = append(p.Links, PageLink{URL: p.PrevPageURL, Label: previousLabel})
	for _, n := range pageWindow(page.Page, lastPage) {
		if n == 0 {
			p.Links = append(p.Links, PageLink{Label: ellipsisLabel})
			continue
		}
		p.Links = append(p.Links, PageLink{
			URL:    optionalURL(n, true),
			Label:  strconv.Itoa(n),
			Active: n == page.Page,
		})
	}
	p.Links = append(p.Links, PageLink{URL: p.NextPageURL, Label: nextLabel})

	return p
}

// pageWindow lists the page numbers to link, with 0 marking an elided gap.
// Short listings show every page; long ones keep the first two, the last two
// and the pages around the current one.
func pageWindow(current, last int) []int {
	if last < linksOnEachSide*2+8 {
		return pageRange(1, last)
	}

	window := linksOnEachSide * 2
	switch {
	case current <= window:
		return join(pageRange(1, window+linksOnEachSide), pageRange(last-1, last))
	case current > last-window:
		return join(pageRange(1, 2), pageRange(last-(window+linksOnEachSide-1), last))
	default:
		return join(pageRange(1, 2), pageRange(current-linksOnEachSide, current+linksOnEachSide), pageRange(last-1, last))
	}
}

func pageRange(from, to int) []int {
	pages := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		pages = append(pages, n)
	}
	return pages
}

func join(groups ...[]int) []int {
	var out []int
	for i, g := range groups {
		if i > 0 {
			out = append(out, 0)
		}
		out = append(out, g...)
	}
	return out
}

// requestPath is the absolute URL of the request without its query string.
func requestPath(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)
}
