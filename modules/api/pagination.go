package api

import (
	"strconv"

	"github.com/example/task-api/modules/task"
)

// PaginationLinks navigate a paged collection. Prev and Next are null at the edges.
type PaginationLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// PaginationMeta describes the position of a page in the collection.
type PaginationMeta struct {
	CurrentPage int    `json:"current_page"`
	From        *int   `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          *int   `json:"to"`
	Total       int64  `json:"total"`
}

// parsePage reads a 1-indexed page number; anything unusable is page 1.
func parsePage(value string) int {
	page, err := strconv.Atoi(value)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func pageURL(path string, page int) string {
	return path + "?page=" + strconv.Itoa(page)
}

// paginate builds links and meta for page, whose collection lives at path.
func paginate(path string, page *task.TaskPage) (PaginationLinks, PaginationMeta) {
	links := PaginationLinks{
		First: pageURL(path, 1),
		Last:  pageURL(path, page.LastPage),
	}
	if page.Page > 1 {
		prev := pageURL(path, page.Page-1)
		links.Prev = &prev
	}
	if page.Page < page.LastPage {
		next := pageURL(path, page.Page+1)
		links.Next = &next
	}

	meta := PaginationMeta{
		CurrentPage: page.Page,
		LastPage:    page.LastPage,
		Path:        path,
		PerPage:     page.PerPage,
		Total:       page.Total,
	}
	if n := len(page.Tasks); n > 0 {
		from := (page.Page-1)*page.PerPage + 1
		to := from + n - 1
		meta.From, meta.To = &from, &to
	}
	return links, meta
}
