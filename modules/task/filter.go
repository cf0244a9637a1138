package task

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

// FilterParams maps a public filter key to its raw query-string value.
type FilterParams map[string]string

// ParseFilterParams extracts filter values from a flat query map.
// Bare keys (?status=pending) are read first and filter[key] entries second,
// so the bracket form wins when both name the same key.
func ParseFilterParams(query map[string]string) FilterParams {
	params := make(FilterParams)
	for key, value := range query {
		if !strings.ContainsAny(key, "[]") {
			params[key] = value
		}
	}
	for key, value := range query {
		if name, ok := bracketKey(key); ok {
			params[name] = value
		}
	}
	return params
}

func bracketKey(key string) (string, bool) {
	if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	name := key[len("filter[") : len(key)-1]
	if name == "" {
		return "", false
	}
	return name, true
}

// predicateFunc narrows a query with one filter value.
type predicateFunc func(db *gorm.DB, value string) *gorm.DB

// QueryFilter is the registry of supported list filters.
// Keys it does not know are ignored, and it never returns an error.
type QueryFilter struct {
	predicates map[string]predicateFunc
}

// NewQueryFilter builds the registry of task filters.
func NewQueryFilter() *QueryFilter {
	return &QueryFilter{
		predicates: map[string]predicateFunc{
			"status":      inList("status"),
			"priority":    inList("priority"),
			"userId":      inList("user_id"),
			"title":       like("title"),
			"description": like("description"),
			"search":      search,
			"dueDate":     onDate("due_date"),
			"createdAt":   onDate("created_at"),
			"updatedAt":   onDate("updated_at"),
			"dueBefore":   dueBefore,
			// include selects related resources for serialization, not rows.
			"include": func(db *gorm.DB, _ string) *gorm.DB { return db },
		},
	}
}

// Supports reports whether key has a registered predicate.
func (f *QueryFilter) Supports(key string) bool {
	_, ok := f.predicates[key]
	return ok
}

// Apply ANDs every recognised filter into db. Keys are applied in sorted order.
func (f *QueryFilter) Apply(db *gorm.DB, params FilterParams) *gorm.DB {
	keys := make([]string, 0, len(params))
	for key := range params {
		if f.Supports(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		db = f.predicates[key](db, params[key])
	}
	return db
}

func inList(column string) predicateFunc {
	return func(db *gorm.DB, value string) *gorm.DB {
		values := splitList(value)
		if len(values) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where(column+" IN ?", values)
	}
}

func like(column string) predicateFunc {
	return func(db *gorm.DB, value string) *gorm.DB {
		return db.Where(column+" LIKE ?", wildcard(value))
	}
}

func search(db *gorm.DB, value string) *gorm.DB {
	pattern := wildcard(value)
	return db.Where("(title LIKE ? OR description LIKE ?)", pattern, pattern)
}

// onDate matches a single day, or an inclusive range between the first two
// dates of a list; anything past the second is ignored.
// SQLite's date() yields NULL for unparsable input, which matches nothing.
func onDate(column string) predicateFunc {
	return func(db *gorm.DB, value string) *gorm.DB {
		dates := strings.Split(value, ",")
		if len(dates) > 1 {
			return db.Where("date("+column+") BETWEEN date(?) AND date(?)",
				strings.TrimSpace(dates[0]), strings.TrimSpace(dates[1]))
		}
		return db.Where("date("+column+") = date(?)", strings.TrimSpace(value))
	}
}

func dueBefore(db *gorm.DB, value string) *gorm.DB {
	return db.Where("date(due_date) <= date(?)", strings.TrimSpace(value))
}

// wildcard turns the public * wildcard into the SQL one.
func wildcard(value string) string {
	return strings.ReplaceAll(value, "*", "%")
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
