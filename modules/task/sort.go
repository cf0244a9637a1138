package task

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortableColumns maps public sort names to columns.
var sortableColumns = map[string]string{
	"title":      "title",
	"status":     "status",
	"priority":   "priority",
	"dueDate":    "due_date",
	"due_date":   "due_date",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

// SortField is one resolved ordering term.
type SortField struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// ParseSort resolves a comma separated sort directive such as "-dueDate,title".
// Unknown or repeated fields are skipped.
func ParseSort(value string) []SortField {
	var fields []SortField
	seen := make(map[string]bool)
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		desc := strings.HasPrefix(token, "-")
		token = strings.TrimPrefix(token, "-")

		column, ok := sortableColumns[token]
		if !ok || seen[column] {
			continue
		}
		seen[column] = true
		fields = append(fields, SortField{Column: column, Desc: desc})
	}
	return fields
}

// ApplySort orders db by the given fields, always ending with id for a stable order.
func ApplySort(db *gorm.DB, fields []SortField) *gorm.DB {
	for _, f := range fields {
		if !isSortable(f.Column) {
			continue
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: f.Column}, Desc: f.Desc})
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

// isSortable guards fields that arrive over the service container rather than from ParseSort.
func isSortable(column string) bool {
	for _, c := range sortableColumns {
		if c == column {
			return true
		}
	}
	return false
}
