package task

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	DirectionAsc  = "ASC"
	DirectionDesc = "DESC"
)

var sortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"status":     "status",
	"priority":   "priority",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

// PageRequest selects one page of tasks. Page is zero-based.
type PageRequest struct {
	Page      int    `json:"page"`
	Size      int    `json:"size"`
	SortBy    string `json:"sortBy"`
	Direction string `json:"direction"`
}

func DefaultPageRequest() PageRequest {
	return PageRequest{Page: 0, Size: DefaultPageSize, SortBy: "id", Direction: DirectionAsc}
}

func (p PageRequest) Validate() error {
	sortable := make([]interface{}, 0, len(sortColumns))
	for k := range sortColumns {
		sortable = append(sortable, k)
	}
	dir := strings.ToUpper(p.Direction)

	return validation.Errors{
		"page": validation.Validate(p.Page, validation.Min(0).Error("page must not be negative")),
		"size": validation.Validate(p.Size,
			validation.Required.Error("size must be at least 1"),
			validation.Min(1).Error("size must be at least 1"),
			validation.Max(MaxPageSize).Error("size must be at most 100"),
		),
		"sortBy":    validation.Validate(p.SortBy, validation.Required, validation.In(sortable...).Error("unknown sort field")),
		"direction": validation.Validate(dir, validation.Required, validation.In(DirectionAsc, DirectionDesc).Error("direction must be ASC or DESC")),
	}.Filter()
}

// SortColumn maps SortBy to a column name. Unknown fields fall back to id.
func (p PageRequest) SortColumn() string {
	if col, ok := sortColumns[p.SortBy]; ok {
		return col
	}
	return "id"
}

func (p PageRequest) Descending() bool {
	return strings.EqualFold(p.Direction, DirectionDesc)
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page struct {
	Content       []Response `json:"content"`
	Page          int        `json:"page"`
	Size          int        `json:"size"`
	TotalElements int        `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	First         bool       `json:"first"`
	Last          bool       `json:"last"`
}

func NewPage(content []Response, req PageRequest, total int) Page {
	pages := 0
	if req.Size > 0 {
		pages = (total + req.Size - 1) / req.Size
	}
	return Page{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
		First:         req.Page == 0,
		Last:          req.Page+1 >= pages,
	}
}
