package query

import (
	"net/url"
	"strconv"
	"strings"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
	"taskhub/internal/storage"
)

const (
	DefaultSortField = "createdAt"
	DefaultLimit     = 10
	MaxLimit         = 100
)

// Request is a parsed task listing request.
type Request struct {
	Status     models.TaskStatus
	AssignedTo int64
	Search     string
	SortField  string
	Desc       bool
	Page       int
	Limit      int
}

// DefaultRequest lists the first page newest first.
func DefaultRequest() Request {
	return Request{SortField: DefaultSortField, Desc: true, Page: 1, Limit: DefaultLimit}
}

// ParseRequest reads status, assignedTo, search, sort, page and limit from v.
// page and limit are coerced to at least 1; limit is capped at MaxLimit.
func ParseRequest(v url.Values) (Request, error) {
	req := DefaultRequest()

	if raw := strings.TrimSpace(v.Get("status")); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			return Request{}, apperr.Validationf("invalid status %q", raw)
		}
		req.Status = status
	}

	if raw := strings.TrimSpace(v.Get("assignedTo")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Request{}, apperr.Validation("invalid assignedTo")
		}
		req.AssignedTo = id
	}

	req.Search = strings.TrimSpace(v.Get("search"))

	if raw := strings.TrimSpace(v.Get("sort")); raw != "" {
		field, dir, _ := strings.Cut(raw, ":")
		if !Sortable(field) {
			return Request{}, apperr.Validationf("unsupported sort field %q", field)
		}
		req.SortField = field
		req.Desc = dir == "desc"
	}

	req.Page = atLeastOne(v.Get("page"), 1)
	req.Limit = atLeastOne(v.Get("limit"), DefaultLimit)
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	return req, nil
}

// Sortable reports whether tasks can be ordered by field.
func Sortable(field string) bool {
	if weighted(field) {
		return true
	}
	_, ok := storage.SortColumns[field]
	return ok
}

func atLeastOne(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = fallback
	}
	if n < 1 {
		return 1
	}
	return n
}
