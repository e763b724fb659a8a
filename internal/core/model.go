package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Audit carries who/when metadata shared by every ledger row.
type Audit struct {
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedBy *uuid.UUID `json:"deleted_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (a *Audit) touch(userID uuid.UUID, now time.Time) {
	a.UpdatedBy = &userID
	a.UpdatedAt = &now
}

func (a *Audit) markDeleted(userID uuid.UUID, now time.Time) {
	a.IsDeleted = true
	a.DeletedBy = &userID
	a.DeletedAt = &now
}

// TransitionRequest asks a status machine to move an aggregate to Status.
type TransitionRequest[S ~string] struct {
	Status S
	Reason string
}

// Page is one page of a list query.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// PageRequest is the paging part of every list filter. Zero values fall back to defaults.
type PageRequest struct {
	Page     int
	PageSize int
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Normalize clamps paging input to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// DateRange bounds a report. Nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether d falls inside the range, bounds inclusive.
func (r DateRange) Contains(d time.Time) bool {
	day := DateOf(d)
	if r.From != nil && day.Before(DateOf(*r.From)) {
		return false
	}
	if r.To != nil && day.After(DateOf(*r.To)) {
		return false
	}
	return true
}

// DateOf truncates t to midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseEnum matches s against values ignoring case, spaces, hyphens and underscores.
func parseEnum[T ~string](field, s string, values []T) (T, error) {
	key := enumKey(s)
	for _, v := range values {
		if enumKey(string(v)) == key {
			return v, nil
		}
	}
	var zero T
	return zero, Validation("unknown %s %q", field, s)
}

func enumKey(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(s)))
}
