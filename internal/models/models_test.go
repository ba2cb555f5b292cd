package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Navigation(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		total    int64
		pages    int
		hasPrev  bool
		hasNext  bool
		prevNum  int
		nextNum  int
		perPage  int
		expected []int
	}{
		{name: "empty listing", page: 1, total: 0, pages: 0, perPage: 5, expected: []int{}},
		{name: "single page", page: 1, total: 3, pages: 1, perPage: 5, expected: []int{1}},
		{name: "exact multiple", page: 2, total: 10, pages: 2, perPage: 5, hasPrev: true, prevNum: 1, expected: []int{1, 2}},
		{name: "first of many", page: 1, total: 50, pages: 10, perPage: 5, hasNext: true, nextNum: 2, expected: []int{1, 2, 0, 10}},
		{name: "middle of many", page: 5, total: 50, pages: 10, perPage: 5, hasPrev: true, hasNext: true, prevNum: 4, nextNum: 6, expected: []int{1, 0, 4, 5, 6, 0, 10}},
		{name: "last of many", page: 10, total: 50, pages: 10, perPage: 5, hasPrev: true, prevNum: 9, expected: []int{1, 0, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Page[Post]{Page: tt.page, PerPage: tt.perPage, Total: tt.total}
			assert.Equal(t, tt.pages, p.Pages())
			assert.Equal(t, tt.hasPrev, p.HasPrev())
			assert.Equal(t, tt.hasNext, p.HasNext())
			assert.Equal(t, tt.prevNum, p.PrevNum())
			assert.Equal(t, tt.nextNum, p.NextNum())
			assert.Equal(t, tt.expected, p.Nav())
		})
	}
}

func TestPage_IterPagesWideEdges(t *testing.T) {
	p := Page[Post]{Page: 6, PerPage: 5, Total: 100}
	assert.Equal(t, []int{1, 2, 0, 4, 5, 6, 7, 8, 9, 10, 0, 19, 20}, p.IterPages(2, 2, 5, 2))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 5))
	assert.Equal(t, 5, Offset(2, 5))
	assert.Equal(t, 0, Offset(0, 5))
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, IsValidCategory(c), c)
	}
	assert.False(t, IsValidCategory("python"))
	assert.False(t, IsValidCategory(""))
	assert.False(t, IsValidCategory("Go"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewFieldError("email", "taken"), http.StatusBadRequest},
		{NewNotFoundError("Post", 1), http.StatusNotFound},
		{NewUnauthorizedError("login"), http.StatusUnauthorized},
		{NewForbiddenError("not yours"), http.StatusForbidden},
		{NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewForbiddenError("x")), http.StatusForbidden},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, StatusFor(tt.err), tt.err.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: disk full", err.Error())
	assert.True(t, IsCode(err, CodeInternal))
	assert.False(t, IsCode(err, CodeNotFound))
}

func TestPost_IsAuthoredBy(t *testing.T) {
	p := &Post{UserID: 7}
	assert.True(t, p.IsAuthoredBy(7))
	assert.False(t, p.IsAuthoredBy(8))
	assert.False(t, (&Post{}).IsAuthoredBy(0))
}
