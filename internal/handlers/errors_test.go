package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dias221467/Employee_Manager/internal/repository"
	"github.com/Dias221467/Employee_Manager/internal/services"
)

func TestWriteErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Field: "objective", Message: "required"}, http.StatusBadRequest},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("failed to log progress: %w", repository.ErrConflict), http.StatusConflict},
		{"locked", services.ErrLocked, http.StatusLocked},
		{"partial write wins over conflict", fmt.Errorf("%w: %w", repository.ErrPartialWrite, repository.ErrConflict), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
