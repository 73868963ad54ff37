// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/Dias221467/Employee_Manager/internal/repository"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()

	s, err := repository.NewSQLStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
