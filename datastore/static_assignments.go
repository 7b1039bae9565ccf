package datastore

import (
	"context"

	"github.com/coreybb/readings/models"
)

// StaticAssignments serves assignments from a compiled-in table.
type StaticAssignments map[string]models.ReadingAssignment

func (s StaticAssignments) GetAssignment(_ context.Context, dateKey string) (*models.ReadingAssignment, error) {
	assignment, ok := s[dateKey]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	return &assignment, nil
}
