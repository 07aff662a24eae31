package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colegiohq/backend/core"
)

func TestDBOrdering_String(t *testing.T) {
	tests := []struct {
		name     string
		ordering core.DBOrdering
		want     string
	}{
		{"descending by default", core.DBOrdering{Field: "created_at"}, "created_at DESC"},
		{"ascending", core.DBOrdering{Field: "name", Ascending: true}, "name ASC"},
		{"qualified field", core.DBOrdering{Field: "g.grade_date"}, "g.grade_date DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ordering.String())
		})
	}
}
