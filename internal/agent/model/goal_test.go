package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

func TestNewPerceivedGoal(t *testing.T) {
	tests := []struct {
		name        string
		description string
		graphType   string
		wantErr     bool
		wantDetail  string
	}{
		{
			name:        "valid domain goal",
			description: "Build a supply chain graph linking products to suppliers",
			graphType:   "domain",
		},
		{
			name:        "graph type is normalised",
			description: "Build a semantic graph over the product catalog",
			graphType:   "  Semantic ",
		},
		{
			name:        "five characters is too short",
			description: "short",
			graphType:   "domain",
			wantErr:     true,
			wantDetail:  "too short",
		},
		{
			name:        "whitespace only",
			description: "   \t  ",
			graphType:   "domain",
			wantErr:     true,
			wantDetail:  "must not be empty",
		},
		{
			name:        "over maximum length",
			description: strings.Repeat("x", 1001),
			graphType:   "domain",
			wantErr:     true,
			wantDetail:  "too long",
		},
		{
			name:        "unknown graph type",
			description: "Build a graph of products and suppliers",
			graphType:   "galaxy",
			wantErr:     true,
			wantDetail:  "unknown graph type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal, err := NewPerceivedGoal(tt.description, tt.graphType)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errx.IsKind(err, errx.KindValidation))
				details := errx.DetailsOf(err)
				require.NotEmpty(t, details)
				assert.Contains(t, details[0], tt.wantDetail)
				assert.Nil(t, goal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusPerceived, goal.Status)
			assert.True(t, goal.GraphType.Valid())
		})
	}
}

func TestGraphTypeValid(t *testing.T) {
	for _, gt := range ValidGraphTypes {
		assert.True(t, gt.Valid(), string(gt))
	}
	assert.False(t, GraphType("tree").Valid())
}
