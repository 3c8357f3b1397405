package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptflow/scriptflow/pkg/models"
)

func validBlueprint() *models.Blueprint {
	return &models.Blueprint{
		Title:    "Order a pizza",
		Platform: models.PlatformWeb,
		Steps: []models.BlueprintStep{
			{Number: 1, Action: "open", Input: "https://example.com"},
			{Number: 2, Action: "click", Target: map[string]any{"selector": "#order"}},
		},
	}
}

func TestBlueprintValidator_Valid(t *testing.T) {
	validator, err := NewBlueprintValidator()
	require.NoError(t, err)

	assert.NoError(t, validator.Validate(validBlueprint()))
}

func TestBlueprintValidator_Invalid(t *testing.T) {
	validator, err := NewBlueprintValidator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(b *models.Blueprint)
	}{
		{
			name:   "empty title",
			mutate: func(b *models.Blueprint) { b.Title = "" },
		},
		{
			name:   "auto platform not resolved",
			mutate: func(b *models.Blueprint) { b.Platform = models.PlatformAuto },
		},
		{
			name:   "no steps",
			mutate: func(b *models.Blueprint) { b.Steps = nil },
		},
		{
			name:   "step number below one",
			mutate: func(b *models.Blueprint) { b.Steps[0].Number = 0 },
		},
		{
			name:   "step without action",
			mutate: func(b *models.Blueprint) { b.Steps[1].Action = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blueprint := validBlueprint()
			tt.mutate(blueprint)

			err := validator.Validate(blueprint)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidBlueprint)
		})
	}
}

func TestBlueprintValidator_NilBlueprint(t *testing.T) {
	validator, err := NewBlueprintValidator()
	require.NoError(t, err)

	err = validator.Validate(nil)
	assert.ErrorIs(t, err, ErrInvalidBlueprint)
}
