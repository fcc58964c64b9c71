package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestLoadError_Is(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMissing bool
		wantCorrupt bool
	}{
		{"not found", NotFound("/tmp/x.db", errors.New("no such file")), true, false},
		{"corrupt", Corrupt("/tmp/x.db", "entity %d has dimension %d", 3, 2), false, true},
		{"wrapped", fmt.Errorf("champions: %w", Corrupt("x", "bad")), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, ErrNotFound); got != tt.wantMissing {
				t.Errorf("Is(ErrNotFound) = %v, want %v", got, tt.wantMissing)
			}
			if got := errors.Is(tt.err, ErrCorrupt); got != tt.wantCorrupt {
				t.Errorf("Is(ErrCorrupt) = %v, want %v", got, tt.wantCorrupt)
			}
			var le *LoadError
			if !errors.As(tt.err, &le) {
				t.Error("expected errors.As to find *LoadError")
			}
		})
	}
}

func TestUnknownEntityError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UnknownEntityError
		want string
	}{
		{"bare", &UnknownEntityError{ID: "NotARealChampion"}, `unknown entity "NotARealChampion"`},
		{"category", &UnknownEntityError{ID: "x", Category: CategoryItems}, `unknown entity "x" in items`},
		{
			"suggestions",
			&UnknownEntityError{ID: "Teemoo", Category: CategoryChampions, Suggestions: []string{"Teemo"}},
			`unknown entity "Teemoo" in champions (did you mean: Teemo?)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDimensionMismatchError(t *testing.T) {
	err := error(&DimensionMismatchError{Got: 2, Want: 3})
	var dm *DimensionMismatchError
	if !errors.As(fmt.Errorf("query: %w", err), &dm) || dm.Got != 2 || dm.Want != 3 {
		t.Errorf("errors.As failed: %v", dm)
	}
}
