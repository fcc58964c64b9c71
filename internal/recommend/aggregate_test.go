package recommend

import (
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/synergy/internal/models"
)

func TestAggregate_Mean(t *testing.T) {
	pair := examplePair(t)
	got, err := Aggregate(pair.Store, []string{"A", "B"})
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0.5, 0.5}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("component %d: got %v, want %v", i, got[i], want[i])
		}
	}

	got, _ = Aggregate(pair.Store, []string{"C"})
	if got[0] != 0.9 || got[1] != 0.1 {
		t.Errorf("single id should return its embedding, got %v", got)
	}
	got[0] = 0
	if pair.Store.Vector(2)[0] != 0.9 {
		t.Error("aggregate must not alias store vectors")
	}
}

func TestAggregate_RepeatedIDs(t *testing.T) {
	pair := examplePair(t)
	got, err := Aggregate(pair.Store, []string{"A", "A", "B"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(got[0])-2.0/3) > 1e-6 || math.Abs(float64(got[1])-1.0/3) > 1e-6 {
		t.Errorf("got %v", got)
	}
}

func TestAggregate_Errors(t *testing.T) {
	pair := examplePair(t)
	if _, err := Aggregate(pair.Store, nil); !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}

	_, err := Aggregate(pair.Store, []string{"A", "NotARealChampion", "Nope"})
	var ue *models.UnknownEntityError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownEntityError, got %v", err)
	}
	if ue.ID != "NotARealChampion" {
		t.Errorf("first unknown id should be reported, got %q", ue.ID)
	}
	if ue.Category != models.CategoryChampions {
		t.Errorf("category: got %q", ue.Category)
	}
}
