package store

import (
	"testing"

	"github.com/AnrPg/noema/internal/hlr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	db := testDB(t)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}

func TestAddReview(t *testing.T) {
	db := testDB(t)

	r := &Review{
		Features:          []hlr.Feature{{Name: "right", Value: 2.449}, {Name: "bias", Value: 1.0}},
		DeltaDays:         3.5,
		ActualRecall:      0.8,
		PredictedRecall:   0.5,
		PredictedHalfLife: 3.5,
		PostRecall:        0.52,
		PostHalfLife:      3.7,
	}
	if err := db.AddReview(r); err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if r.ID == 0 {
		t.Error("expected ID to be set")
	}
	if r.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}
}

func TestGetRecentReviews(t *testing.T) {
	db := testDB(t)

	ahl := 6.5
	for i := 0; i < 5; i++ {
		r := &Review{
			Features:          []hlr.Feature{{Name: "bias", Value: 1.0}},
			DeltaDays:         float64(i),
			ActualRecall:      0.9,
			PredictedRecall:   0.5,
			PredictedHalfLife: 1.0,
			PostRecall:        0.51,
			PostHalfLife:      1.05,
		}
		if i == 4 {
			r.ActualHalfLife = &ahl
		}
		if err := db.AddReview(r); err != nil {
			t.Fatalf("AddReview %d: %v", i, err)
		}
	}

	reviews, err := db.GetRecentReviews(3)
	if err != nil {
		t.Fatalf("GetRecentReviews: %v", err)
	}
	if len(reviews) != 3 {
		t.Fatalf("len(reviews) = %d, want 3", len(reviews))
	}

	// Newest first: the last insert carried the explicit half-life.
	if reviews[0].ActualHalfLife == nil || *reviews[0].ActualHalfLife != ahl {
		t.Errorf("newest review actual_half_life = %v, want %v", reviews[0].ActualHalfLife, ahl)
	}
	if reviews[0].DeltaDays != 4 {
		t.Errorf("newest review delta_days = %v, want 4", reviews[0].DeltaDays)
	}
	if reviews[1].ActualHalfLife != nil {
		t.Errorf("expected nil actual_half_life, got %v", *reviews[1].ActualHalfLife)
	}

	// Feature vectors round-trip through JSON.
	if len(reviews[0].Features) != 1 || reviews[0].Features[0].Name != "bias" {
		t.Errorf("features = %+v, want single bias feature", reviews[0].Features)
	}
}

func TestCountReviews(t *testing.T) {
	db := testDB(t)

	count, err := db.CountReviews()
	if err != nil {
		t.Fatalf("CountReviews: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	r := &Review{
		Features:          []hlr.Feature{{Name: "bias", Value: 1.0}},
		ActualRecall:      1.0,
		PredictedRecall:   0.5,
		PredictedHalfLife: 1.0,
		PostRecall:        0.5,
		PostHalfLife:      1.0,
	}
	if err := db.AddReview(r); err != nil {
		t.Fatalf("AddReview: %v", err)
	}

	count, err = db.CountReviews()
	if err != nil {
		t.Fatalf("CountReviews: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
