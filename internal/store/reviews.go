package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AnrPg/noema/internal/hlr"
)

// Review records a single training observation: the feature vector, the
// observed outcome, and the model's predictions immediately before and
// after the weight update. Weights themselves are never stored here —
// the review log is an audit trail, not a snapshot.
type Review struct {
	ID                int64
	Features          []hlr.Feature
	DeltaDays         float64
	ActualRecall      float64
	ActualHalfLife    *float64
	PredictedRecall   float64
	PredictedHalfLife float64
	PostRecall        float64
	PostHalfLife      float64
	CreatedAt         int64
}

// AddReview stores one training observation.
func (db *DB) AddReview(r *Review) error {
	feats, err := json.Marshal(r.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	now := time.Now().UnixMilli()
	var ahl any
	if r.ActualHalfLife != nil {
		ahl = *r.ActualHalfLife
	}

	result, err := db.Exec(`
		INSERT INTO reviews (features, delta_days, actual_recall, actual_half_life,
			predicted_recall, predicted_half_life, post_recall, post_half_life, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(feats), r.DeltaDays, r.ActualRecall, ahl,
		r.PredictedRecall, r.PredictedHalfLife, r.PostRecall, r.PostHalfLife, now)
	if err != nil {
		return fmt.Errorf("add review: %w", err)
	}

	id, _ := result.LastInsertId()
	r.ID = id
	r.CreatedAt = now
	return nil
}

// GetRecentReviews returns the most recent reviews, newest first.
func (db *DB) GetRecentReviews(limit int) ([]Review, error) {
	rows, err := db.Query(`
		SELECT id, features, delta_days, actual_recall, actual_half_life,
			predicted_recall, predicted_half_life, post_recall, post_half_life, created_at
		FROM reviews ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		var feats string
		var ahl sql.NullFloat64
		if err := rows.Scan(&r.ID, &feats, &r.DeltaDays, &r.ActualRecall, &ahl,
			&r.PredictedRecall, &r.PredictedHalfLife, &r.PostRecall, &r.PostHalfLife, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if ahl.Valid {
			r.ActualHalfLife = &ahl.Float64
		}
		if err := json.Unmarshal([]byte(feats), &r.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features for review %d: %w", r.ID, err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// CountReviews returns the total number of recorded reviews.
func (db *DB) CountReviews() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM reviews`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}
