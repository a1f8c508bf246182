package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/AnrPg/noema/internal/hlr"
	"github.com/AnrPg/noema/internal/store"
)

// The model itself never validates inputs — malformed elapsed times or
// out-of-range recall values are rejected here, before the core sees them.

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Features  []hlr.Feature `json:"features"`
		DeltaDays float64       `json:"delta_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.DeltaDays < 0 {
		http.Error(w, `{"error":"delta_days must be >= 0"}`, http.StatusBadRequest)
		return
	}

	p, h := s.model.Predict(req.Features, req.DeltaDays)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{
		"recall_probability": p,
		"half_life_days":     h,
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Features       []hlr.Feature `json:"features"`
		DeltaDays      float64       `json:"delta_days"`
		ActualRecall   float64       `json:"actual_recall"`
		ActualHalfLife *float64      `json:"actual_half_life"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.DeltaDays < 0 {
		http.Error(w, `{"error":"delta_days must be >= 0"}`, http.StatusBadRequest)
		return
	}
	if req.ActualRecall < 0 || req.ActualRecall > 1 {
		http.Error(w, `{"error":"actual_recall must be in [0, 1]"}`, http.StatusBadRequest)
		return
	}
	if req.ActualHalfLife != nil && *req.ActualHalfLife < 0 {
		http.Error(w, `{"error":"actual_half_life must be >= 0"}`, http.StatusBadRequest)
		return
	}

	prevP, prevH := s.model.Predict(req.Features, req.DeltaDays)
	s.model.TrainUpdate(req.Features, req.DeltaDays, req.ActualRecall, req.ActualHalfLife)
	p, h := s.model.Predict(req.Features, req.DeltaDays)

	// The review log is best effort: a logging failure never fails the update.
	if s.db != nil {
		review := &store.Review{
			Features:          req.Features,
			DeltaDays:         req.DeltaDays,
			ActualRecall:      req.ActualRecall,
			ActualHalfLife:    req.ActualHalfLife,
			PredictedRecall:   prevP,
			PredictedHalfLife: prevH,
			PostRecall:        p,
			PostHalfLife:      h,
		}
		if err := s.db.AddReview(review); err != nil {
			log.Printf("review log: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"updated":            true,
		"recall_probability": p,
		"half_life_days":     h,
	})
}

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"weights":        s.model.ExportWeights(),
		"feature_counts": s.model.FeatureCounts(),
	})
}

func (s *Server) handlePutWeights(w http.ResponseWriter, r *http.Request) {
	var weights map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&weights); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	s.model.ImportWeights(weights)
	log.Printf("weights loaded: %d features", len(weights))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "weights loaded",
		"count":  len(weights),
	})
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "review log not configured"})
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	reviews, err := s.db.GetRecentReviews(limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type reviewJSON struct {
		ID                int64         `json:"id"`
		Features          []hlr.Feature `json:"features"`
		DeltaDays         float64       `json:"delta_days"`
		ActualRecall      float64       `json:"actual_recall"`
		ActualHalfLife    *float64      `json:"actual_half_life,omitempty"`
		PredictedRecall   float64       `json:"predicted_recall"`
		PredictedHalfLife float64       `json:"predicted_half_life"`
		PostRecall        float64       `json:"post_recall"`
		PostHalfLife      float64       `json:"post_half_life"`
		CreatedAt         int64         `json:"created_at"`
	}

	out := make([]reviewJSON, len(reviews))
	for i, rv := range reviews {
		out[i] = reviewJSON{
			ID:                rv.ID,
			Features:          rv.Features,
			DeltaDays:         rv.DeltaDays,
			ActualRecall:      rv.ActualRecall,
			ActualHalfLife:    rv.ActualHalfLife,
			PredictedRecall:   rv.PredictedRecall,
			PredictedHalfLife: rv.PredictedHalfLife,
			PostRecall:        rv.PostRecall,
			PostHalfLife:      rv.PostHalfLife,
			CreatedAt:         rv.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(out),
		"reviews": out,
	})
}
