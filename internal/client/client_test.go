package client

import (
	"net/http/httptest"
	"testing"

	"github.com/AnrPg/noema/internal/hlr"
	"github.com/AnrPg/noema/internal/server"
	"github.com/AnrPg/noema/internal/store"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	model := hlr.NewModel(hlr.DefaultHyperparameters(), nil)
	srv := httptest.NewServer(server.New(model, db, "test"))
	t.Cleanup(srv.Close)

	return NewWithURL(srv.URL)
}

func TestHealthy(t *testing.T) {
	c := testClient(t)
	if !c.Healthy() {
		t.Error("Healthy() = false, want true")
	}

	down := NewWithURL("http://127.0.0.1:1")
	if down.Healthy() {
		t.Error("Healthy() against closed port = true, want false")
	}
}

func TestPredict(t *testing.T) {
	c := testClient(t)

	pred, err := c.Predict([]hlr.Feature{{Name: "bias", Value: 1.0}}, 1.0)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.RecallProbability != 0.5 {
		t.Errorf("RecallProbability = %v, want 0.5", pred.RecallProbability)
	}
	if pred.HalfLifeDays != 1.0 {
		t.Errorf("HalfLifeDays = %v, want 1.0", pred.HalfLifeDays)
	}
}

func TestPredictRejected(t *testing.T) {
	c := testClient(t)

	if _, err := c.Predict(nil, -1.0); err == nil {
		t.Error("expected error for negative delta_days")
	}
}

func TestTrainAndWeights(t *testing.T) {
	c := testClient(t)
	feats := []hlr.Feature{{Name: "bias", Value: 1.0}}

	pred, err := c.Train(feats, 1.0, 0.9, nil)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if pred.RecallProbability <= 0.5 {
		t.Errorf("post-update recall = %v, want > 0.5", pred.RecallProbability)
	}

	snap, err := c.Weights()
	if err != nil {
		t.Fatalf("Weights: %v", err)
	}
	if snap.Weights["bias"] == 0 {
		t.Error("weights[bias] = 0, want non-zero after training")
	}
	if snap.FeatureCounts["bias"] != 1 {
		t.Errorf("feature_counts[bias] = %d, want 1", snap.FeatureCounts["bias"])
	}
}

func TestLoadWeights(t *testing.T) {
	c := testClient(t)

	if err := c.LoadWeights(map[string]float64{"bias": 1.0}); err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}

	pred, err := c.Predict([]hlr.Feature{{Name: "bias", Value: 1.0}}, 0.0)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// weight 1.0 on a unit feature: half-life 2^1 = 2 days.
	if pred.HalfLifeDays != 2.0 {
		t.Errorf("HalfLifeDays = %v, want 2.0", pred.HalfLifeDays)
	}
}
