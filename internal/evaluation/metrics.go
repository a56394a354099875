// Package evaluation settles predictions against final results and computes
// forecast quality metrics.
package evaluation

import (
	"encoding/json"
	"math"
	"time"

	"github.com/yourusername/goalform/internal/models"
)

// SettledPrediction pairs a prediction with the final result of its fixture.
type SettledPrediction struct {
	Prediction models.Prediction
	Result     models.Result
	TotalGoals int
	OddsHome   *float64
	OddsDraw   *float64
	OddsAway   *float64
}

// Metrics represents forecast performance over a settled prediction set.
type Metrics struct {
	TotalPredictions int       `json:"total_predictions"`
	CorrectPicks     int       `json:"correct_picks"`
	Accuracy         float64   `json:"accuracy"`
	BrierScore       float64   `json:"brier_score"`
	LogLoss          float64   `json:"log_loss"`
	TotalsAccuracy   float64   `json:"totals_accuracy"`
	FlatStakeROI     float64   `json:"flat_stake_roi"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// Evaluate computes forecast metrics over settled predictions. Predictions
// without a usable result are skipped.
func Evaluate(settled []SettledPrediction) Metrics {
	var metrics Metrics

	var (
		brierSum   float64
		logLossSum float64
		totalsHits int
		totalsN    int
		staked     float64
		returned   float64
	)

	for _, s := range settled {
		if s.Result == "" {
			continue
		}
		metrics.TotalPredictions++
		trackDateRange(&metrics, s.Prediction.PredictedAt)

		pick, _ := s.Prediction.Outcome.Max()
		if pick == s.Result {
			metrics.CorrectPicks++
		}

		brierSum += brier(s.Prediction.Outcome, s.Result)
		logLossSum += logLoss(s.Prediction.Outcome, s.Result)

		if s.Prediction.Totals.Over > 0 || s.Prediction.Totals.Under > 0 {
			totalsN++
			over := s.TotalGoals > 2
			predictedOver := s.Prediction.Totals.Over > s.Prediction.Totals.Under
			if over == predictedOver {
				totalsHits++
			}
		}

		if odds := pickOdds(s, pick); odds != nil {
			staked++
			if pick == s.Result {
				returned += *odds
			}
		}
	}

	if metrics.TotalPredictions == 0 {
		return metrics
	}

	n := float64(metrics.TotalPredictions)
	metrics.Accuracy = float64(metrics.CorrectPicks) / n
	metrics.BrierScore = brierSum / n
	metrics.LogLoss = logLossSum / n
	if totalsN > 0 {
		metrics.TotalsAccuracy = float64(totalsHits) / float64(totalsN)
	}
	if staked > 0 {
		metrics.FlatStakeROI = (returned - staked) / staked
	}

	return metrics
}

// brier is the multiclass Brier score for one prediction.
func brier(probs models.OutcomeProbs, result models.Result) float64 {
	h, d, a := 0.0, 0.0, 0.0
	switch result {
	case models.ResultHome:
		h = 1
	case models.ResultDraw:
		d = 1
	case models.ResultAway:
		a = 1
	}
	return (probs.Home-h)*(probs.Home-h) +
		(probs.Draw-d)*(probs.Draw-d) +
		(probs.Away-a)*(probs.Away-a)
}

// logLoss is the negative log likelihood of the realized outcome.
func logLoss(probs models.OutcomeProbs, result models.Result) float64 {
	var p float64
	switch result {
	case models.ResultHome:
		p = probs.Home
	case models.ResultDraw:
		p = probs.Draw
	case models.ResultAway:
		p = probs.Away
	}
	if p < models.ProbFloor {
		p = models.ProbFloor
	}
	return -math.Log(p)
}

func pickOdds(s SettledPrediction, pick models.Result) *float64 {
	switch pick {
	case models.ResultHome:
		return s.OddsHome
	case models.ResultDraw:
		return s.OddsDraw
	case models.ResultAway:
		return s.OddsAway
	}
	return nil
}

func trackDateRange(m *Metrics, at time.Time) {
	if at.IsZero() {
		return
	}
	if m.StartDate.IsZero() || at.Before(m.StartDate) {
		m.StartDate = at
	}
	if at.After(m.EndDate) {
		m.EndDate = at
	}
}
