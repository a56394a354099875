package models

// FormSnapshot aggregates rolling statistics for one team as of a cutoff
// date. It is derived and ephemeral: recomputed per query, never persisted.
type FormSnapshot struct {
	Matches        int     `json:"matches"`
	Points         float64 `json:"points"`
	GoalsFor       float64 `json:"goals_for"`
	GoalsAgainst   float64 `json:"goals_against"`
	OverRate       float64 `json:"over_rate"`
	ShotsFor       float64 `json:"shots_for"`
	ShotsAgainst   float64 `json:"shots_against"`
	CornersFor     float64 `json:"corners_for"`
	CornersAgainst float64 `json:"corners_against"`

	// Sequence is the chronological outcome string, e.g. "W,D,L,W,W".
	Sequence string `json:"sequence"`
}

// FeatureRow is one enriched row of the training feature table, or the
// feature vector for a single upcoming fixture at inference time. Field
// order in Vector must stay in sync with FeatureNames.
type FeatureRow struct {
	Match MatchRecord `json:"match"`

	// Implied probabilities from 1X2 odds.
	ImpliedHome float64 `json:"ip_home"`
	ImpliedDraw float64 `json:"ip_draw"`
	ImpliedAway float64 `json:"ip_away"`

	// Rolling form, all matches.
	HomeForm FormSnapshot `json:"home_form"`
	AwayForm FormSnapshot `json:"away_form"`

	// Rolling form over the longer window.
	HomeFormLong FormSnapshot `json:"home_form_long"`
	AwayFormLong FormSnapshot `json:"away_form_long"`

	// Venue-specific form: home team in home matches only, away team in
	// away matches only.
	HomeVenueForm FormSnapshot `json:"home_venue_form"`
	AwayVenueForm FormSnapshot `json:"away_venue_form"`

	// Season-to-date points per game and relative strength.
	HomePPG         float64 `json:"home_ppg"`
	AwayPPG         float64 `json:"away_ppg"`
	HomeAttStrength float64 `json:"home_att_strength"`
	HomeDefWeakness float64 `json:"home_def_weakness"`
	AwayAttStrength float64 `json:"away_att_strength"`
	AwayDefWeakness float64 `json:"away_def_weakness"`

	// Elo ratings held immediately before the match.
	HomeElo float64 `json:"home_elo"`
	AwayElo float64 `json:"away_elo"`
}

// EloDiff returns the pre-match rating difference.
func (r *FeatureRow) EloDiff() float64 {
	return r.HomeElo - r.AwayElo
}

// PPGDiff returns the season points-per-game differential.
func (r *FeatureRow) PPGDiff() float64 {
	return r.HomePPG - r.AwayPPG
}

// FeatureNames lists the model-facing feature columns in vector order.
var FeatureNames = []string{
	"ip_home", "ip_draw", "ip_away",
	"h_form_pts", "h_form_gf", "h_form_ga", "h_form_ou", "h_form_sf", "h_form_sa", "h_form_cf", "h_form_ca",
	"a_form_pts", "a_form_gf", "a_form_ga", "a_form_ou", "a_form_sf", "a_form_sa", "a_form_cf", "a_form_ca",
	"h_venue_pts", "h_venue_gf", "h_venue_ga", "h_venue_sf", "h_venue_sa",
	"a_venue_pts", "a_venue_gf", "a_venue_ga", "a_venue_sf", "a_venue_sa",
	"h_ppg", "a_ppg", "ppg_diff",
	"h_att", "h_def", "a_att", "a_def",
	"h_elo", "a_elo", "elo_diff",
}

// Vector flattens the row into the ordered numeric slice handed to the
// model-inference collaborator.
func (r *FeatureRow) Vector() []float64 {
	return []float64{
		r.ImpliedHome, r.ImpliedDraw, r.ImpliedAway,
		r.HomeForm.Points, r.HomeForm.GoalsFor, r.HomeForm.GoalsAgainst, r.HomeForm.OverRate,
		r.HomeForm.ShotsFor, r.HomeForm.ShotsAgainst, r.HomeForm.CornersFor, r.HomeForm.CornersAgainst,
		r.AwayForm.Points, r.AwayForm.GoalsFor, r.AwayForm.GoalsAgainst, r.AwayForm.OverRate,
		r.AwayForm.ShotsFor, r.AwayForm.ShotsAgainst, r.AwayForm.CornersFor, r.AwayForm.CornersAgainst,
		r.HomeVenueForm.Points, r.HomeVenueForm.GoalsFor, r.HomeVenueForm.GoalsAgainst,
		r.HomeVenueForm.ShotsFor, r.HomeVenueForm.ShotsAgainst,
		r.AwayVenueForm.Points, r.AwayVenueForm.GoalsFor, r.AwayVenueForm.GoalsAgainst,
		r.AwayVenueForm.ShotsFor, r.AwayVenueForm.ShotsAgainst,
		r.HomePPG, r.AwayPPG, r.PPGDiff(),
		r.HomeAttStrength, r.HomeDefWeakness, r.AwayAttStrength, r.AwayDefWeakness,
		r.HomeElo, r.AwayElo, r.EloDiff(),
	}
}
