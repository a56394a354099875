package features

import "time"

// SeasonYear labels the football season a date belongs to. Matches from
// August onward belong to the season labeled by their calendar year;
// January through July belong to the season that started the prior August.
// Mid-season gaps and winter breaks do not move a match between seasons.
// Season-to-date cumulative statistics reset at this boundary.
func SeasonYear(date time.Time) int {
	if date.Month() >= time.August {
		return date.Year()
	}
	return date.Year() - 1
}
