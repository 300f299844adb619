package trackers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/env"
)

// StravaAdapter connects to the Strava v3 API.
type StravaAdapter struct {
	oauthAdapter
}

// NewStravaAdapter creates the Strava adapter from environment config.
func NewStravaAdapter(creds *credstore.Store) *StravaAdapter {
	clientID := env.GetEnv("STRAVA_CLIENT_ID", "")
	clientSecret := env.GetEnv("STRAVA_CLIENT_SECRET", "")

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL(ServiceStrava),
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.strava.com/oauth/authorize",
			TokenURL: "https://www.strava.com/oauth/token",
		},
		Scopes: []string{"read", "activity:read_all"},
	}

	return &StravaAdapter{oauthAdapter{
		id:        ServiceStrava,
		name:      "Strava",
		conf:      conf,
		authOpts:  []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("approval_prompt", "auto")},
		revokeURL: "https://www.strava.com/oauth/deauthorize",
		defaults: []string{
			DataTypeActivities, DataTypeWorkout,
			DataTypeDistance, DataTypeCalories,
		},
		secrets: []secretRequirement{
			{"STRAVA_CLIENT_ID", clientID},
			{"STRAVA_CLIENT_SECRET", clientSecret},
		},
		creds:  creds,
		client: newHTTPClient(),
	}}
}

// FetchData returns data shaped like the Strava v3 athlete endpoints.
// Activity contents are simulated behind the provider-native shape.
func (a *StravaAdapter) FetchData(ctx context.Context, userID uint, dataType string, start, end time.Time) (any, error) {
	if !a.IsConfigured() {
		return nil, &NotConfiguredError{Service: a.id}
	}
	if _, err := a.bearerToken(ctx, userID); err != nil {
		return nil, err
	}

	switch dataType {
	case DataTypeActivities, DataTypeWorkout:
		return a.athleteActivities(start, end), nil
	case DataTypeDistance, DataTypeCalories:
		return a.athleteStats(dataType, start, end), nil
	default:
		return nil, fmt.Errorf("strava does not provide data type %s", dataType)
	}
}

// athleteActivities mirrors GET /athlete/activities
func (a *StravaAdapter) athleteActivities(start, end time.Time) []map[string]any {
	types := []string{"Run", "Ride", "Swim", "WeightTraining"}
	activities := make([]map[string]any, 0)
	for day := 0; day < daysBetween(start, end); day++ {
		date := start.AddDate(0, 0, day)
		distance := 5000.0 + float64((day*911)%7000)
		movingTime := 1500 + (day*177)%2400
		activities = append(activities, map[string]any{
			"id":                   int64(9000000000) + int64(day),
			"name":                 fmt.Sprintf("%s on %s", types[day%len(types)], date.Format("Jan 2")),
			"type":                 types[day%len(types)],
			"distance":             distance,
			"moving_time":          movingTime,
			"elapsed_time":         movingTime + 120,
			"total_elevation_gain": float64((day * 37) % 300),
			"start_date":           date.Format(time.RFC3339),
			"average_speed":        distance / float64(movingTime),
			"calories":             300.0 + float64((day*53)%450),
		})
	}
	return activities
}

// athleteStats mirrors the totals portion of GET /athletes/{id}/stats
func (a *StravaAdapter) athleteStats(dataType string, start, end time.Time) map[string]any {
	days := daysBetween(start, end)
	totalDistance := 0.0
	totalCalories := 0.0
	for day := 0; day < days; day++ {
		totalDistance += 5000.0 + float64((day*911)%7000)
		totalCalories += 300.0 + float64((day*53)%450)
	}

	totals := map[string]any{
		"count":          days,
		"distance":       totalDistance,
		"moving_time":    days * 1800,
		"elevation_gain": float64(days * 85),
	}
	if dataType == DataTypeCalories {
		totals["calories"] = totalCalories
	}
	return map[string]any{"recent_ride_totals": totals}
}
