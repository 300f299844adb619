package trackers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/env"
)

// GoogleFitAdapter connects to the Google Fit REST API.
type GoogleFitAdapter struct {
	oauthAdapter
}

// NewGoogleFitAdapter creates the Google Fit adapter from environment config.
func NewGoogleFitAdapter(creds *credstore.Store) *GoogleFitAdapter {
	clientID := env.GetEnv("GOOGLE_FIT_CLIENT_ID", "")
	clientSecret := env.GetEnv("GOOGLE_FIT_CLIENT_SECRET", "")

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL(ServiceGoogleFit),
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{
			"https://www.googleapis.com/auth/fitness.activity.read",
			"https://www.googleapis.com/auth/fitness.body.read",
			"https://www.googleapis.com/auth/fitness.heart_rate.read",
		},
	}

	return &GoogleFitAdapter{oauthAdapter{
		id:        ServiceGoogleFit,
		name:      "Google Fit",
		conf:      conf,
		authOpts:  []oauth2.AuthCodeOption{oauth2.AccessTypeOffline},
		revokeURL: "https://oauth2.googleapis.com/revoke",
		defaults: []string{
			DataTypeSteps, DataTypeCalories, DataTypeDistance,
			DataTypeHeartRate, DataTypeActiveMinutes,
		},
		secrets: []secretRequirement{
			{"GOOGLE_FIT_CLIENT_ID", clientID},
			{"GOOGLE_FIT_CLIENT_SECRET", clientSecret},
		},
		creds:  creds,
		client: newHTTPClient(),
	}}
}

// FetchData returns aggregate data shaped like the Fitness REST API's
// dataset:aggregate response. Point values are simulated; the real
// aggregate calls slot in behind the same shape.
func (a *GoogleFitAdapter) FetchData(ctx context.Context, userID uint, dataType string, start, end time.Time) (any, error) {
	if !a.IsConfigured() {
		return nil, &NotConfiguredError{Service: a.id}
	}
	if _, err := a.bearerToken(ctx, userID); err != nil {
		return nil, err
	}

	buckets := make([]map[string]any, 0)
	for day := 0; day < daysBetween(start, end); day++ {
		dayStart := start.AddDate(0, 0, day)
		buckets = append(buckets, map[string]any{
			"startTimeMillis": dayStart.UnixMilli(),
			"endTimeMillis":   dayStart.AddDate(0, 0, 1).UnixMilli(),
			"dataset": []map[string]any{{
				"dataSourceId": googleFitDataSource(dataType),
				"point": []map[string]any{{
					"value": []map[string]any{googleFitValue(dataType, day)},
				}},
			}},
		})
	}

	return map[string]any{"bucket": buckets}, nil
}

func googleFitDataSource(dataType string) string {
	switch dataType {
	case DataTypeSteps:
		return "derived:com.google.step_count.delta:aggregated"
	case DataTypeCalories:
		return "derived:com.google.calories.expended:aggregated"
	case DataTypeDistance:
		return "derived:com.google.distance.delta:aggregated"
	case DataTypeHeartRate:
		return "derived:com.google.heart_rate.bpm:aggregated"
	case DataTypeActiveMinutes:
		return "derived:com.google.active_minutes:aggregated"
	default:
		return fmt.Sprintf("derived:com.google.%s:aggregated", dataType)
	}
}

func googleFitValue(dataType string, day int) map[string]any {
	switch dataType {
	case DataTypeSteps:
		return map[string]any{"intVal": 6200 + (day*733)%4500}
	case DataTypeCalories:
		return map[string]any{"fpVal": 1750.0 + float64((day*211)%600)}
	case DataTypeDistance:
		return map[string]any{"fpVal": 3800.0 + float64((day*419)%3200)}
	case DataTypeHeartRate:
		return map[string]any{"fpVal": 62.0 + float64((day*7)%14)}
	case DataTypeActiveMinutes:
		return map[string]any{"intVal": 35 + (day*13)%50}
	default:
		return map[string]any{"intVal": 0}
	}
}

// daysBetween counts calendar days covered by the range, minimum one.
func daysBetween(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}
