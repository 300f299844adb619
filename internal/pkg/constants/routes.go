package constants

// Static route constants
const (
	HealthRoute = "/health"
	// OAuth callback endpoint. The router registers it with the :service
	// wildcard; adapters substitute their service ID when building the
	// redirect URL handed to the provider, so both always agree.
	TrackerCallbackRoute = "/api/v1/trackers/:service/callback"
	// Export upload endpoint, shared between the router and the connect
	// flow that hands out upload tickets
	ExportUploadRoute = "/api/v1/trackers/apple-health/upload"
)
