package trackers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/oauth2"

	"github.com/FlorianWeber/FitFox/internal/pkg/constants"
	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/env"
)

// Upstream calls get a bounded timeout so a hung provider cannot hang the
// process forever.
const providerTimeout = 15 * time.Second

// secretRequirement ties a required env variable name to its loaded value
type secretRequirement struct {
	name  string
	value string
}

// oauthAdapter carries the pieces shared by all OAuth-based adapters:
// config checks, auth URL generation, code exchange, token refresh and
// disconnect. Provider-specific data fetching lives in the concrete types.
type oauthAdapter struct {
	id        ServiceID
	name      string
	conf      *oauth2.Config
	authOpts  []oauth2.AuthCodeOption
	revokeURL string
	defaults  []string
	secrets   []secretRequirement
	creds     *credstore.Store
	client    *http.Client
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: providerTimeout}
}

// publicBaseURL resolves the externally visible base URL used for OAuth
// redirect targets, mirroring the app's provider setup.
func publicBaseURL() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}

// callbackURL builds the redirect target a provider sends the user back to.
// It substitutes the service into the registered callback route so the
// redirect always lands on a path the router serves.
func callbackURL(id ServiceID) string {
	return publicBaseURL() + strings.Replace(constants.TrackerCallbackRoute, ":service", string(id), 1)
}

func (a *oauthAdapter) ServiceID() ServiceID { return a.id }

func (a *oauthAdapter) DisplayName() string { return a.name }

func (a *oauthAdapter) IsConfigured() bool {
	return a.conf.ClientID != "" && a.conf.ClientSecret != ""
}

func (a *oauthAdapter) MissingSecrets() []string {
	var missing []string
	for _, s := range a.secrets {
		if s.value == "" {
			missing = append(missing, s.name)
		}
	}
	return missing
}

func (a *oauthAdapter) DefaultDataTypes() []string {
	out := make([]string, len(a.defaults))
	copy(out, a.defaults)
	return out
}

// AuthURL builds the provider authorization URL with the user encoded into
// the state parameter.
func (a *oauthAdapter) AuthURL(userID uint) (string, error) {
	if !a.IsConfigured() {
		return "", &NotConfiguredError{Service: a.id}
	}
	return a.conf.AuthCodeURL(EncodeState(userID), a.authOpts...), nil
}

// HandleCallback exchanges the authorization code and stores the resulting
// token. All exchange failures become a false return, never an error.
func (a *oauthAdapter) HandleCallback(ctx context.Context, userID uint, code string) bool {
	if !a.IsConfigured() {
		log.Warnf("[Trackers] %s callback received while unconfigured", a.id)
		return false
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	token, err := a.conf.Exchange(ctx, code)
	if err != nil {
		log.Errorf("[Trackers] %s code exchange failed for user %d: %v", a.id, userID, err)
		return false
	}

	fields := credstore.TokenFields{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		fields.ExpiresAt = &expiry
	}
	a.creds.StoreToken(userID, string(a.id), fields)

	log.Infof("[Trackers] %s connected for user %d", a.id, userID)
	return true
}

// bearerToken returns a valid access token for the user, refreshing through
// the provider when the stored one has expired.
func (a *oauthAdapter) bearerToken(ctx context.Context, userID uint) (string, error) {
	stored := a.creds.GetToken(userID, string(a.id))
	if stored == nil {
		return "", &NotConnectedError{Service: a.id, UserID: userID}
	}

	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
	}
	if stored.ExpiresAt != nil {
		token.Expiry = *stored.ExpiresAt
	}
	if token.Valid() || stored.RefreshToken == "" {
		return stored.AccessToken, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	refreshed, err := a.conf.TokenSource(ctx, token).Token()
	if err != nil {
		return "", err
	}
	if refreshed.AccessToken != stored.AccessToken {
		fields := credstore.TokenFields{
			AccessToken:  refreshed.AccessToken,
			RefreshToken: refreshed.RefreshToken,
		}
		if fields.RefreshToken == "" {
			fields.RefreshToken = stored.RefreshToken
		}
		if !refreshed.Expiry.IsZero() {
			expiry := refreshed.Expiry
			fields.ExpiresAt = &expiry
		}
		a.creds.StoreToken(userID, string(a.id), fields)
	}
	return refreshed.AccessToken, nil
}

// Disconnect revokes the token with the provider best effort and deletes
// the local copy. Upstream failures never abort the disconnect.
func (a *oauthAdapter) Disconnect(ctx context.Context, userID uint) bool {
	if a.revokeURL != "" {
		if stored := a.creds.GetToken(userID, string(a.id)); stored != nil {
			form := url.Values{"token": {stored.AccessToken}}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL, strings.NewReader(form.Encode()))
			if err == nil {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				if resp, revokeErr := a.client.Do(req); revokeErr != nil {
					log.Warnf("[Trackers] %s token revocation failed for user %d: %v", a.id, userID, revokeErr)
				} else {
					resp.Body.Close()
				}
			}
		}
	}

	return a.creds.DeleteToken(userID, string(a.id))
}

// NotConfiguredError marks a missing-secret configuration failure.
type NotConfiguredError struct {
	Service ServiceID
}

func (e *NotConfiguredError) Error() string {
	return string(e.Service) + " is not configured"
}

// NotConnectedError marks a valid configuration with no stored token.
type NotConnectedError struct {
	Service ServiceID
	UserID  uint
}

func (e *NotConnectedError) Error() string {
	return string(e.Service) + " is not connected for this user"
}
