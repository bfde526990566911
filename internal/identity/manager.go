package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tonimelisma/azblob-go/internal/azure"
)

// expiryGraceSeconds is the refresh window: a token within ten minutes
// of expiry is treated as stale and renewed before use.
const expiryGraceSeconds = 600

// defaultLoginBase is the AAD token endpoint host.
const defaultLoginBase = "https://login.microsoft.com"

// Manager owns the refresh lifecycle of one Credential. A refresh runs
// to completion (or definitive failure) before any worker fan-out
// begins; workers read the credential but never trigger a refresh.
type Manager struct {
	cred   *Credential
	client *azure.Client
	policy *azure.Policy
	logger *slog.Logger

	// now is the clock used for the freshness check. Tests pin it.
	now func() time.Time

	// loginBase is the token endpoint host. Sovereign clouds and tests
	// override it via SetLoginBase.
	loginBase string
}

// SetLoginBase overrides the AAD endpoint host, e.g. for sovereign
// cloud deployments.
func (m *Manager) SetLoginBase(base string) {
	if base != "" {
		m.loginBase = base
	}
}

// NewManager creates a token manager over the shared credential.
func NewManager(cred *Credential, client *azure.Client, policy *azure.Policy, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cred:      cred,
		client:    client,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
		loginBase: defaultLoginBase,
	}
}

// EnsureFresh is a no-op while the token has more than the grace period
// left; at or past that boundary it performs one refresh attempt,
// wrapped in the retry policy up to maxAttempts. The last observed
// status is returned as data. The error return is non-nil only for the
// configuration case: no refresh token and no client secret.
func (m *Manager) EnsureFresh(ctx context.Context, maxAttempts int) (azure.Status, error) {
	st := m.policy.Do(ctx, m.refreshOnce, maxAttempts)
	if st.Transport == azure.TransportNoCredential {
		return st, ErrNoCredentialSource
	}

	return st, nil
}

// refreshOnce performs at most one refresh attempt: fresh tokens return
// success immediately, stale ones dispatch on credential shape.
func (m *Manager) refreshOnce(ctx context.Context) azure.Status {
	if m.now().Unix() < m.cred.Expiry-expiryGraceSeconds {
		return azure.OKStatus()
	}

	switch {
	case m.cred.Refresh != "":
		return m.refreshWithToken(ctx)
	case m.cred.Secret != "":
		return m.refreshWithSecret(ctx)
	default:
		m.logger.Warn("unable to refresh tokens without either a refresh token or a client secret")

		return azure.Status{
			Transport: azure.TransportNoCredential,
			HTTP:      azure.TransportNoCredential,
		}
	}
}

// refreshWithToken runs the refresh_token grant. On success the bearer
// token, refresh token, and expiry are all overwritten in place.
func (m *Manager) refreshWithToken(ctx context.Context) azure.Status {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {m.cred.ClientID},
		"refresh_token": {m.cred.Refresh},
		"scope":         {m.cred.Scope},
		"resource":      {m.cred.Resource},
	}

	body, st := m.client.PostForm(ctx, m.tokenURL(), form)
	if !st.OK() {
		m.logger.Warn("refresh_token grant failed",
			slog.Int("transport_code", st.Transport),
			slog.Int("http_code", st.HTTP),
		)

		return st
	}

	m.apply(scanTokenFields(string(body)), true)

	return st
}

// refreshWithSecret runs the client_credentials grant. The form encoder
// URL-escapes the secret and resource values. This flow never returns a
// refresh token; only the bearer token and expiry are overwritten.
func (m *Manager) refreshWithSecret(ctx context.Context) azure.Status {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.cred.ClientID},
		"client_secret": {m.cred.Secret},
		"resource":      {m.cred.Resource},
	}

	body, st := m.client.PostForm(ctx, m.tokenURL(), form)
	if !st.OK() {
		m.logger.Warn("client_credentials grant failed",
			slog.Int("transport_code", st.Transport),
			slog.Int("http_code", st.HTTP),
		)

		return st
	}

	m.apply(scanTokenFields(string(body)), false)

	return st
}

// apply overwrites credential fields from an extracted token response.
// Absent fields leave the previous value untouched (malformed responses
// are tolerated best-effort).
func (m *Manager) apply(f tokenFields, wantRefresh bool) {
	if f.accessToken != nil {
		m.cred.Bearer = *f.accessToken
	} else {
		m.logger.Warn("token response carried no access_token")
	}

	if wantRefresh && f.refreshToken != nil {
		m.cred.Refresh = *f.refreshToken
	}

	if f.expiresOn != nil {
		if v, ok := parseExpiry(*f.expiresOn); ok {
			m.cred.Expiry = v
		} else {
			m.logger.Warn("token response carried unparsable expires_on",
				slog.String("value", *f.expiresOn),
			)
		}
	}

	m.logger.Info("credential refreshed",
		slog.Time("expiry", time.Unix(m.cred.Expiry, 0)),
	)
}

func (m *Manager) tokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/token", m.loginBase, url.PathEscape(m.cred.Tenant))
}
