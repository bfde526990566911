// Package identity tracks one shared OAuth2 credential and renews it
// through either the refresh-token or client-credentials flow, with the
// whole refresh attempt wrapped in the transport retry policy.
package identity

import "errors"

// ErrNoCredentialSource is returned when a refresh is requested but the
// credential carries neither a refresh token nor a client secret. The
// credential is left unmodified; this is never retried.
var ErrNoCredentialSource = errors.New("identity: credential has neither refresh token nor client secret")

// Credential is the single logical credential shared across a transfer.
// The Manager mutates it in place on refresh; during worker fan-out it
// is read-only. Exactly one of Refresh/Secret selects the OAuth2 flow.
type Credential struct {
	// Bearer is the current access token, presented on every storage
	// request via the Authorization header.
	Bearer string
	// Refresh selects the refresh_token grant when non-empty.
	Refresh string
	// Secret selects the client_credentials grant when Refresh is empty.
	Secret string
	// Expiry is the bearer token expiry as Unix seconds.
	Expiry int64

	Scope    string
	Resource string
	ClientID string
	Tenant   string
}

// Token implements the transport client's TokenSource. It never fails:
// freshness is the Manager's responsibility, enforced before fan-out.
func (c *Credential) Token() (string, error) {
	return c.Bearer, nil
}
