package config

type OidcConfig interface {
	GetOidcIssuer() string
	GetOidcClientID() string
	GetOidcClientSecret() string
	OidcEnabled() bool
}

type Oidc struct{}

var _ OidcConfig = Oidc{}

// GetOidcIssuer returns the external identity provider's issuer URL, used
// for OIDC discovery. Empty disables the callback exchange route.
func (Oidc) GetOidcIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Oidc) GetOidcClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Oidc) GetOidcClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (o Oidc) OidcEnabled() bool {
	return o.GetOidcIssuer() != "" && o.GetOidcClientID() != ""
}
