package app

import iauth "github.com/skovtun/wayplan/internal/auth"

// JWTServiceConfig converts AuthConfig to the auth package representation.
func (c AuthConfig) JWTServiceConfig() iauth.JWTConfig {
	return iauth.JWTConfig{
		Secret:          c.JWT.Secret,
		Issuer:          c.JWT.Issuer,
		SessionTokenTTL: c.JWT.TTL,
	}
}
