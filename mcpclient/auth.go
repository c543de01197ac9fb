package mcpclient

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// resolveHeaders builds the HTTP transport's header set, signing a bearer
// JWT from the configured private key when BearerJWT is set instead of
// relying on a static Authorization header value.
func resolveHeaders(cfg ServerConfig) (map[string]string, error) {
	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	if cfg.BearerJWT == nil {
		return headers, nil
	}

	token, err := signBearerJWT(*cfg.BearerJWT)
	if err != nil {
		return nil, fmt.Errorf("sign bearer jwt: %w", err)
	}
	headers["Authorization"] = "Bearer " + token
	return headers, nil
}

// signBearerJWT mints a short-lived JWT from a private key on disk, the way
// a client would authenticate itself to an MCP-over-HTTP server that
// requires signed tokens rather than a static API key.
func signBearerJWT(cfg JWTAuthConfig) (string, error) {
	key, err := jwk.ReadFile(cfg.KeyPath)
	if err != nil {
		return "", fmt.Errorf("read key %s: %w", cfg.KeyPath, err)
	}
	if cfg.KeyID != "" {
		if err := key.Set(jwk.KeyIDKey, cfg.KeyID); err != nil {
			return "", fmt.Errorf("set kid: %w", err)
		}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	now := time.Now()

	builder := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(ttl))
	if cfg.Issuer != "" {
		builder = builder.Issuer(cfg.Issuer)
	}
	if cfg.Audience != "" {
		builder = builder.Audience([]string{cfg.Audience})
	}
	if cfg.Subject != "" {
		builder = builder.Subject(cfg.Subject)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build jwt: %w", err)
	}

	alg, ok := key.Algorithm()
	if !ok || alg.String() == "" {
		alg = jwa.RS256
	}

	signed, err := jwt.Sign(token, jwt.WithKey(alg, key))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return string(signed), nil
}
