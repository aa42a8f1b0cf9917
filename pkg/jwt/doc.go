// Package jwt signs and verifies the session cookie value.
//
// The cookie carries an HS256 token whose "sid" claim holds the opaque
// session token and whose "exp" claim mirrors the session expiry. A
// tampered, foreign or expired cookie fails Validate before the session
// store is ever consulted.
//
//	svc, _ := jwt.NewService(jwt.Config{Secret: secret, Issuer: "campusfeed"})
//	value, _ := svc.Sign(sessionToken, expiresAt)
//	claims, err := svc.Validate(value)
//	if err != nil {
//	    // treat as unauthenticated
//	}
//	_ = claims.SessionID
package jwt
