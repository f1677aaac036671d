package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Service tokens are issued by the platform auth daemon with a shared
// secret; the tenant claim scopes what the bearer may trigger.
type Claims struct {
	jwt.RegisteredClaims

	TenantUUID string `json:"tenant_uuid"`
	// Purpose distinguishes operator tokens ("ops") from the internal
	// token the daemon mints for its own directory calls ("internal").
	Purpose string `json:"purpose"`
}
