package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxTenantUUID ctxKey = iota
	ctxPurpose
)

func WithIdentity(ctx context.Context, tenantUUID, purpose string) context.Context {
	ctx = context.WithValue(ctx, ctxTenantUUID, tenantUUID)
	ctx = context.WithValue(ctx, ctxPurpose, purpose)
	return ctx
}

func TenantUUID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxTenantUUID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("tenant_uuid not in context")
}

func Purpose(ctx context.Context) (string, error) {
	v := ctx.Value(ctxPurpose)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("purpose not in context")
}
