package auth

import (
	"context"

	"github.com/karlivory/SiGa/internal/gateway/admission"
)

type contextKey string

const ctxKeyTenant contextKey = "tenant"

// WithTenant attaches the authenticated tenant to the context.
func WithTenant(ctx context.Context, tenant admission.Tenant) context.Context {
	return context.WithValue(ctx, ctxKeyTenant, tenant)
}

// TenantFromContext returns the authenticated tenant. The second return is
// false when the request was not authenticated.
func TenantFromContext(ctx context.Context) (admission.Tenant, bool) {
	tenant, ok := ctx.Value(ctxKeyTenant).(admission.Tenant)
	return tenant, ok
}
