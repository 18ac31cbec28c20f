package httpapi

import (
	"context"

	"github.com/legacy-registry/profile-api/internal/platform/auth/jwtverifier"
)

type principalKey struct{}

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, p jwtverifier.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func WithSubject(ctx context.Context, subjectID string) context.Context {
	return WithPrincipal(ctx, jwtverifier.Principal{Subject: subjectID})
}

func PrincipalFromContext(ctx context.Context) (jwtverifier.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(jwtverifier.Principal)
	return p, ok && p.Subject != ""
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.Subject, ok
}
