package auth

import "context"

type subjectKey struct{}

// ContextWithSubject stores the verified caller identity.
func ContextWithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

// SubjectFromContext returns the identity placed by the auth middleware or interceptor.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(subjectKey{}).(Subject)
	return s, ok && s.ID != 0
}
