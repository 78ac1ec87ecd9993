package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned when an operation is invoked without a
// verified caller identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Caller is the verified identity an operation runs as. Credential is the
// bearer token the identity provider issued, forwarded as-is.
type Caller struct {
	UserID     string
	Credential string
}

// OperatorCredential stands in for a bearer token on calls made by operator
// tooling that talks to the database directly, such as libctl.
const OperatorCredential = "operator"

// Operator returns the caller used when an operator acts on behalf of userID.
func Operator(userID string) Caller {
	return Caller{UserID: userID, Credential: OperatorCredential}
}

// IsOperator reports whether c was built by Operator.
func (c Caller) IsOperator() bool {
	return c.Credential == OperatorCredential
}

// Valid reports whether both the user id and the credential are present.
func (c Caller) Valid() bool {
	return c.UserID != "" && c.Credential != ""
}

type contextKey struct{}

func ContextWithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(contextKey{}).(Caller)
	return c, ok && c.Valid()
}
