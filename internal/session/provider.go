// Package session consumes sessions issued by the external auth provider:
// bearer token verification at the transport edge and liveness re-checks for
// the retry runner mid-flow. Issuing sessions is out of scope.
package session

import (
	"context"

	"fidelis/pkg/domain"
	dErrors "fidelis/pkg/domain-errors"
	"fidelis/pkg/requestcontext"
)

// Provider combines token verification with the liveness store. It satisfies
// both middleware.SessionValidator and retry.SessionChecker.
type Provider struct {
	tokens *TokenValidator
	store  Store
}

func NewProvider(tokens *TokenValidator, store Store) *Provider {
	return &Provider{tokens: tokens, store: store}
}

// Validate verifies a bearer token and confirms the session is still live.
func (p *Provider) Validate(ctx context.Context, token string) (domain.SessionID, string, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return domain.SessionID{}, "", err
	}
	id, err := domain.ParseSessionID(claims.SessionID)
	if err != nil {
		return domain.SessionID{}, "", dErrors.New(dErrors.CodeUnauthorized, "malformed session id in token")
	}
	actor, err := p.store.Get(ctx, id)
	if err != nil {
		return domain.SessionID{}, "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "session not live")
	}
	if actor == "" {
		actor = claims.Actor
	}
	return id, actor, nil
}

// Liveness re-checks the session carried in ctx. Long-running multi-step
// flows call this before every remote attempt so a session that expires
// mid-flow surfaces as an authentication failure, not a transient one.
func (p *Provider) Liveness(ctx context.Context) error {
	id := requestcontext.SessionID(ctx)
	if id.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no session in context")
	}
	if _, err := p.store.Get(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "session expired")
	}
	return nil
}
