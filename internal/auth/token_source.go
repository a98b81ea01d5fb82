package auth

import (
	"context"

	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx     context.Context //nolint:containedctx // oauth2.TokenSource has no context parameter
	manager prophet.TokenManager
}

// TokenSource exposes manager as an oauth2.TokenSource. Each Token call goes
// through the manager, so the refresh threshold still applies.
func TokenSource(ctx context.Context, manager prophet.TokenManager) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: manager}
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := s.manager.GetToken(s.ctx)
	if err != nil {
		return nil, err
	}

	expiresAt, _ := s.manager.ExpiresAt()

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      expiresAt,
	}, nil
}
