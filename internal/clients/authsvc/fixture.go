package authsvc

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/places/internal/auth"
)

// Fixture tokens. Each token is also the role it grants.
const (
	TokenUser      = "user"
	TokenModerator = "moderator"
	TokenSuperuser = "superuser"
)

// Fixture is a deterministic identity provider for local runs and tests.
// Only the three fixture tokens are valid.
type Fixture struct{}

var _ auth.IdentityProvider = Fixture{}

func (Fixture) VerifyToken(ctx context.Context, token string) (bool, error) {
	switch token {
	case TokenUser, TokenModerator, TokenSuperuser:
		return true, nil
	default:
		return false, nil
	}
}

func (Fixture) UserInfo(ctx context.Context, token string) (auth.UserInfo, error) {
	info := auth.UserInfo{
		Username:    token,
		IsModerator: token == TokenModerator || token == TokenSuperuser,
		IsSuperuser: token == TokenSuperuser,
	}
	switch token {
	case TokenUser:
		info.ID = 1
	case TokenModerator:
		info.ID = 2
	case TokenSuperuser:
		info.ID = 3
	default:
		return auth.UserInfo{}, fmt.Errorf("%w: user_info returned 401", ErrUnexpectedResponse)
	}
	return info, nil
}
