package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tenantdesk/internal/auth"
	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/server/middleware"
)

type LoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"Login email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type LoginOutput struct {
	Body struct {
		Actor        *domain.Actor `json:"actor"`
		AccessToken  string        `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string        `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"access_token"` //nolint:gosec // G117: auth response DTO
	}
}

type MeOutput struct {
	Body *domain.Actor
}

func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		actor, tokens, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid email or password")
			}
			return nil, huma.Error500InternalServerError("login failed", err)
		}

		out := &LoginOutput{}
		out.Body.Actor = actor
		out.Body.AccessToken = tokens.Access
		out.Body.RefreshToken = tokens.Refresh
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		accessToken, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = accessToken
		return out, nil
	})
}

func RegisterMeRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current actor",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*MeOutput, error) {
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}
		return &MeOutput{Body: actor}, nil
	})
}
