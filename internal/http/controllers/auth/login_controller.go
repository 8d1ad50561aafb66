package auth

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/shopauth/internal/http/errors"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	mw "github.com/dropDatabas3/shopauth/internal/http/middlewares"
	svc "github.com/dropDatabas3/shopauth/internal/http/services/auth"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// LoginController maneja POST /v2/auth/login.
type LoginController struct {
	service svc.LoginService
	cookies helpers.CookieConfig
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService, cookies helpers.CookieConfig) *LoginController {
	return &LoginController{service: service, cookies: cookies}
}

// clientMeta arma el ClientMeta de la request.
func clientMeta(r *http.Request) repository.ClientMeta {
	return repository.ClientMeta{
		IP:        mw.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// writeTokenPair setea cookies y responde el par de tokens.
func writeTokenPair(w http.ResponseWriter, cookies helpers.CookieConfig, res *dto.TokenPairResult) {
	http.SetCookie(w, helpers.BuildAccessCookie(cookies, res.AccessToken, res.AccessExpiresAt))
	http.SetCookie(w, helpers.BuildRefreshCookie(cookies, res.RefreshToken, res.RefreshExpiresAt))

	helpers.WriteJSON(w, http.StatusOK, dto.TokenPairResponse{
		AccessToken:  res.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(res.AccessExpiresAt).Seconds()),
		RefreshToken: res.RefreshToken,
	})
}

// Login maneja POST /v2/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Login(ctx, req, clientMeta(r))
	if err != nil {
		switch {
		case stderrors.Is(err, svc.ErrMissingLoginFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email and password are required"))
		case stderrors.Is(err, svc.ErrBadCredentials):
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		default:
			log.Error("login failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	writeTokenPair(w, c.cookies, res)
}
