package router

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vidtube/internal/auth"
	"vidtube/internal/config"
	apperrors "vidtube/internal/errors"
	"vidtube/internal/handler"
	"vidtube/internal/middleware"
)

// Deps is everything the router wires into routes.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	JWT        *auth.JWTService
	TokenStore auth.TokenStoreInterface
	Accounts   middleware.AccountLoader

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	ChannelHandler *handler.ChannelHandler
}

// route declares a handler together with the ordered stages it runs behind.
type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	stages  []echo.MiddlewareFunc
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	cfg := d.Config

	e.HTTPErrorHandler = ErrorHandler(d.Logger)
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", (2*cfg.UploadMaxSize+1<<20)>>10)))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authenticate := middleware.Authenticate(d.JWT, d.TokenStore, d.Accounts)
	limit := rateLimiter(cfg.RateLimitRPS)
	upload := func(fields ...string) echo.MiddlewareFunc {
		return middleware.Upload(middleware.UploadConfig{
			TempDir: cfg.UploadTempDir,
			MaxSize: cfg.UploadMaxSize,
		}, fields...)
	}

	routes := []route{
		{http.MethodPost, "/register", d.AuthHandler.Register, stages(limit, upload("avatar", "coverImage"))},
		{http.MethodPost, "/login", d.AuthHandler.Login, stages(limit)},
		{http.MethodPost, "/logout", d.AuthHandler.Logout, stages(authenticate)},
		{http.MethodPost, "/refresh-token", d.AuthHandler.RefreshToken, nil},
		{http.MethodPost, "/change-password", d.UserHandler.ChangePassword, stages(authenticate)},
		{http.MethodPost, "/get-user", d.UserHandler.GetCurrentUser, stages(authenticate)},
		{http.MethodPost, "/update-details", d.UserHandler.UpdateAccountDetails, stages(authenticate)},
		{http.MethodPost, "/update-avatar", d.UserHandler.UpdateAvatar, stages(upload("avatar"), authenticate)},
		{http.MethodPost, "/update-coverImage", d.UserHandler.UpdateCoverImage, stages(upload("coverImage"), authenticate)},
		{http.MethodGet, "/c/:username", d.ChannelHandler.ChannelProfile, stages(authenticate)},
		{http.MethodGet, "/history", d.ChannelHandler.WatchHistory, stages(authenticate)},
	}

	users := e.Group("/api/v1/users")
	for _, r := range routes {
		users.Add(r.method, r.path, r.handler, r.stages...)
	}
}

func stages(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	return mw
}

func rateLimiter(rps float64) echo.MiddlewareFunc {
	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: echomw.DefaultSkipper,
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(
			echomw.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(rps),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client").SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded").SetInternal(err)
		},
	})
}

// ErrorHandler writes every error as the error envelope. Internal failures
// are logged and their details withheld from the client.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status  int
			message string
			appErr  *apperrors.AppError
			echoErr *echo.HTTPError
		)
		switch {
		case errors.As(err, &appErr):
			mapped := apperrors.MapErrorToHTTP(appErr)
			status, message = mapped.StatusCode, mapped.Message
		case errors.As(err, &echoErr):
			status = echoErr.Code
			message = fmt.Sprint(echoErr.Message)
			if status >= http.StatusInternalServerError {
				message = http.StatusText(status)
			}
		default:
			mapped := apperrors.MapErrorToHTTP(err)
			status, message = mapped.StatusCode, mapped.Message
		}

		if status >= http.StatusInternalServerError {
			log.Error("Request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
			)
		}

		resp := apperrors.NewHTTPError(status, message, "").ToErrorResponse()
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			log.Warn("Failed to write error response", zap.Error(err))
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
