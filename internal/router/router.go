// Package router wires the HTTP API: route registration, request parsing,
// JSON responses and the redirect-to-error convention for client failures.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/userapi/internal/gzippedhttp"
	"github.com/patric-chuzhbe/userapi/internal/logger"
	"github.com/patric-chuzhbe/userapi/internal/models"
	"github.com/patric-chuzhbe/userapi/internal/service"
	"github.com/patric-chuzhbe/userapi/internal/user"
)

const (
	defaultErrorStatus  = http.StatusBadRequest
	defaultErrorMessage = "Unknown error"
	defaultTokenHeader  = "token"
)

type userService interface {
	GetUser(ctx context.Context, rawID string) (*user.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*user.User, error)
	UpdateUserName(ctx context.Context, req models.UpdateUserRequest) error
	DeleteUser(ctx context.Context, req models.DeleteUserRequest) error
	Ping(ctx context.Context) error
}

type tokenIssuer interface {
	Issue() (string, error)
}

type metricsRecorder interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
	RecordClientError(statusCode int)
}

// Router holds the handlers' dependencies.
type Router struct {
	svc            userService
	tokens         tokenIssuer
	metrics        metricsRecorder
	internalGuard  func(http.Handler) http.Handler
	routes         *Routes
	errorRedirects bool
	tokenHeader    string
}

// Option configures a Router.
type Option func(*Router)

// WithErrorRedirects switches between the two-hop redirect to /error (true,
// the default) and answering client failures directly (false). The status
// code and JSON body the client ends up with are identical in both modes.
func WithErrorRedirects(enabled bool) Option {
	return func(r *Router) {
		r.errorRedirects = enabled
	}
}

// WithTokenHeader sets the response header that carries issued tokens.
func WithTokenHeader(name string) Option {
	return func(r *Router) {
		if name != "" {
			r.tokenHeader = name
		}
	}
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m metricsRecorder) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithInternalGuard wraps internal endpoints such as /metrics in guard.
func WithInternalGuard(guard func(http.Handler) http.Handler) Option {
	return func(r *Router) {
		r.internalGuard = guard
	}
}

func newRouter(svc userService, tokens tokenIssuer, opts ...Option) *Router {
	r := &Router{
		svc:            svc,
		tokens:         tokens,
		routes:         NewRoutes(),
		errorRedirects: true,
		tokenHeader:    defaultTokenHeader,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// New builds the chi mux serving the whole HTTP API.
func New(svc userService, tokens tokenIssuer, opts ...Option) *chi.Mux {
	return newRouter(svc, tokens, opts...).mux()
}

func (rt *Router) mux() *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
	)
	if rt.metrics != nil {
		router.Use(rt.metrics.Middleware)
		metricsHandler := rt.metrics.Handler()
		if rt.internalGuard != nil {
			metricsHandler = rt.internalGuard(metricsHandler)
		}
		router.Method(http.MethodGet, rt.routes.Register(RouteMetrics, `/metrics`), metricsHandler)
	}

	router.Get(rt.routes.Register(RoutePing, `/ping`), rt.GetPing)
	router.Get(rt.routes.Register(RouteError, `/error`), rt.GetError)

	router.With(
		gzippedhttp.GzipResponse,
	).Post(rt.routes.Register(RouteToken, `/auth/token`), rt.PostAuthtoken)

	usersPattern := rt.routes.Register(RouteUsers, `/user`)
	router.Group(func(r chi.Router) {
		r.Use(
			gzippedhttp.UngzipRequest,
			gzippedhttp.GzipResponse,
		)
		r.Get(usersPattern, rt.GetUser)
		r.Post(usersPattern, rt.PostUser)
		r.Put(usersPattern, rt.PutUser)
		r.Delete(usersPattern, rt.DeleteUser)
	})

	router.Get(rt.routes.Register(RouteUserByID, `/user/{user_id:[0-9]+}`), rt.GetUserUserid)

	return router
}

// URLFor builds a URL for a named route. See Routes.URLFor.
func (rt *Router) URLFor(name string, params map[string]string) (string, error) {
	return rt.routes.URLFor(name, params)
}

// GetError renders the error described by the status_code and error query
// parameters. It is the terminal hop of every client failure redirect.
func (rt *Router) GetError(res http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	statusCode := defaultErrorStatus
	if raw := query.Get("status_code"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed >= http.StatusOK && parsed <= 599 {
			statusCode = parsed
		}
	}

	message := query.Get("error")
	if message == "" {
		message = defaultErrorMessage
	}

	writeJSON(res, statusCode, models.ErrorResponse{Error: message})
}

// PostAuthtoken issues a fresh token. It is returned in the body and in the
// token response header, alongside the caller's User-Agent.
func (rt *Router) PostAuthtoken(res http.ResponseWriter, req *http.Request) {
	token, err := rt.tokens.Issue()
	if err != nil {
		logger.Log.Errorw("Error calling the `rt.tokens.Issue()`", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	var userAgent *string
	if values, ok := req.Header["User-Agent"]; ok && len(values) > 0 {
		userAgent = &values[0]
	}

	res.Header().Set(rt.tokenHeader, token)
	writeJSON(res, http.StatusOK, models.TokenResponse{
		Token:      token,
		UserAgent:  userAgent,
		StatusCode: http.StatusOK,
	})
}

// GetUser returns the user whose ID is given in the id query parameter.
func (rt *Router) GetUser(res http.ResponseWriter, req *http.Request) {
	usr, err := rt.svc.GetUser(req.Context(), req.URL.Query().Get("id"))
	if err != nil {
		rt.fail(res, req, err)
		return
	}

	writeJSON(res, http.StatusOK, models.GetUserResponse{
		User: models.UserView{
			ID:    usr.ID,
			Name:  usr.Name,
			Email: usr.Email,
		},
	})
}

func (rt *Router) PostUser(res http.ResponseWriter, req *http.Request) {
	request := decodeJSONBody[models.CreateUserRequest](req)

	usr, err := rt.svc.CreateUser(req.Context(), request)
	if err != nil {
		rt.fail(res, req, err)
		return
	}

	writeJSON(res, http.StatusOK, models.CreateUserResponse{
		Users: models.CreatedUser{
			Name:     usr.Name,
			Email:    usr.Email,
			Nickname: usr.Nickname,
		},
	})
}

func (rt *Router) PutUser(res http.ResponseWriter, req *http.Request) {
	request := decodeJSONBody[models.UpdateUserRequest](req)

	if err := rt.svc.UpdateUserName(req.Context(), request); err != nil {
		rt.fail(res, req, err)
		return
	}

	writeJSON(res, http.StatusOK, models.UpdateUserResponse{
		User: models.UpdatedUser{
			Email: request.Email,
			Name:  request.Name,
		},
	})
}

func (rt *Router) DeleteUser(res http.ResponseWriter, req *http.Request) {
	request := decodeJSONBody[models.DeleteUserRequest](req)

	if err := rt.svc.DeleteUser(req.Context(), request); err != nil {
		rt.fail(res, req, err)
		return
	}

	writeJSON(res, http.StatusOK, models.DeleteUserResponse{
		User: models.DeletedUser{Email: request.Email},
	})
}

// GetUserUserid redirects the path form /user/{user_id} to GET /user?id={user_id}.
func (rt *Router) GetUserUserid(res http.ResponseWriter, req *http.Request) {
	target, err := rt.routes.URLFor(RouteUsers, map[string]string{
		"id": chi.URLParam(req, "user_id"),
	})
	if err != nil {
		logger.Log.Errorw("Error calling the `rt.routes.URLFor()`", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(res, req, target, http.StatusFound)
}

func (rt *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := rt.svc.Ping(req.Context()); err != nil {
		logger.Log.Errorw("Error calling the `rt.svc.Ping()`", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// fail answers a failed operation. Client failures go to the error route;
// anything else is an internal error.
func (rt *Router) fail(res http.ResponseWriter, req *http.Request, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Log.Errorw("unhandled error", "uri", req.RequestURI, "method", req.Method, zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	statusCode := statusCodeFor(svcErr)
	if rt.metrics != nil {
		rt.metrics.RecordClientError(statusCode)
	}
	logger.Log.Debugw("client error", "status", statusCode, "error", svcErr.Message)

	rt.redirectToError(res, req, statusCode, svcErr.Message)
}

func (rt *Router) redirectToError(res http.ResponseWriter, req *http.Request, statusCode int, message string) {
	if !rt.errorRedirects {
		writeJSON(res, statusCode, models.ErrorResponse{Error: message})
		return
	}

	target, err := rt.routes.URLFor(RouteError, map[string]string{
		"status_code": strconv.Itoa(statusCode),
		"error":       message,
	})
	if err != nil {
		logger.Log.Errorw("Error calling the `rt.routes.URLFor()`", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(res, req, target, http.StatusFound)
}

func statusCodeFor(err *service.Error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest
	default:
		return defaultErrorStatus
	}
}

// decodeJSONBody reads a T from the request body. A missing or malformed body
// yields the zero T, which the service then rejects as missing fields.
func decodeJSONBody[T any](req *http.Request) T {
	var dst T
	if req.Body == nil {
		return dst
	}

	if err := json.NewDecoder(req.Body).Decode(&dst); err != nil {
		if !errors.Is(err, io.EOF) {
			logger.Log.Debugw("Error decoding request body", zap.Error(err))
		}
		var empty T
		return empty
	}

	return dst
}

func writeJSON(res http.ResponseWriter, statusCode int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorw("Error calling the `json.Marshal()`", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)

	if _, err := res.Write(body); err != nil {
		logger.Log.Debugw("Error writing response body", zap.Error(err))
	}
}
