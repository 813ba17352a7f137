package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/venuelab/backend/config"
	"github.com/venuelab/backend/internal/model"
	"github.com/venuelab/backend/pkg/authenticator"
	"github.com/venuelab/backend/pkg/errorx"
	"github.com/venuelab/backend/pkg/logger"
	"github.com/venuelab/backend/pkg/session"
	"github.com/venuelab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. It may return a derived context to
// replace the request context; returning an error short-circuits the request.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// AfterFunc runs after a successful handler, before the response is written.
type AfterFunc func(ctx context.Context) error

// CloserFunc runs once the response outcome is known, regardless of error.
type CloserFunc func(ctx context.Context)

type Router struct {
	mux *http.ServeMux

	cfg          config.Configs
	db           *gorm.DB
	logger       logger.Logger
	sessionStore *session.Store
	tokenEngine  authenticator.TokenEngine[model.AccessToken]

	befores []MiddlewareFunc
	afters  []AfterFunc
	closers []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	return &Router{
		mux:          http.NewServeMux(),
		cfg:          cfg,
		db:           db,
		logger:       logger,
		sessionStore: session.NewCookieStore(cfg.Session.Name, []byte(cfg.Session.Secret)),
		tokenEngine:  authenticator.NewTokenEngine[model.AccessToken](cfg.Auth.TokenSecret),
	}
}

// Branch returns a router sharing the mux but with independent middleware
// chains, seeded from the current ones.
func (r *Router) Branch() *Router {
	branch := *r
	branch.befores = append([]MiddlewareFunc{}, r.befores...)
	branch.afters = append([]AfterFunc{}, r.afters...)
	branch.closers = append([]CloserFunc{}, r.closers...)
	return &branch
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

func (r *Router) After(a AfterFunc) {
	r.afters = append(r.afters, a)
}

func (r *Router) AddCloser(c CloserFunc) {
	r.closers = append(r.closers, c)
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodPost, handler))
}

func wrapHandler[Request, Response any](
	r *Router, method string, handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := r.newRequestContext(req, w)

		err := func() error {
			if req.Method != method {
				return errorx.New(errorx.BadRequest, "Method not supported")
			}

			for _, m := range r.befores {
				newCtx, err := m(ctx)
				if err != nil {
					return err
				}

				if newCtx != nil {
					ctx = newCtx
				}
			}

			var reqObj Request
			if err := decodeRequest(req, method, &reqObj); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot decode the request: %v", err)
				return errorx.New(errorx.BadRequest, "Cannot decode the request")
			}

			resp, err := handler(ctx, &reqObj)
			if err != nil {
				return err
			}

			xcontext.SetResponse(ctx, resp)

			for _, a := range r.afters {
				if err := a(ctx); err != nil {
					return err
				}
			}

			return nil
		}()

		if err != nil {
			xcontext.SetError(ctx, err)
		}

		writeResponse(ctx)

		for _, c := range r.closers {
			c(ctx)
		}
	}
}

func (r *Router) newRequestContext(req *http.Request, w http.ResponseWriter) context.Context {
	ctx := req.Context()
	ctx = xcontext.WithRequestState(ctx)
	ctx = xcontext.WithConfigs(ctx, r.cfg)
	ctx = xcontext.WithLogger(ctx, r.logger)
	ctx = xcontext.WithDB(ctx, r.db)
	ctx = xcontext.WithSessionStore(ctx, r.sessionStore)
	ctx = xcontext.WithTokenEngine(ctx, r.tokenEngine)
	ctx = xcontext.WithHTTPRequest(ctx, req)
	ctx = xcontext.WithHTTPWriter(ctx, w)
	return ctx
}

func decodeRequest(req *http.Request, method string, obj any) error {
	if method == http.MethodGet {
		return bindQuery(req.URL.Query(), obj)
	}

	if err := json.NewDecoder(req.Body).Decode(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}
