package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/constants"
	"github.com/chathub-dev/chathub/pkg/httpapi"
	"github.com/chathub-dev/chathub/pkg/middleware"
	"github.com/chathub-dev/chathub/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the middleware stack shared by every deployment and
// returns the server. Auth is per-route, not global: login and registration
// must stay reachable without a token.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()),

		middleware.TracedMiddleware("database"),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(options.Configuration.AllowedOrigins...),
	}

	app.RegisterMiddleware(middlewares...)

	return server.NewHTTPServer(
		app,
		httpapi.NotFound(),
		httpapi.MethodNotAllowed(),
	), nil
}
