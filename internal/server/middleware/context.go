package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/paperflow-ai/paperflow/internal/store"
)

// App bundles the shared service dependencies handed to every request.
// Key is nil when no AUTH_URL is configured; the auth middleware then only
// honours the master API key, or lets everything through if that is also
// unset.
type App struct {
	DBConn       *pgxpool.Pool
	Store        store.Store
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	S3           *s3.Client
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
