package middleware

import (
	"github.com/OFFIS-RIT/claimgraph/internal/queue"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
)

// App holds the collaborators shared by every request.
type App struct {
	Queue          queue.Publisher
	S3             *s3.Client
	Bucket         string
	PublicEndpoint string
	MasterAPIKey   string
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
