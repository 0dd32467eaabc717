package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pennmobile/gsr-booking/api"
	"github.com/pennmobile/gsr-booking/config"
	"github.com/pennmobile/gsr-booking/internal/service/booking"
	"github.com/pennmobile/gsr-booking/internal/service/groups"
	"github.com/pennmobile/gsr-booking/internal/service/spaces"
	"github.com/sirupsen/logrus"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	spacesSvc spaces.SpacesUseCase,
	bookingSvc booking.BookingUseCase,
	groupSvc groups.GroupUseCase,
	logger *logrus.Logger,
) error {
	router := newRouter(cfg, spacesSvc, bookingSvc, groupSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	logger.WithField("address", cfg.HTTP.Address).Info("http server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(
	cfg *config.Config,
	spacesSvc spaces.SpacesUseCase,
	bookingSvc booking.BookingUseCase,
	groupSvc groups.GroupUseCase,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authorized := router.Group("/", api.RequireUser())
	api.NewGSRHandler(spacesSvc, bookingSvc, cfg.Booking.SearchSpanDays).Register(authorized)
	api.NewGroupHandler(groupSvc).Register(authorized)

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs", func(c *gin.Context) {
			renderSwaggerUI(c.Writer, "/swagger/gsr.swagger.json")
		})
	}

	return router
}

func renderSwaggerUI(w http.ResponseWriter, jsonURL string) {
	html := fmt.Sprintf(`<!DOCTYPE html>
    <html>
    <head>
        <title>API Docs</title>
        <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@latest/swagger-ui.css">
    </head>
    <body>
        <div id="swagger-ui"></div>
        <script src="https://unpkg.com/swagger-ui-dist@latest/swagger-ui-bundle.js"></script>
        <script>
            window.onload = function() {
                window.ui = SwaggerUIBundle({
                    url: "%s",
                    dom_id: '#swagger-ui'
                });
            };
        </script>
    </body>
    </html>`, jsonURL)

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}
