package api

import (
	"context"
	"ecodigest/app/config"
	"ecodigest/app/service/digest"
	"ecodigest/app/service/session"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	addr           string
	requestTimeout time.Duration

	digestSvc  *digest.Service
	sessionSvc *session.Service
	validate   *validator.Validate

	app *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewServer(
		cfg.Server,
		do.MustInvoke[*digest.Service](di),
		do.MustInvoke[*session.Service](di),
	), nil
}

func NewServer(cfg config.Server, digestSvc *digest.Service, sessionSvc *session.Service) *Server {
	s := &Server{
		addr:           cfg.Addr,
		requestTimeout: cfg.RequestTimeout,
		digestSvc:      digestSvc,
		sessionSvc:     sessionSvc,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "ecodigest",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(logRequests)

	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.homePage)
	s.app.Get("/news-digest", s.digestPage)
	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api")
	api.Get("/about", s.about)
	api.Post("/sessions", s.createSession)
	api.Get("/sessions/:id/messages", s.listMessages)
	api.Post("/sessions/:id/messages", s.postMessage)
	api.Post("/sessions/:id/reset", s.resetSession)
	api.Delete("/sessions/:id", s.deleteSession)
}

// Run serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("HTTP server listening", slog.String("addr", s.addr))
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return oops.In("api").With("addr", s.addr).Wrapf(err, "failed to listen")
	case <-ctx.Done():
	}

	slog.Info("Stopping HTTP server")

	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return oops.In("api").Wrapf(err, "failed to shutdown")
	}

	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorHandler(c *fiber.Ctx, err error) error {
	code, message := classifyError(err)

	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}

	return c.Status(code).JSON(errorResponse{Error: message})
}

func classifyError(err error) (int, string) {
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, digest.ErrEmptyInput):
		return fiber.StatusBadRequest, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
