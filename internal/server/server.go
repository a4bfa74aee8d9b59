// Package server exposes the orchestrator over HTTP: a webhook for the
// transport collaborator plus a health probe.
package server

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/tebogo/mathmate/internal/orchestrator"
)

// webhookResponse is the reply envelope the transport renders to the user.
type webhookResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server wraps the fiber app and its collaborators.
type Server struct {
	app  *fiber.App
	orch *orchestrator.Orchestrator
	val  *validator.Validate
	log  *logrus.Logger
}

// New builds the HTTP server around an orchestrator.
func New(orch *orchestrator.Orchestrator, log *logrus.Logger) *Server {
	s := &Server{
		orch: orch,
		val:  validator.New(),
		log:  log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "mathmate",
		ErrorHandler: s.errorHandler,
	})

	s.app.Get("/healthz", s.health)
	s.app.Post("/v1/webhook", s.webhook)

	return s
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// webhook handles one inbound message and returns the rendered reply.
func (s *Server) webhook(c *fiber.Ctx) error {
	var in orchestrator.Inbound
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed JSON body")
	}
	if err := s.val.Struct(in); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "user_identity and message are required")
	}

	reply, err := s.orch.HandleMessage(c.UserContext(), in)
	if errors.Is(err, orchestrator.ErrValidation) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(webhookResponse{Reply: reply})
}

// errorHandler renders fiber errors as JSON and keeps 5xx details out of
// responses.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
		return c.Status(code).JSON(errorResponse{Error: "internal server error"})
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}
