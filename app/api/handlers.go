package api

import (
	"context"
	"ecodigest/app/client/llm"
	"ecodigest/app/service/digest"

	"github.com/gofiber/fiber/v2"
)

const aboutText = "EcoSpeaks is an Azure OpenAI-powered web application to educate individuals on sustainability issues and guide them to reach their personalized sustainable goals."

type sessionResponse struct {
	ID       string        `json:"id"`
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
}

type messagesResponse struct {
	Messages []llm.Message `json:"messages"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type turnResponse struct {
	Intent   digest.Intent `json:"intent"`
	Reply    string        `json:"reply"`
	Messages []llm.Message `json:"messages"`
}

type aboutResponse struct {
	About        string `json:"about"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) createSession(c *fiber.Ctx) error {
	id, state := s.sessionSvc.Create()

	return c.Status(fiber.StatusCreated).JSON(sessionResponse{
		ID:       id,
		Model:    state.ModelIdentifier(),
		Messages: state.Transcript(),
	})
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	state, err := s.sessionSvc.Get(c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(messagesResponse{Messages: state.Transcript()})
}

func (s *Server) postMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	id := c.Params("id")

	state, err := s.sessionSvc.Get(id)
	if err != nil {
		return err
	}
	defer s.sessionSvc.Touch(id)

	ctx, cancel := context.WithTimeout(c.UserContext(), s.requestTimeout)
	defer cancel()

	result, err := s.digestSvc.Turn(ctx, state, req.Text)
	if err != nil {
		return err
	}

	return c.JSON(turnResponse{
		Intent:   result.Intent,
		Reply:    result.Reply,
		Messages: state.Transcript(),
	})
}

func (s *Server) resetSession(c *fiber.Ctx) error {
	state, err := s.sessionSvc.Get(c.Params("id"))
	if err != nil {
		return err
	}

	state.Reset()

	return c.JSON(messagesResponse{Messages: state.Transcript()})
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if err := s.sessionSvc.Delete(c.Params("id")); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) about(c *fiber.Ctx) error {
	return c.JSON(aboutResponse{
		About:        aboutText,
		Model:        s.digestSvc.Model(),
		SystemPrompt: digest.SystemPrompt,
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:   "ok",
		Sessions: s.sessionSvc.Len(),
	})
}
