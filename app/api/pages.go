package api

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed static/home.html
var homeHTML []byte

//go:embed static/digest.html
var digestHTML []byte

func (s *Server) homePage(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(homeHTML)
}

func (s *Server) digestPage(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(digestHTML)
}
