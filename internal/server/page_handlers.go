package server

import (
	"strings"

	"bulletin/internal/session"

	"github.com/gofiber/fiber/v2"
)

// IndexPage handles GET /
func (s *Server) IndexPage(c *fiber.Ctx) error {
	var b strings.Builder
	b.WriteString("Bulletin board\n")
	if id := session.FromContext(c); id.IsAuthenticated() {
		b.WriteString("Signed in as " + id.Username + "\n")
	}
	b.WriteString("Boards: " + strings.Join(s.posts.Boards(), ", ") + "\n")
	return c.Type("txt").SendString(b.String())
}

// LoginPage handles GET /login for anonymous visitors.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return c.Type("txt").SendString("Log in with POST /api/login\n")
}

// RegisterPage handles GET /register for anonymous visitors.
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return c.Type("txt").SendString("Create an account with POST /api/register\n")
}
