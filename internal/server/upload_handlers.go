package server

import (
	"github.com/gofiber/fiber/v2"
)

// ServeUpload handles GET /uploads/:filename
func (s *Server) ServeUpload(c *fiber.Ctx) error {
	rc, contentType, err := s.attachments.Open(c.UserContext(), c.Params("filename"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	// fasthttp closes rc once the body has been written.
	return c.SendStream(rc)
}
