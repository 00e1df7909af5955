package server

import (
	"bulletin/internal/models"
	"bulletin/internal/service"
	"bulletin/internal/session"

	"github.com/gofiber/fiber/v2"
)

// CreateCommentRequest is the body of a new comment.
type CreateCommentRequest struct {
	Content string `json:"content" form:"content"`
}

// GetComments handles GET /api/posts/:id/comments. An ID that names no post
// yields an empty list.
func (s *Server) GetComments(c *fiber.Ctx) error {
	var postID uint
	if id, err := parseID(c, "id"); err == nil {
		postID = id
	}

	comments, err := s.comments.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"items": comments})
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.CreateComment(c.UserContext(), service.CreateCommentInput{
		PostID:  postID,
		Author:  session.FromContext(c).Username,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusCreated, comment)
}
