package server

import (
	"io"
	"mime/multipart"
	"strings"

	"bulletin/internal/models"
	"bulletin/internal/service"
	"bulletin/internal/session"

	"github.com/gofiber/fiber/v2"
)

// uploadFields are the multipart keys that carry post images.
var uploadFields = []string{"images", "images[]"}

// CreatePostRequest holds the text fields of a new post.
type CreatePostRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
	Board   string `json:"board" form:"board"`
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.posts.ListPosts(c.UserContext(), service.ListPostsInput{
		Board:   c.Query("board"),
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", service.DefaultPerPage),
	})
	if err != nil {
		return respondError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, page)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	files, err := s.readUploads(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		Author:  session.FromContext(c).Username,
		Title:   req.Title,
		Content: req.Content,
		Board:   req.Board,
		Files:   files,
	})
	if err != nil {
		return respondError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusCreated, post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.posts.DeletePost(c.UserContext(), id, session.FromContext(c).Username); err != nil {
		return respondError(c, err)
	}

	return models.RespondWithMessage(c, fiber.StatusOK, "Post deleted")
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	result, err := s.posts.ToggleLike(c.UserContext(), id, session.FromContext(c).Username)
	if err != nil {
		return respondError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, result)
}

// readUploads collects the image files of a multipart request. Requests that
// are not multipart carry no files.
func (s *Server) readUploads(c *fiber.Ctx) ([]service.Upload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart body")
	}

	var uploads []service.Upload
	for _, field := range uploadFields {
		for _, fh := range form.File[field] {
			// Browsers submit an empty part for an untouched file input.
			if fh.Filename == "" && fh.Size == 0 {
				continue
			}
			up, err := s.readUpload(fh)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, up)
		}
	}
	return uploads, nil
}

// readUpload reads at most one byte past the size limit so oversized files
// are still rejected without buffering them whole.
func (s *Server) readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, models.NewValidationError("Could not read uploaded file " + fh.Filename)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, s.attachments.MaxBytes()+1))
	if err != nil {
		return service.Upload{}, models.NewValidationError("Could not read uploaded file " + fh.Filename)
	}
	return service.Upload{Filename: fh.Filename, Content: content}, nil
}
