package server

import (
	"threads/internal/models"
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateThreadRequest is the body of POST /api/threads.
type CreateThreadRequest struct {
	Text        string `json:"text"`
	CommunityID string `json:"community_id"`
	Path        string `json:"path"`
}

// CreateCommentRequest is the body of POST /api/threads/:id/comments.
type CreateCommentRequest struct {
	Text string `json:"text"`
	Path string `json:"path"`
}

// GetThreads handles GET /api/threads
// @Summary List top-level threads
// @Tags threads
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} models.PostsPage
// @Failure 503 {object} models.ErrorResponse
// @Router /threads [get]
func (s *Server) GetThreads(c *fiber.Ctx) error {
	page, err := s.threads.FetchPosts(c.UserContext(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetThread handles GET /api/threads/:id
// @Summary Get a thread with two generations of replies
// @Tags threads
// @Produce json
// @Param id path string true "Thread ID"
// @Success 200 {object} models.ThreadNode
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	node, err := s.threads.FetchThreadByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(node)
}

// CreateThread handles POST /api/threads
// @Summary Create a thread
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateThreadRequest true "Thread"
// @Success 201 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Router /threads [post]
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req CreateThreadRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	thread, err := s.threads.CreateThread(c.UserContext(), service.CreateThreadInput{
		Text:        req.Text,
		AuthorID:    user.ID,
		CommunityID: req.CommunityID,
		Path:        revalidationPath(req.Path),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(thread)
}

// CreateComment handles POST /api/threads/:id/comments
// @Summary Reply to a thread
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent thread ID"
// @Param request body CreateCommentRequest true "Comment"
// @Success 201 {object} models.Thread
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	comment, err := s.threads.AddCommentToThread(c.UserContext(), service.AddCommentInput{
		ThreadID: c.Params("id"),
		Text:     req.Text,
		AuthorID: user.ID,
		Path:     revalidationPath(req.Path),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteThread handles DELETE /api/threads/:id
// @Summary Delete a thread and all of its replies
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Thread ID"
// @Param path query string false "Path to revalidate"
// @Success 200 {object} object{deleted=int}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [delete]
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	deleted, err := s.threads.DeleteThread(c.UserContext(), service.DeleteThreadInput{
		ID:          c.Params("id"),
		Path:        revalidationPath(c.Query("path")),
		RequesterID: user.ID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}
