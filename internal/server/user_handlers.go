package server

import (
	"strings"

	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest is the body of PUT /api/users/me.
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	Path     string `json:"path"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.users.FetchUser(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me. The first call for a new
// identity creates the profile.
// @Summary Create or update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.users.UpdateUser(c.UserContext(), service.UpdateUserInput{
		ExternalID: middleware.CurrentUserID(c),
		Username:   req.Username,
		Name:       req.Name,
		Bio:        req.Bio,
		Image:      req.Image,
		Path:       revalidationPath(req.Path),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUsers handles GET /api/users
// @Summary Search the user directory
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search string"
// @Param sort query string false "asc or desc" default(desc)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} models.UsersPage
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	page := parsePage(c)
	out, err := s.users.FetchAllUsers(c.UserContext(), service.FetchUsersInput{
		UserID:       middleware.CurrentUserID(c),
		SearchString: strings.TrimSpace(c.Query("q")),
		PageNumber:   page.PageNumber,
		PageSize:     page.PageSize,
		SortBy:       c.Query("sort", models.SortDesc),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetUser handles GET /api/users/:id
// @Summary Get a user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "External user ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	profile, err := s.users.FetchUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserThreads handles GET /api/users/:id/threads
// @Summary A user's threads with their direct replies
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "External user ID"
// @Success 200 {object} models.UserPosts
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/threads [get]
func (s *Server) GetUserThreads(c *fiber.Ctx) error {
	posts, err := s.users.FetchUserPosts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetActivity handles GET /api/activity
// @Summary Replies other users left on the caller's threads
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ThreadNode
// @Router /activity [get]
func (s *Server) GetActivity(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	replies, err := s.users.GetUserActivity(c.UserContext(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	if replies == nil {
		replies = []*models.ThreadNode{}
	}
	return c.JSON(replies)
}
