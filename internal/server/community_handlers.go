package server

import (
	"strings"

	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunityRequest is the body of POST /api/communities.
type CreateCommunityRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
	Bio      string `json:"bio"`
	Path     string `json:"path"`
}

// UpdateCommunityRequest is the body of PUT /api/communities/:id.
type UpdateCommunityRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
	Path     string `json:"path"`
}

// AddMemberRequest is the body of POST /api/communities/:id/members.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// GetCommunities handles GET /api/communities
// @Summary Search communities
// @Tags communities
// @Produce json
// @Param q query string false "Search string"
// @Param sort query string false "asc or desc" default(desc)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} models.CommunitiesPage
// @Router /communities [get]
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	page := parsePage(c)
	out, err := s.communities.FetchCommunities(c.UserContext(), service.FetchCommunitiesInput{
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

// GetCommunity handles GET /api/communities/:id
// @Summary Community details with creator and members
// @Tags communities
// @Produce json
// @Param id path string true "External community ID"
// @Success 200 {object} models.CommunityDetails
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id} [get]
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	details, err := s.communities.FetchCommunityDetails(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(details)
}

// GetCommunityThreads handles GET /api/communities/:id/threads
// @Summary A community's threads
// @Tags communities
// @Produce json
// @Param id path string true "External community ID"
// @Success 200 {object} models.CommunityPosts
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id}/threads [get]
func (s *Server) GetCommunityThreads(c *fiber.Ctx) error {
	posts, err := s.communities.FetchCommunityPosts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreateCommunity handles POST /api/communities
// @Summary Create a community owned by the caller
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCommunityRequest true "Community"
// @Success 201 {object} models.Community
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /communities [post]
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req CreateCommunityRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	community, err := s.communities.CreateCommunity(c.UserContext(), service.CreateCommunityInput{
		ExternalID: strings.TrimSpace(req.ID),
		Name:       req.Name,
		Username:   req.Username,
		Image:      req.Image,
		Bio:        req.Bio,
		CreatedBy:  middleware.CurrentUserID(c),
		Path:       revalidationPath(req.Path),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// UpdateCommunity handles PUT /api/communities/:id
// @Summary Update community info
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "External community ID"
// @Param request body UpdateCommunityRequest true "Community"
// @Success 200 {object} models.Community
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id} [put]
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	var req UpdateCommunityRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	community, err := s.communities.UpdateCommunityInfo(c.UserContext(), service.UpdateCommunityInput{
		ExternalID:  c.Params("id"),
		Name:        req.Name,
		Username:    req.Username,
		Image:       req.Image,
		RequesterID: middleware.CurrentUserID(c),
		Path:        revalidationPath(req.Path),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// AddCommunityMember handles POST /api/communities/:id/members
// @Summary Add a member. Without user_id the caller joins.
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "External community ID"
// @Param request body AddMemberRequest false "Member"
// @Success 200 {object} models.Community
// @Failure 409 {object} models.ErrorResponse
// @Router /communities/{id}/members [post]
func (s *Server) AddCommunityMember(c *fiber.Ctx) error {
	var req AddMemberRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	memberID := strings.TrimSpace(req.UserID)
	if memberID == "" {
		memberID = middleware.CurrentUserID(c)
	}

	community, err := s.communities.AddMemberToCommunity(c.UserContext(), c.Params("id"), memberID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// RemoveCommunityMember handles DELETE /api/communities/:id/members/:userId
// @Summary Leave a community, or remove a member as its creator
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "External community ID"
// @Param userId path string true "External user ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id}/members/{userId} [delete]
func (s *Server) RemoveCommunityMember(c *fiber.Ctx) error {
	memberID := c.Params("userId")
	if requester := middleware.CurrentUserID(c); memberID != requester {
		// Only the creator may remove someone else.
		details, err := s.communities.FetchCommunityDetails(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if details.Creator == nil || details.Creator.ExternalID != requester {
			return respondError(c, models.NewUnauthorizedError("Only the community creator can remove other members"))
		}
	}

	if err := s.communities.RemoveUserFromCommunity(c.UserContext(), memberID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteCommunity handles DELETE /api/communities/:id
// @Summary Delete a community and its threads
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path string true "External community ID"
// @Param path query string false "Path to revalidate"
// @Success 200 {object} models.Community
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id} [delete]
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	community, err := s.communities.DeleteCommunity(c.UserContext(), service.DeleteCommunityInput{
		ExternalID:  c.Params("id"),
		RequesterID: middleware.CurrentUserID(c),
		Path:        revalidationPath(c.Query("path")),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}
