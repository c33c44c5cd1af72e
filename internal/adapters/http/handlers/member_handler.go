package handlers

import (
	"coop-memberhub/internal/adapters/http/middleware"
	"coop-memberhub/internal/core/services"
	"coop-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member directory endpoints
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// Search handles member search
// @Summary Search members
// @Description Find members by member number or name fragment
// @Tags Members
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/members/search [get]
func (h *MemberHandler) Search(c *fiber.Ctx) error {
	actor := middleware.ActorFromCtx(c)

	members, err := h.memberService.Search(c.Context(), actor, c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", members)
}

// GetByID handles member resolution
// @Summary Get member
// @Description Resolve a member to name and home unit
// @Tags Members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/members/{id} [get]
func (h *MemberHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	actor := middleware.ActorFromCtx(c)
	member, err := h.memberService.GetByID(c.Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", member)
}
