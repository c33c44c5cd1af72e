package handlers

import (
	"strconv"

	"coop-memberhub/internal/adapters/http/middleware"
	"coop-memberhub/internal/core/services"
	"coop-memberhub/internal/pkg/pagination"
	"coop-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// OrgHandler handles org hierarchy endpoints
type OrgHandler struct {
	orgService    *services.OrgService
	scopeService  *services.ScopeService
	memberService *services.MemberService
}

// NewOrgHandler creates a new org handler
func NewOrgHandler(orgService *services.OrgService, scopeService *services.ScopeService, memberService *services.MemberService) *OrgHandler {
	return &OrgHandler{
		orgService:    orgService,
		scopeService:  scopeService,
		memberService: memberService,
	}
}

// CreateUnit handles unit creation
// @Summary Create org unit
// @Description Create a new org unit under a parent, or a new root
// @Tags Org
// @Accept json
// @Produce json
// @Param request body services.CreateUnitInput true "Unit data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units [post]
func (h *OrgHandler) CreateUnit(c *fiber.Ctx) error {
	var input services.CreateUnitInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	unit, err := h.orgService.CreateUnit(c.Context(), &input)
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, "Unit created", unit.ToResponse())
}

// UpdateUnit handles unit rename / status change
// @Summary Update org unit
// @Description Rename or enable/disable a unit
// @Tags Org
// @Accept json
// @Produce json
// @Param id path int true "Unit ID"
// @Param request body services.UpdateUnitInput true "Changes"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units/{id} [put]
func (h *OrgHandler) UpdateUnit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid unit ID")
	}

	var input services.UpdateUnitInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	unit, err := h.orgService.UpdateUnit(c.Context(), id, &input)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Unit updated", unit.ToResponse())
}

// DeleteUnit handles unit deletion
// @Summary Delete org unit
// @Description Delete a unit that has no children and no members
// @Tags Org
// @Produce json
// @Param id path int true "Unit ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units/{id} [delete]
func (h *OrgHandler) DeleteUnit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid unit ID")
	}

	if err := h.orgService.DeleteUnit(c.Context(), id); err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Unit deleted", nil)
}

// GetUnit handles unit detail with aggregate member count
// @Summary Get org unit
// @Description Get a unit with direct and aggregate member counts
// @Tags Org
// @Produce json
// @Param id path int true "Unit ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units/{id} [get]
func (h *OrgHandler) GetUnit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid unit ID")
	}

	unit, err := h.orgService.GetUnit(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", unit)
}

// GetTree handles subtree / forest display
// @Summary Get org tree
// @Description Get the descendant tree under root_id, or the whole forest
// @Tags Org
// @Produce json
// @Param root_id query int false "Subtree root"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/tree [get]
func (h *OrgHandler) GetTree(c *fiber.Ctx) error {
	var rootID uint
	if raw := c.Query("root_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid root_id")
		}
		rootID = uint(parsed)
	}

	result, err := h.orgService.GetSubtree(c.Context(), rootID)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", result)
}

// GetScope handles scope resolution
// @Summary Get unit scope
// @Description Get the unit's own ID plus every descendant ID
// @Tags Org
// @Produce json
// @Param id path int true "Unit ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units/{id}/scope [get]
func (h *OrgHandler) GetScope(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid unit ID")
	}

	ids, err := h.scopeService.SelfAndDescendants(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", fiber.Map{
		"unit_id":  id,
		"unit_ids": ids,
	})
}

// RepairPath handles materialized path repair
// @Summary Repair unit path
// @Description Recompute the unit's path from its parent chain and rewrite descendants
// @Tags Org
// @Produce json
// @Param id path int true "Unit ID"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units/{id}/repair-path [post]
func (h *OrgHandler) RepairPath(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid unit ID")
	}

	result, err := h.orgService.RepairPath(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Path repair finished", result)
}

// Recount handles direct member count recompute
// @Summary Recount unit members
// @Description Rewrite the unit's direct member count from the members table
// @Tags Org
// @Produce json
// @Param id path int true "Unit ID"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units/{id}/recount [post]
func (h *OrgHandler) Recount(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid unit ID")
	}

	direct, aggregate, err := h.orgService.RecomputeMemberCount(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Member count recomputed", fiber.Map{
		"unit_id":         id,
		"member_count":    direct,
		"aggregate_count": aggregate,
	})
}

// ListUnitMembers handles listing the members of a unit
// @Summary List unit members
// @Description List members directly assigned to a unit, paginated
// @Tags Org
// @Produce json
// @Param id path int true "Unit ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/org/units/{id}/members [get]
func (h *OrgHandler) ListUnitMembers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid unit ID")
	}

	params := pagination.GetParams(c)
	actor := middleware.ActorFromCtx(c)

	members, total, err := h.memberService.ListByUnit(c.Context(), actor, id, params.Page, params.Limit)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", pagination.NewResponse(members, params, total))
}

// parseID parses a uint path parameter
func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(raw), nil
}
