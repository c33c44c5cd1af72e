package handlers

import (
	"strconv"
	"time"

	"coop-memberhub/internal/adapters/http/middleware"
	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/core/services"
	"coop-memberhub/internal/pkg/pagination"
	"coop-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransferHandler handles transfer workflow endpoints
type TransferHandler struct {
	transferService *services.TransferService
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transferService *services.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// Create handles transfer application
// @Summary Create transfer
// @Description File a transfer of a member into a target unit
// @Tags Transfers
// @Accept json
// @Produce json
// @Param request body services.CreateTransferInput true "Transfer data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var input services.CreateTransferInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.MemberID == 0 || input.InUnitID == 0 {
		return response.BadRequest(c, "member_id and in_unit_id are required")
	}

	actor := middleware.ActorFromCtx(c)
	transfer, err := h.transferService.Create(c.Context(), actor, &input)
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, "Transfer filed", transfer.ToResponse())
}

// List handles scope-checked transfer listing
// @Summary List transfers
// @Description List transfers visible to the caller, paginated
// @Tags Transfers
// @Produce json
// @Param status query string false "Status filter"
// @Param unit_id query int false "Unit filter"
// @Param active query bool false "Only non-terminal transfers"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	var unitID uint
	if raw := c.Query("unit_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid unit_id")
		}
		unitID = uint(parsed)
	}

	input := &services.ListInput{
		Page:       params.Page,
		Limit:      params.Limit,
		Status:     c.Query("status"),
		UnitID:     unitID,
		ActiveOnly: c.QueryBool("active"),
	}

	actor := middleware.ActorFromCtx(c)
	output, err := h.transferService.List(c.Context(), actor, input)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", output)
}

// ListMine handles the caller's own applications
// @Summary My transfers
// @Description List the caller's own transfer applications
// @Tags Transfers
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers/my [get]
func (h *TransferHandler) ListMine(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	actor := middleware.ActorFromCtx(c)

	output, err := h.transferService.ListMine(c.Context(), actor, params.Page, params.Limit)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", output)
}

// GetByID handles transfer detail
// @Summary Get transfer
// @Description Get a transfer the caller is allowed to see
// @Tags Transfers
// @Produce json
// @Param id path int true "Transfer ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transfer ID")
	}

	actor := middleware.ActorFromCtx(c)
	transfer, err := h.transferService.GetByID(c.Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", transfer.ToResponse())
}

// GetLogs handles the approval log listing
// @Summary Get approval logs
// @Description Get the approval log entries of a transfer
// @Tags Transfers
// @Produce json
// @Param id path int true "Transfer ID"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers/{id}/logs [get]
func (h *TransferHandler) GetLogs(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transfer ID")
	}

	actor := middleware.ActorFromCtx(c)
	logs, err := h.transferService.GetLogs(c.Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "", logs)
}

// OutApprove handles the source-unit stage decision
// @Summary Out-stage approval
// @Description Record the source unit's decision on a transfer
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path int true "Transfer ID"
// @Param request body services.ApproveInput true "Decision"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers/{id}/out-approve [put]
func (h *TransferHandler) OutApprove(c *fiber.Ctx) error {
	return h.approve(c, models.StageOut)
}

// InApprove handles the destination-unit stage decision
// @Summary In-stage approval
// @Description Record the destination unit's decision on a transfer
// @Tags Transfers
// @Accept json
// @Produce json
// @Param id path int true "Transfer ID"
// @Param request body services.ApproveInput true "Decision"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers/{id}/in-approve [put]
func (h *TransferHandler) InApprove(c *fiber.Ctx) error {
	return h.approve(c, models.StageIn)
}

func (h *TransferHandler) approve(c *fiber.Ctx, stage int) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transfer ID")
	}

	var input services.ApproveInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !input.Approved && input.Remark == "" {
		return response.BadRequest(c, "Remark is required when rejecting")
	}

	actor := middleware.ActorFromCtx(c)

	var transfer *models.Transfer
	if stage == models.StageOut {
		transfer, err = h.transferService.OutApprove(c.Context(), actor, id, &input)
	} else {
		transfer, err = h.transferService.InApprove(c.Context(), actor, id, &input)
	}
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Decision recorded", transfer.ToResponse())
}

// Cancel handles applicant withdrawal
// @Summary Cancel transfer
// @Description Withdraw a transfer that has not passed the out stage
// @Tags Transfers
// @Produce json
// @Param id path int true "Transfer ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/transfers/{id} [delete]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid transfer ID")
	}

	actor := middleware.ActorFromCtx(c)
	if err := h.transferService.Cancel(c.Context(), actor, id); err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Transfer cancelled", nil)
}

// Sweep handles manual sweep trigger
// @Summary Sweep expired transfers
// @Description Force-reject every non-terminal transfer past its expire time
// @Tags Transfers
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/admin/transfers/sweep [post]
func (h *TransferHandler) Sweep(c *fiber.Ctx) error {
	swept, err := h.transferService.SweepExpired(c.Context(), time.Now())
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Sweep finished", fiber.Map{"swept": swept})
}
