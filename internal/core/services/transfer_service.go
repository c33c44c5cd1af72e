package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/adapters/persistence/repositories"
	"coop-memberhub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// outStageCodes are the states the out-approval stage accepts. A freshly
// applied transfer and one explicitly parked at OUT_APPROVING are the same
// pre-condition for this stage.
var outStageCodes = []int{models.TransferCodeApplying, models.TransferCodeOutApproving}

// TransferService handles cross-organization transfer business logic
type TransferService struct {
	db           *gorm.DB
	transferRepo *repositories.TransferRepository
	logRepo      *repositories.ApprovalLogRepository
	orgRepo      *repositories.OrgRepository
	memberRepo   repositories.MemberRepository
	scope        *ScopeService
	notify       *NotificationService
	perms        *domain.Permissions
	graceMonths  int
}

// NewTransferService creates a new transfer service
func NewTransferService(
	db *gorm.DB,
	transferRepo *repositories.TransferRepository,
	logRepo *repositories.ApprovalLogRepository,
	orgRepo *repositories.OrgRepository,
	memberRepo repositories.MemberRepository,
	scope *ScopeService,
	notify *NotificationService,
	perms *domain.Permissions,
	graceMonths int,
) *TransferService {
	return &TransferService{
		db:           db,
		transferRepo: transferRepo,
		logRepo:      logRepo,
		orgRepo:      orgRepo,
		memberRepo:   memberRepo,
		scope:        scope,
		notify:       notify,
		perms:        perms,
		graceMonths:  graceMonths,
	}
}

// CreateTransferInput represents create transfer input
type CreateTransferInput struct {
	MemberID uint `json:"member_id" validate:"required"`
	InUnitID uint `json:"in_unit_id" validate:"required"`
}

// Create files a new transfer for the member out of their current home unit
// into the target unit. The single-active rule is enforced by the insert
// itself, so two concurrent applications cannot both succeed.
func (s *TransferService) Create(ctx context.Context, actor domain.Actor, input *CreateTransferInput) (*models.Transfer, error) {
	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("member %d: %w", input.MemberID, domain.ErrNotFound)
		}
		return nil, err
	}

	if actor.MembNo != member.MembNo && !s.perms.CanApplyOnBehalf(actor.Role) {
		return nil, fmt.Errorf("only the member or an officer may apply: %w", domain.ErrForbidden)
	}

	if input.InUnitID == member.HomeUnitID {
		return nil, fmt.Errorf("target unit equals current home unit: %w", domain.ErrValidation)
	}

	if _, err := s.orgRepo.GetByID(ctx, member.HomeUnitID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("home unit %d: %w", member.HomeUnitID, domain.ErrNotFound)
		}
		return nil, err
	}

	inUnit, err := s.orgRepo.GetByID(ctx, input.InUnitID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("target unit %d: %w", input.InUnitID, domain.ErrNotFound)
		}
		return nil, err
	}
	if inUnit.Status != models.UnitStatusActive {
		return nil, fmt.Errorf("target unit %d is disabled: %w", inUnit.ID, domain.ErrConflict)
	}

	now := time.Now()
	transfer := &models.Transfer{
		TransferNo:      uuid.New().String(),
		MemberID:        member.ID,
		OutUnitID:       member.HomeUnitID,
		InUnitID:        input.InUnitID,
		Status:          models.TransferStatusApplying,
		StatusCode:      models.TransferCodeApplying,
		ApplicationTime: now,
		ExpireTime:      now.AddDate(0, s.graceMonths, 0),
	}

	ok, err := s.transferRepo.CreateExclusive(ctx, transfer)
	if err != nil {
		return nil, err
	}
	if !ok {
		if active, aerr := s.transferRepo.GetActiveByMember(ctx, member.ID); aerr == nil {
			return nil, fmt.Errorf("member %d already has active transfer %s: %w", member.ID, active.TransferNo, domain.ErrConflict)
		}
		return nil, fmt.Errorf("member %d already has an active transfer: %w", member.ID, domain.ErrConflict)
	}

	log.Printf("✅ Transfer %s filed: member #%d unit #%d → #%d", transfer.TransferNo, member.ID, transfer.OutUnitID, transfer.InUnitID)

	if s.notify != nil {
		s.notify.NotifyTransferCreated(transfer, member.FullName)
	}
	return transfer, nil
}

// ApproveInput represents an approval stage decision
type ApproveInput struct {
	Approved bool   `json:"approved"`
	Remark   string `json:"remark,omitempty"`
}

// OutApprove records the source-unit decision. Approval advances the
// transfer to IN_APPROVING; rejection ends the workflow. The transition is
// a conditional update, so of two concurrent calls exactly one takes effect
// and writes the single log entry for this stage.
func (s *TransferService) OutApprove(ctx context.Context, actor domain.Actor, transferID uint, input *ApproveInput) (*models.Transfer, error) {
	if _, err := s.getForApproval(ctx, actor, transferID, models.StageOut); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"out_approver_id":   actor.UserID,
		"out_approved":      input.Approved,
		"out_approval_time": now,
		"out_remark":        input.Remark,
	}
	if input.Approved {
		updates["status"] = models.TransferStatusInApproving
		updates["status_code"] = models.TransferCodeInApproving
	} else {
		updates["status"] = models.TransferStatusRejected
		updates["status_code"] = models.TransferCodeRejected
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.transferRepo.WithTx(tx).UpdateStatusConditional(ctx, transferID, outStageCodes, updates)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("transfer %d already processed: %w", transferID, domain.ErrConflict)
		}
		return s.logRepo.WithTx(tx).Create(ctx, &models.TransferApprovalLog{
			TransferID:   transferID,
			Stage:        models.StageOut,
			ApproverID:   actor.UserID,
			ApproverName: actor.Username,
			Approved:     input.Approved,
			Remark:       input.Remark,
			SourceIP:     actor.SourceIP,
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if input.Approved {
			s.notify.NotifyOutApproved(updated)
		} else {
			s.notify.NotifyRejected(updated, input.Remark)
		}
	}
	return updated, nil
}

// InApprove records the destination-unit decision. Approval finalizes the
// transfer: the member's home unit moves to the in unit and both endpoint
// units' direct counts are recomputed, all in the transition's transaction.
func (s *TransferService) InApprove(ctx context.Context, actor domain.Actor, transferID uint, input *ApproveInput) (*models.Transfer, error) {
	transfer, err := s.getForApproval(ctx, actor, transferID, models.StageIn)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"in_approver_id":   actor.UserID,
		"in_approved":      input.Approved,
		"in_approval_time": now,
		"in_remark":        input.Remark,
	}
	if input.Approved {
		updates["status"] = models.TransferStatusApproved
		updates["status_code"] = models.TransferCodeApproved
	} else {
		updates["status"] = models.TransferStatusRejected
		updates["status_code"] = models.TransferCodeRejected
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.transferRepo.WithTx(tx).UpdateStatusConditional(ctx, transferID, []int{models.TransferCodeInApproving}, updates)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("transfer %d not awaiting in approval: %w", transferID, domain.ErrConflict)
		}

		if err := s.logRepo.WithTx(tx).Create(ctx, &models.TransferApprovalLog{
			TransferID:   transferID,
			Stage:        models.StageIn,
			ApproverID:   actor.UserID,
			ApproverName: actor.Username,
			Approved:     input.Approved,
			Remark:       input.Remark,
			SourceIP:     actor.SourceIP,
		}); err != nil {
			return err
		}

		if !input.Approved {
			return nil
		}

		if err := s.memberRepo.WithTx(tx).UpdateHomeUnit(ctx, transfer.MemberID, transfer.InUnitID); err != nil {
			return err
		}
		return s.orgRepo.WithTx(tx).RecountMembers(ctx, []uint{transfer.OutUnitID, transfer.InUnitID})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if input.Approved {
		log.Printf("✅ Transfer %s approved: member #%d moved to unit #%d", updated.TransferNo, updated.MemberID, updated.InUnitID)
	}

	if s.notify != nil {
		if input.Approved {
			s.notify.NotifyApproved(updated)
		} else {
			s.notify.NotifyRejected(updated, input.Remark)
		}
	}
	return updated, nil
}

// getForApproval loads the transfer and checks the stage predicate. The
// state check itself happens later in the conditional update; this only
// rejects callers who could never act on the stage.
func (s *TransferService) getForApproval(ctx context.Context, actor domain.Actor, transferID uint, stage int) (*models.Transfer, error) {
	if !s.perms.CanApproveTransfers(actor.Role) {
		return nil, fmt.Errorf("role %s may not approve transfers: %w", actor.Role, domain.ErrForbidden)
	}

	transfer, err := s.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("transfer %d: %w", transferID, domain.ErrNotFound)
		}
		return nil, err
	}

	if !s.scope.CanApproveStage(actor, transfer, stage) {
		return nil, fmt.Errorf("approver unit does not match stage unit: %w", domain.ErrForbidden)
	}
	return transfer, nil
}

// Cancel withdraws a transfer that has not yet passed the out stage. Only
// the original applicant may cancel. The row is deleted, not marked, so a
// cancelled application is distinguishable from a rejected one by absence.
func (s *TransferService) Cancel(ctx context.Context, actor domain.Actor, transferID uint) error {
	transfer, err := s.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("transfer %d: %w", transferID, domain.ErrNotFound)
		}
		return err
	}

	if transfer.Member == nil || actor.MembNo != transfer.Member.MembNo {
		return fmt.Errorf("only the applicant may cancel: %w", domain.ErrForbidden)
	}

	ok, err := s.transferRepo.DeleteConditional(ctx, transferID, models.TransferCodeOutApproving)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("transfer %d already past the out stage: %w", transferID, domain.ErrConflict)
	}

	log.Printf("🗑️ Transfer %s cancelled by applicant", transfer.TransferNo)
	return nil
}

// GetByID gets a transfer the actor is allowed to see
func (s *TransferService) GetByID(ctx context.Context, actor domain.Actor, transferID uint) (*models.Transfer, error) {
	transfer, err := s.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("transfer %d: %w", transferID, domain.ErrNotFound)
		}
		return nil, err
	}

	membNo := ""
	if transfer.Member != nil {
		membNo = transfer.Member.MembNo
	}
	allowed, err := s.scope.CanViewTransfer(ctx, actor, transfer, membNo)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("transfer %d: %w", transferID, domain.ErrForbidden)
	}
	return transfer, nil
}

// GetLogs gets the approval log entries of a transfer the actor may see
func (s *TransferService) GetLogs(ctx context.Context, actor domain.Actor, transferID uint) ([]*models.TransferApprovalLog, error) {
	if _, err := s.GetByID(ctx, actor, transferID); err != nil {
		return nil, err
	}
	return s.logRepo.GetByTransferID(ctx, transferID)
}

// ListInput represents transfer list input
type ListInput struct {
	Page       int
	Limit      int
	Status     string
	UnitID     uint
	ActiveOnly bool
}

// ListOutput represents transfer list output
type ListOutput struct {
	Transfers  []*models.TransferResponse `json:"transfers"`
	Total      int64                      `json:"total"`
	Page       int                        `json:"page"`
	Limit      int                        `json:"limit"`
	TotalPages int                        `json:"total_pages"`
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func newListOutput(transfers []*models.Transfer, total int64, page, limit int) *ListOutput {
	responses := make([]*models.TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		responses = append(responses, t.ToResponse())
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListOutput{
		Transfers:  responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// List lists transfers visible to the actor. Admins see everything; unit
// administrators see transfers touching their unit or any unit below it;
// plain members see their own applications.
func (s *TransferService) List(ctx context.Context, actor domain.Actor, input *ListInput) (*ListOutput, error) {
	page, limit := normalizePage(input.Page, input.Limit)

	filter := repositories.TransferFilter{
		Status:     input.Status,
		ActiveOnly: input.ActiveOnly,
	}

	switch {
	case actor.IsAdmin():
		if input.UnitID != 0 {
			filter.UnitIDs = []uint{input.UnitID}
		}
	case s.perms.CanApproveTransfers(actor.Role):
		if actor.UnitID == 0 {
			return nil, fmt.Errorf("approver account has no unit assigned: %w", domain.ErrForbidden)
		}
		scopeIDs, err := s.scope.SelfAndDescendants(ctx, actor.UnitID)
		if err != nil {
			return nil, err
		}
		if input.UnitID != 0 {
			if !containsUint(scopeIDs, input.UnitID) {
				return nil, fmt.Errorf("unit %d outside caller scope: %w", input.UnitID, domain.ErrForbidden)
			}
			filter.UnitIDs = []uint{input.UnitID}
		} else {
			filter.UnitIDs = scopeIDs
		}
	default:
		member, err := s.memberRepo.GetByMembNo(ctx, actor.MembNo)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("member %s: %w", actor.MembNo, domain.ErrNotFound)
			}
			return nil, err
		}
		filter.MemberID = member.ID
	}

	transfers, total, err := s.transferRepo.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return newListOutput(transfers, total, page, limit), nil
}

// ListMine lists the actor's own applications
func (s *TransferService) ListMine(ctx context.Context, actor domain.Actor, page, limit int) (*ListOutput, error) {
	member, err := s.memberRepo.GetByMembNo(ctx, actor.MembNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("member %s: %w", actor.MembNo, domain.ErrNotFound)
		}
		return nil, err
	}

	page, limit = normalizePage(page, limit)
	transfers, total, err := s.transferRepo.List(ctx, repositories.TransferFilter{MemberID: member.ID}, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return newListOutput(transfers, total, page, limit), nil
}

// SweepExpired force-rejects every non-terminal transfer whose expire time
// passed. One transaction per row bounds lock duration; each row gets a
// system-authored log entry. Returns the number of transfers swept.
func (s *TransferService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.transferRepo.ListExpired(ctx, now, 500)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, t := range expired {
		ok, err := s.sweepOne(ctx, t)
		if err != nil {
			return swept, err
		}
		if !ok {
			// Decided by an approver between scan and sweep; their
			// transition already notified, so this row must not.
			continue
		}
		swept++

		if s.notify != nil {
			s.notify.NotifyExpired(t)
		}
	}

	if swept > 0 {
		log.Printf("🧹 Swept %d expired transfers", swept)
	}
	return swept, nil
}

// sweepOne applies the system rejection to one scanned row. Returns false
// when the conditional update matched nothing because the transfer was
// decided after the scan.
func (s *TransferService) sweepOne(ctx context.Context, t *models.Transfer) (bool, error) {
	stage := models.StageOut
	if t.StatusCode == models.TransferCodeInApproving {
		stage = models.StageIn
	}

	swept := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.transferRepo.WithTx(tx).UpdateStatusConditional(ctx, t.ID,
			[]int{models.TransferCodeApplying, models.TransferCodeOutApproving, models.TransferCodeInApproving},
			map[string]interface{}{
				"status":      models.TransferStatusRejected,
				"status_code": models.TransferCodeRejected,
			})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		swept = true
		return s.logRepo.WithTx(tx).Create(ctx, &models.TransferApprovalLog{
			TransferID:   t.ID,
			Stage:        stage,
			ApproverID:   models.SystemApproverID,
			ApproverName: models.SystemApproverName,
			Approved:     false,
			Remark:       "transfer expired",
		})
	})
	return swept, err
}

func containsUint(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
