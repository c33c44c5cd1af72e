package repositories

import (
	"context"
	"time"

	"coop-memberhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// TransferFilter narrows transfer listings
type TransferFilter struct {
	MemberID   uint
	OutUnitID  uint
	InUnitID   uint
	UnitIDs    []uint // matches either endpoint, used for scope filtering
	Status     string
	ActiveOnly bool
}

// TransferRepository handles transfer data access
type TransferRepository struct {
	db *gorm.DB
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *gorm.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *TransferRepository) WithTx(tx *gorm.DB) *TransferRepository {
	return &TransferRepository{db: tx}
}

// CreateExclusive inserts the transfer only if the member has no other
// non-terminal transfer. Insert and existence check run in one statement so
// two concurrent applications cannot both pass the check. Returns false when
// an active transfer already blocked the insert.
func (r *TransferRepository) CreateExclusive(ctx context.Context, t *models.Transfer) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO transfers
			(transfer_no, member_id, out_unit_id, in_unit_id, status, status_code,
			 application_time, expire_time, out_remark, in_remark, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?
		FROM (SELECT 1) AS seed
		WHERE NOT EXISTS (
			SELECT 1 FROM transfers WHERE member_id = ? AND status_code <= ?
		)`,
		t.TransferNo, t.MemberID, t.OutUnitID, t.InUnitID, t.Status, t.StatusCode,
		t.ApplicationTime, t.ExpireTime, time.Now(), time.Now(),
		t.MemberID, models.TransferCodeActiveMax,
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	// Read the row back so the caller gets the generated ID.
	err := r.db.WithContext(ctx).
		Where("transfer_no = ?", t.TransferNo).
		First(t).Error
	return true, err
}

// GetByID gets a transfer with its member and both unit endpoints
func (r *TransferRepository) GetByID(ctx context.Context, id uint) (*models.Transfer, error) {
	var t models.Transfer
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("OutUnit").
		Preload("InUnit").
		First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetActiveByMember gets the member's current non-terminal transfer, if any
func (r *TransferRepository) GetActiveByMember(ctx context.Context, memberID uint) (*models.Transfer, error) {
	var t models.Transfer
	err := r.db.WithContext(ctx).
		Preload("OutUnit").
		Preload("InUnit").
		Where("member_id = ? AND status_code <= ?", memberID, models.TransferCodeActiveMax).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List gets transfers matching the filter with pagination
func (r *TransferRepository) List(ctx context.Context, filter TransferFilter, offset, limit int) ([]*models.Transfer, int64, error) {
	var transfers []*models.Transfer
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Transfer{})

	if filter.MemberID != 0 {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if filter.OutUnitID != 0 {
		query = query.Where("out_unit_id = ?", filter.OutUnitID)
	}
	if filter.InUnitID != 0 {
		query = query.Where("in_unit_id = ?", filter.InUnitID)
	}
	if len(filter.UnitIDs) > 0 {
		query = query.Where("(out_unit_id IN ? OR in_unit_id IN ?)", filter.UnitIDs, filter.UnitIDs)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ActiveOnly {
		query = query.Where("status_code <= ?", models.TransferCodeActiveMax)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Member").
		Preload("OutUnit").
		Preload("InUnit").
		Order("application_time DESC").
		Offset(offset).
		Limit(limit).
		Find(&transfers).Error

	return transfers, total, err
}

// UpdateStatusConditional applies the updates only while the transfer still
// holds one of the expected status codes. Zero affected rows means another
// approver (or the sweeper) won the race.
func (r *TransferRepository) UpdateStatusConditional(ctx context.Context, id uint, expectCodes []int, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Where("id = ? AND status_code IN ?", id, expectCodes).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteConditional hard deletes the transfer while it is still pre-approval.
// Cancellation removes the row entirely so the member may re-apply at once.
func (r *TransferRepository) DeleteConditional(ctx context.Context, id uint, maxCode int) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status_code <= ?", id, maxCode).
		Delete(&models.Transfer{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListExpired gets non-terminal transfers whose expire time passed
func (r *TransferRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Transfer, error) {
	var transfers []*models.Transfer
	err := r.db.WithContext(ctx).
		Where("status_code <= ? AND expire_time < ?", models.TransferCodeActiveMax, now).
		Order("expire_time ASC").
		Limit(limit).
		Find(&transfers).Error
	return transfers, err
}

// ============================================================
// Approval Log Repository
// ============================================================

// ApprovalLogRepository handles transfer approval log access.
// The table is append-only.
type ApprovalLogRepository struct {
	db *gorm.DB
}

// NewApprovalLogRepository creates a new approval log repository
func NewApprovalLogRepository(db *gorm.DB) *ApprovalLogRepository {
	return &ApprovalLogRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ApprovalLogRepository) WithTx(tx *gorm.DB) *ApprovalLogRepository {
	return &ApprovalLogRepository{db: tx}
}

// Create appends an approval log entry
func (r *ApprovalLogRepository) Create(ctx context.Context, log *models.TransferApprovalLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByTransferID gets all log entries of a transfer, oldest first
func (r *ApprovalLogRepository) GetByTransferID(ctx context.Context, transferID uint) ([]*models.TransferApprovalLog, error) {
	var logs []*models.TransferApprovalLog
	err := r.db.WithContext(ctx).
		Where("transfer_id = ?", transferID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
