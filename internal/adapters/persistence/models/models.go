package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Organizational Hierarchy Tables
// ============================================================

// Unit statuses
const (
	UnitStatusActive   = "ACTIVE"
	UnitStatusDisabled = "DISABLED"
)

// PathDelimiter separates ancestor IDs in the materialized path.
// Every element carries a trailing delimiter ("3," / "3,7,") so that
// prefix matching on descendants cannot confuse "1" with "12".
const PathDelimiter = ","

// OrgUnit represents org_units table, one node of the administrative tree.
// Path stores the ancestor ID chain excluding the node itself; roots store
// the empty string. Level always equals the number of path elements.
type OrgUnit struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ParentID    *uint          `gorm:"index" json:"parent_id"`
	Path        string         `gorm:"size:500;index;not null;default:''" json:"path"`
	Level       int            `gorm:"not null;default:0" json:"level"`
	IsLeaf      bool           `gorm:"not null;default:true" json:"is_leaf"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Status      string         `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	MemberCount int64          `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Parent *OrgUnit `gorm:"foreignKey:ParentID" json:"-"`
}

func (OrgUnit) TableName() string {
	return "org_units"
}

// SubtreePrefix returns the path prefix shared by every descendant of the
// unit: the unit's own path plus its own ID and the trailing delimiter.
// It is also the path a direct child of this unit must carry.
func (u *OrgUnit) SubtreePrefix() string {
	return u.Path + strconv.FormatUint(uint64(u.ID), 10) + PathDelimiter
}

// OrgUnitResponse DTO
type OrgUnitResponse struct {
	ID             uint   `json:"id"`
	ParentID       *uint  `json:"parent_id"`
	Level          int    `json:"level"`
	IsLeaf         bool   `json:"is_leaf"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	MemberCount    int64  `json:"member_count"`
	AggregateCount int64  `json:"aggregate_count,omitempty"`
}

func (u *OrgUnit) ToResponse() *OrgUnitResponse {
	return &OrgUnitResponse{
		ID:          u.ID,
		ParentID:    u.ParentID,
		Level:       u.Level,
		IsLeaf:      u.IsLeaf,
		Name:        u.Name,
		Status:      u.Status,
		MemberCount: u.MemberCount,
	}
}

// ============================================================
// Member & User Tables
// ============================================================

// Member represents members table, the user-directory projection the
// transfer workflow reads and (on final approval) writes.
type Member struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	MembNo     string         `gorm:"uniqueIndex;size:20;not null" json:"memb_no"`
	FullName   string         `gorm:"size:100;not null" json:"full_name"`
	HomeUnitID uint           `gorm:"index;not null" json:"home_unit_id"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	HomeUnit *OrgUnit `gorm:"foreignKey:HomeUnitID" json:"home_unit,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// User represents users table, the approver/admin accounts.
// Login lives in the member portal; this service only validates its tokens.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MembNo    string         `gorm:"uniqueIndex;size:20;not null" json:"memb_no"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'MEMBER'" json:"role"`
	UnitID    uint           `gorm:"index" json:"unit_id"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// ============================================================
// Transfer Workflow Tables
// ============================================================

// Transfer statuses. StatusCode mirrors Status as an ordinal so the
// single-active rule is one integer comparison (code <= IN_APPROVING).
const (
	TransferStatusApplying     = "APPLYING"
	TransferStatusOutApproving = "OUT_APPROVING"
	TransferStatusInApproving  = "IN_APPROVING"
	TransferStatusApproved     = "APPROVED"
	TransferStatusRejected     = "REJECTED"

	TransferCodeApplying     = 1
	TransferCodeOutApproving = 2
	TransferCodeInApproving  = 3
	TransferCodeApproved     = 4
	TransferCodeRejected     = 5

	// TransferCodeActiveMax is the highest non-terminal status code.
	TransferCodeActiveMax = TransferCodeInApproving
)

// Approval stages
const (
	StageOut = 1
	StageIn  = 2
)

// SystemApproverID is the sentinel approver for sweep-initiated rejections.
const SystemApproverID = 0

// SystemApproverName labels sweep-initiated log entries.
const SystemApproverName = "SYSTEM"

// Transfer represents transfers table, one member's move between units.
type Transfer struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TransferNo      string     `gorm:"uniqueIndex;size:40;not null" json:"transfer_no"`
	MemberID        uint       `gorm:"index;not null" json:"member_id"`
	OutUnitID       uint       `gorm:"index;not null" json:"out_unit_id"`
	InUnitID        uint       `gorm:"index;not null" json:"in_unit_id"`
	Status          string     `gorm:"size:20;not null" json:"status"`
	StatusCode      int        `gorm:"index;not null" json:"status_code"`
	ApplicationTime time.Time  `gorm:"not null" json:"application_time"`
	ExpireTime      time.Time  `gorm:"index;not null" json:"expire_time"`
	OutApproverID   *uint      `json:"out_approver_id"`
	OutApproved     *bool      `json:"out_approved"`
	OutApprovalTime *time.Time `json:"out_approval_time"`
	OutRemark       string     `gorm:"type:text" json:"out_remark"`
	InApproverID    *uint      `json:"in_approver_id"`
	InApproved      *bool      `json:"in_approved"`
	InApprovalTime  *time.Time `json:"in_approval_time"`
	InRemark        string     `gorm:"type:text" json:"in_remark"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Member  *Member  `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	OutUnit *OrgUnit `gorm:"foreignKey:OutUnitID" json:"out_unit,omitempty"`
	InUnit  *OrgUnit `gorm:"foreignKey:InUnitID" json:"in_unit,omitempty"`
}

func (Transfer) TableName() string {
	return "transfers"
}

// IsTerminal reports whether the transfer reached a final state.
func (t *Transfer) IsTerminal() bool {
	return t.StatusCode > TransferCodeActiveMax
}

// TransferResponse DTO
type TransferResponse struct {
	ID              uint       `json:"id"`
	TransferNo      string     `json:"transfer_no"`
	MemberID        uint       `json:"member_id"`
	MemberName      string     `json:"member_name,omitempty"`
	OutUnitID       uint       `json:"out_unit_id"`
	OutUnitName     string     `json:"out_unit_name,omitempty"`
	InUnitID        uint       `json:"in_unit_id"`
	InUnitName      string     `json:"in_unit_name,omitempty"`
	Status          string     `json:"status"`
	ApplicationTime time.Time  `json:"application_time"`
	ExpireTime      time.Time  `json:"expire_time"`
	OutApproverID   *uint      `json:"out_approver_id"`
	OutApproved     *bool      `json:"out_approved"`
	OutApprovalTime *time.Time `json:"out_approval_time"`
	OutRemark       string     `json:"out_remark,omitempty"`
	InApproverID    *uint      `json:"in_approver_id"`
	InApproved      *bool      `json:"in_approved"`
	InApprovalTime  *time.Time `json:"in_approval_time"`
	InRemark        string     `json:"in_remark,omitempty"`
}

func (t *Transfer) ToResponse() *TransferResponse {
	resp := &TransferResponse{
		ID:              t.ID,
		TransferNo:      t.TransferNo,
		MemberID:        t.MemberID,
		OutUnitID:       t.OutUnitID,
		InUnitID:        t.InUnitID,
		Status:          t.Status,
		ApplicationTime: t.ApplicationTime,
		ExpireTime:      t.ExpireTime,
		OutApproverID:   t.OutApproverID,
		OutApproved:     t.OutApproved,
		OutApprovalTime: t.OutApprovalTime,
		OutRemark:       t.OutRemark,
		InApproverID:    t.InApproverID,
		InApproved:      t.InApproved,
		InApprovalTime:  t.InApprovalTime,
		InRemark:        t.InRemark,
	}

	if t.Member != nil {
		resp.MemberName = t.Member.FullName
	}
	if t.OutUnit != nil {
		resp.OutUnitName = t.OutUnit.Name
	}
	if t.InUnit != nil {
		resp.InUnitName = t.InUnit.Name
	}

	return resp
}

// TransferApprovalLog represents transfer_approval_logs table.
// Append-only: one row per approval decision, never updated.
type TransferApprovalLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TransferID   uint      `gorm:"index;not null" json:"transfer_id"`
	Stage        int       `gorm:"not null" json:"stage"`
	ApproverID   uint      `gorm:"not null" json:"approver_id"`
	ApproverName string    `gorm:"size:100" json:"approver_name"`
	Approved     bool      `gorm:"not null" json:"approved"`
	Remark       string    `gorm:"type:text" json:"remark"`
	SourceIP     string    `gorm:"size:50" json:"source_ip"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Transfer *Transfer `gorm:"foreignKey:TransferID" json:"-"`
}

func (TransferApprovalLog) TableName() string {
	return "transfer_approval_logs"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all service-owned tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&OrgUnit{},
		&Member{},
		&User{},
		&Transfer{},
		&TransferApprovalLog{},
	)
}
