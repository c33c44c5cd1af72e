package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/adapters/persistence/repositories"
	"coop-memberhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transferFixture sets up two sibling branches with a member in the first
type transferFixture struct {
	*fixture
	root    *models.OrgUnit
	unitA   *models.OrgUnit
	unitB   *models.OrgUnit
	member  *models.Member
	outOff  domain.Actor
	inOff   domain.Actor
	rootOff domain.Actor
}

func newTransferFixture(t *testing.T) *transferFixture {
	f := newFixture(t)

	root := f.mustCreateUnit(t, "Region", nil)
	unitA := f.mustCreateUnit(t, "Branch A", ptr(root.ID))
	unitB := f.mustCreateUnit(t, "Branch B", ptr(root.ID))
	member := f.mustSeedMember(t, "M0001", "Alice Wong", unitA.ID)

	return &transferFixture{
		fixture: f,
		root:    root,
		unitA:   unitA,
		unitB:   unitB,
		member:  member,
		outOff:  officerActor(10, unitA.ID, "out-officer"),
		inOff:   officerActor(11, unitB.ID, "in-officer"),
		rootOff: officerActor(12, root.ID, "region-officer"),
	}
}

func (tf *transferFixture) mustCreateTransfer(t *testing.T) *models.Transfer {
	t.Helper()

	transfer, err := tf.transferSvc.Create(context.Background(), memberActor(tf.member), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: tf.unitB.ID,
	})
	require.NoError(t, err)
	return transfer
}

// recordingNotifier returns a notification service wired to a local webhook
// that forwards every delivered event name to the channel
func recordingNotifier(t *testing.T) (*NotificationService, chan string) {
	t.Helper()

	events := make(chan string, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Event string `json:"event"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		events <- payload.Event
	}))
	t.Cleanup(srv.Close)

	return &NotificationService{
		webhookURL: srv.URL,
		enabled:    true,
		client:     srv.Client(),
	}, events
}

// waitEvent blocks until the next webhook delivery arrives
func waitEvent(t *testing.T, events chan string) string {
	t.Helper()

	select {
	case event := <-events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no webhook delivery arrived")
		return ""
	}
}

func TestTransferFullApproval(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)
	assert.Equal(t, models.TransferStatusApplying, transfer.Status)
	assert.Equal(t, tf.unitA.ID, transfer.OutUnitID)
	assert.NotEmpty(t, transfer.TransferNo)
	assert.WithinDuration(t, transfer.ApplicationTime.AddDate(0, 3, 0), transfer.ExpireTime, time.Minute)

	// Out stage
	afterOut, err := tf.transferSvc.OutApprove(ctx, tf.outOff, transfer.ID, &ApproveInput{Approved: true, Remark: "ok to leave"})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusInApproving, afterOut.Status)

	// In stage
	afterIn, err := tf.transferSvc.InApprove(ctx, tf.inOff, transfer.ID, &ApproveInput{Approved: true, Remark: "welcome"})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusApproved, afterIn.Status)

	// Member moved
	moved, err := tf.memberRepo.GetByID(ctx, tf.member.ID)
	require.NoError(t, err)
	assert.Equal(t, tf.unitB.ID, moved.HomeUnitID)

	// Direct counts recomputed for both endpoints
	unitA, err := tf.orgRepo.GetByID(ctx, tf.unitA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unitA.MemberCount)

	unitB, err := tf.orgRepo.GetByID(ctx, tf.unitB.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unitB.MemberCount)

	// Exactly one log entry per stage
	logs, err := tf.transferSvc.GetLogs(ctx, adminActor(), transfer.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.StageOut, logs[0].Stage)
	assert.Equal(t, "out-officer", logs[0].ApproverName)
	assert.Equal(t, models.StageIn, logs[1].Stage)
	assert.True(t, logs[1].Approved)
}

func TestTransferOutRejectionEndsWorkflow(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)

	rejected, err := tf.transferSvc.OutApprove(ctx, tf.outOff, transfer.ID, &ApproveInput{Approved: false, Remark: "ineligible"})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusRejected, rejected.Status)

	// The in stage can never run afterwards
	_, err = tf.transferSvc.InApprove(ctx, tf.inOff, transfer.ID, &ApproveInput{Approved: true})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// Member stayed put
	member, err := tf.memberRepo.GetByID(ctx, tf.member.ID)
	require.NoError(t, err)
	assert.Equal(t, tf.unitA.ID, member.HomeUnitID)

	logs, err := tf.transferSvc.GetLogs(ctx, adminActor(), transfer.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Approved)
	assert.Equal(t, "ineligible", logs[0].Remark)
}

func TestTransferSingleActiveRule(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	first := tf.mustCreateTransfer(t)

	// Second application while the first is pending; the error names the
	// application that blocks it
	_, err := tf.transferSvc.Create(ctx, memberActor(tf.member), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: tf.unitB.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Contains(t, err.Error(), first.TransferNo)

	// Another member is unaffected
	other := tf.mustSeedMember(t, "M0002", "Bob Lee", tf.unitA.ID)
	_, err = tf.transferSvc.Create(ctx, memberActor(other), &CreateTransferInput{
		MemberID: other.ID,
		InUnitID: tf.unitB.ID,
	})
	assert.NoError(t, err)
}

func TestTransferReapplyAfterTerminal(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)
	_, err := tf.transferSvc.OutApprove(ctx, tf.outOff, transfer.ID, &ApproveInput{Approved: false, Remark: "no"})
	require.NoError(t, err)

	// Terminal state frees the member to apply again
	_, err = tf.transferSvc.Create(ctx, memberActor(tf.member), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: tf.unitB.ID,
	})
	assert.NoError(t, err)
}

func TestTransferDoubleOutApprove(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)

	_, err := tf.transferSvc.OutApprove(ctx, tf.outOff, transfer.ID, &ApproveInput{Approved: true})
	require.NoError(t, err)

	// Replaying the same decision is a conflict, not a second transition
	_, err = tf.transferSvc.OutApprove(ctx, tf.outOff, transfer.ID, &ApproveInput{Approved: true})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// Still exactly one out-stage log entry
	logs, err := tf.transferSvc.GetLogs(ctx, adminActor(), transfer.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestTransferApprovalUnitMatching(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)

	// Ancestor-unit officer holds no delegation
	_, err := tf.transferSvc.OutApprove(ctx, tf.rootOff, transfer.ID, &ApproveInput{Approved: true})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// In-unit officer cannot act on the out stage
	_, err = tf.transferSvc.OutApprove(ctx, tf.inOff, transfer.ID, &ApproveInput{Approved: true})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// Plain member role cannot approve at all
	_, err = tf.transferSvc.OutApprove(ctx, memberActor(tf.member), transfer.ID, &ApproveInput{Approved: true})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestTransferCreateValidations(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	// Target equals home unit
	_, err := tf.transferSvc.Create(ctx, memberActor(tf.member), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: tf.unitA.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	// Unknown member
	_, err = tf.transferSvc.Create(ctx, adminActor(), &CreateTransferInput{MemberID: 9999, InUnitID: tf.unitB.ID})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Unknown target unit
	_, err = tf.transferSvc.Create(ctx, memberActor(tf.member), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: 9999,
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Disabled target unit
	status := models.UnitStatusDisabled
	_, err = tf.orgSvc.UpdateUnit(ctx, tf.unitB.ID, &UpdateUnitInput{Status: &status})
	require.NoError(t, err)
	_, err = tf.transferSvc.Create(ctx, memberActor(tf.member), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: tf.unitB.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// A stranger cannot apply on the member's behalf
	stranger := tf.mustSeedMember(t, "M0099", "Eve Intruder", tf.unitA.ID)
	active := models.UnitStatusActive
	_, err = tf.orgSvc.UpdateUnit(ctx, tf.unitB.ID, &UpdateUnitInput{Status: &active})
	require.NoError(t, err)
	_, err = tf.transferSvc.Create(ctx, memberActor(stranger), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: tf.unitB.ID,
	})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestTransferCancel(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)

	// Someone else cannot cancel
	other := tf.mustSeedMember(t, "M0002", "Bob Lee", tf.unitA.ID)
	err := tf.transferSvc.Cancel(ctx, memberActor(other), transfer.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// The applicant can, and the row is gone rather than marked
	err = tf.transferSvc.Cancel(ctx, memberActor(tf.member), transfer.ID)
	require.NoError(t, err)

	_, err = tf.transferSvc.GetByID(ctx, adminActor(), transfer.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Cancellation frees the member immediately
	tf.mustCreateTransfer(t)
}

func TestTransferCancelPastOutStage(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)
	_, err := tf.transferSvc.OutApprove(ctx, tf.outOff, transfer.ID, &ApproveInput{Approved: true})
	require.NoError(t, err)

	err = tf.transferSvc.Cancel(ctx, memberActor(tf.member), transfer.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestSweepExpired(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	expired := tf.mustCreateTransfer(t)

	fresh := tf.mustSeedMember(t, "M0002", "Bob Lee", tf.unitA.ID)
	pending, err := tf.transferSvc.Create(ctx, memberActor(fresh), &CreateTransferInput{
		MemberID: fresh.ID,
		InUnitID: tf.unitB.ID,
	})
	require.NoError(t, err)

	// Age only the first application past its grace window
	past := time.Now().AddDate(0, -1, 0)
	require.NoError(t, tf.db.Exec("UPDATE transfers SET expire_time = ? WHERE id = ?", past, expired.ID).Error)

	swept, err := tf.transferSvc.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	// Expired one is rejected with a system-authored log entry
	reloaded, err := tf.transferSvc.GetByID(ctx, adminActor(), expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusRejected, reloaded.Status)

	logs, err := tf.transferSvc.GetLogs(ctx, adminActor(), expired.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint(models.SystemApproverID), logs[0].ApproverID)
	assert.Equal(t, models.SystemApproverName, logs[0].ApproverName)
	assert.False(t, logs[0].Approved)

	// The fresh one is untouched
	untouched, err := tf.transferSvc.GetByID(ctx, adminActor(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusApplying, untouched.Status)

	// Sweeping again finds nothing
	swept, err = tf.transferSvc.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestSweepSkipsTransferDecidedAfterScan(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	notify, events := recordingNotifier(t)
	transferRepo := repositories.NewTransferRepository(tf.db)
	svc := NewTransferService(
		tf.db, transferRepo, repositories.NewApprovalLogRepository(tf.db),
		tf.orgRepo, tf.memberRepo, tf.scopeSvc, notify, tf.perms, 3,
	)

	transfer, err := svc.Create(ctx, memberActor(tf.member), &CreateTransferInput{
		MemberID: tf.member.ID,
		InUnitID: tf.unitB.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "transfer.created", waitEvent(t, events))

	past := time.Now().AddDate(0, -1, 0)
	require.NoError(t, tf.db.Exec("UPDATE transfers SET expire_time = ? WHERE id = ?", past, transfer.ID).Error)

	// Scan picks up the row, then an approver decides it before the sweep
	// gets there
	scanned, err := transferRepo.ListExpired(ctx, time.Now(), 500)
	require.NoError(t, err)
	require.Len(t, scanned, 1)

	_, err = svc.OutApprove(ctx, tf.outOff, transfer.ID, &ApproveInput{Approved: false, Remark: "closing out"})
	require.NoError(t, err)
	assert.Equal(t, "transfer.rejected", waitEvent(t, events))

	// The stale scanned row is a no-op: no status change, no log, no event
	ok, err := svc.sweepOne(ctx, scanned[0])
	require.NoError(t, err)
	assert.False(t, ok)

	select {
	case event := <-events:
		t.Fatalf("unexpected webhook delivery %q", event)
	case <-time.After(300 * time.Millisecond):
	}

	logs, err := svc.GetLogs(ctx, adminActor(), transfer.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "out-officer", logs[0].ApproverName)

	// A genuinely stale row still sweeps and notifies exactly once
	other := tf.mustSeedMember(t, "M0002", "Bob Lee", tf.unitA.ID)
	stale, err := svc.Create(ctx, memberActor(other), &CreateTransferInput{
		MemberID: other.ID,
		InUnitID: tf.unitB.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "transfer.created", waitEvent(t, events))
	require.NoError(t, tf.db.Exec("UPDATE transfers SET expire_time = ? WHERE id = ?", past, stale.ID).Error)

	swept, err := svc.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, "transfer.expired", waitEvent(t, events))
}

func TestTransferListUnitlessOfficer(t *testing.T) {
	tf := newTransferFixture(t)

	// An approver account with no unit assignment administers nothing
	_, err := tf.transferSvc.List(context.Background(), officerActor(99, 0, "unassigned"), &ListInput{})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestTransferAccessPredicate(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	transfer := tf.mustCreateTransfer(t)

	// Applicant sees it
	_, err := tf.transferSvc.GetByID(ctx, memberActor(tf.member), transfer.ID)
	assert.NoError(t, err)

	// Out-unit officer and its ancestors see it
	_, err = tf.transferSvc.GetByID(ctx, tf.outOff, transfer.ID)
	assert.NoError(t, err)
	_, err = tf.transferSvc.GetByID(ctx, tf.rootOff, transfer.ID)
	assert.NoError(t, err)

	// Exact in-unit officer sees it
	_, err = tf.transferSvc.GetByID(ctx, tf.inOff, transfer.ID)
	assert.NoError(t, err)

	// An unrelated member does not
	other := tf.mustSeedMember(t, "M0002", "Bob Lee", tf.unitA.ID)
	_, err = tf.transferSvc.GetByID(ctx, memberActor(other), transfer.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestTransferListScoping(t *testing.T) {
	tf := newTransferFixture(t)
	ctx := context.Background()

	tf.mustCreateTransfer(t)

	otherRoot := tf.mustCreateUnit(t, "Other Coop", nil)
	otherUnit := tf.mustCreateUnit(t, "Other Branch", ptr(otherRoot.ID))
	outsider := tf.mustSeedMember(t, "M0050", "Carol Tan", otherUnit.ID)
	_, err := tf.transferSvc.Create(ctx, memberActor(outsider), &CreateTransferInput{
		MemberID: outsider.ID,
		InUnitID: tf.unitB.ID,
	})
	require.NoError(t, err)

	// Admin sees both
	out, err := tf.transferSvc.List(ctx, adminActor(), &ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)

	// Branch A officer sees transfers touching their subtree only
	out, err = tf.transferSvc.List(ctx, tf.outOff, &ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)

	// Region officer scope covers both branches; the outsider transfer
	// still shows because its in unit is Branch B
	out, err = tf.transferSvc.List(ctx, tf.rootOff, &ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)

	// A unit outside the officer scope is rejected
	_, err = tf.transferSvc.List(ctx, tf.outOff, &ListInput{UnitID: otherUnit.ID})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	// Member sees their own only
	out, err = tf.transferSvc.ListMine(ctx, memberActor(tf.member), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
}
