package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"coop-memberhub/internal/adapters/persistence/models"

	"github.com/google/uuid"
)

// NotificationService posts transfer lifecycle events to a configured
// webhook. Fire-and-forget: a delivery failure is logged and never rolls
// back the state transition that produced it.
type NotificationService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService() *NotificationService {
	url := os.Getenv("NOTIFY_WEBHOOK_URL")
	return &NotificationService{
		webhookURL: url,
		enabled:    url != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// transferEvent is the webhook payload
type transferEvent struct {
	EventID    string    `json:"event_id"`
	Event      string    `json:"event"`
	TransferNo string    `json:"transfer_no"`
	MemberID   uint      `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	OutUnitID  uint      `json:"out_unit_id"`
	InUnitID   uint      `json:"in_unit_id"`
	Status     string    `json:"status"`
	Remark     string    `json:"remark,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *NotificationService) send(event string, t *models.Transfer, memberName, remark string) {
	if !s.enabled {
		return
	}

	payload := transferEvent{
		EventID:    uuid.New().String(),
		Event:      event,
		TransferNo: t.TransferNo,
		MemberID:   t.MemberID,
		MemberName: memberName,
		OutUnitID:  t.OutUnitID,
		InUnitID:   t.InUnitID,
		Status:     t.Status,
		Remark:     remark,
		OccurredAt: time.Now(),
	}

	go func() {
		body, err := json.Marshal(payload)
		if err != nil {
			log.Printf("⚠️ Notification marshal failed: %v", err)
			return
		}

		resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("⚠️ Notification %s for %s failed: %v", event, t.TransferNo, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Printf("⚠️ Notification %s for %s got HTTP %d", event, t.TransferNo, resp.StatusCode)
		}
	}()
}

// NotifyTransferCreated sends notification for a newly filed transfer
func (s *NotificationService) NotifyTransferCreated(t *models.Transfer, memberName string) {
	s.send("transfer.created", t, memberName, "")
}

// NotifyOutApproved sends notification when the out stage approves
func (s *NotificationService) NotifyOutApproved(t *models.Transfer) {
	s.send("transfer.out_approved", t, "", t.OutRemark)
}

// NotifyApproved sends notification for a finalized transfer
func (s *NotificationService) NotifyApproved(t *models.Transfer) {
	s.send("transfer.approved", t, "", t.InRemark)
}

// NotifyRejected sends notification for a rejected transfer
func (s *NotificationService) NotifyRejected(t *models.Transfer, reason string) {
	s.send("transfer.rejected", t, "", reason)
}

// NotifyExpired sends notification for a sweep-rejected transfer
func (s *NotificationService) NotifyExpired(t *models.Transfer) {
	s.send("transfer.expired", t, "", "transfer expired")
}
