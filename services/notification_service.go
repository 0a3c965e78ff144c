package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"thesis-supervision-api/config"
	"thesis-supervision-api/models"
	"thesis-supervision-api/utils"
)

// Notification event templates. Delivery is fire-and-forget: a failure is
// logged and dropped, it never reaches the workflow caller.
const (
	EventNewSubmission = "submission_submitted"
	EventNeedsRevision = "submission_needs_revision"
	EventApproved      = "submission_approved"
	EventAdvanced      = "submission_advanced"
)

const mailMaxAttempts = 2

type notificationTemplate struct {
	Title   string
	Message string // placeholders: {student}, {title}, {version}, {chapter}
	Type    string
}

var notificationTemplates = map[string]notificationTemplate{
	EventNewSubmission: {
		Title:   "Draft baru menunggu review",
		Message: "{student} mengunggah draft \"{title}\" (versi {version}). Mohon direview.",
		Type:    "info",
	},
	EventNeedsRevision: {
		Title:   "Draft perlu revisi",
		Message: "Draft \"{title}\" (versi {version}) perlu revisi. Silakan baca catatan pembimbing.",
		Type:    "warning",
	},
	EventApproved: {
		Title:   "Draft disetujui",
		Message: "Draft \"{title}\" (versi {version}) telah disetujui pembimbing.",
		Type:    "success",
	},
	EventAdvanced: {
		Title:   "Lanjut ke bab berikutnya",
		Message: "Draft \"{title}\" (versi {version}) disetujui. Silakan lanjut ke {chapter}.",
		Type:    "success",
	},
}

// DecisionToEvent maps a review decision to its notification event key.
func DecisionToEvent(decision string) string {
	switch decision {
	case models.StatusNeedsRevision:
		return EventNeedsRevision
	case models.StatusApproved:
		return EventApproved
	case models.StatusAdvanced:
		return EventAdvanced
	}
	return ""
}

// NotificationService persists in-app notifications and mirrors them to
// email. It is only ever invoked by the workflow engine's side effects.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

type notifyContext struct {
	StudentName string
	Title       string
	Version     int
	Chapter     string
}

func applyTemplatePlaceholders(text string, data notifyContext) string {
	replacer := strings.NewReplacer(
		"{student}", data.StudentName,
		"{title}", data.Title,
		"{version}", fmt.Sprintf("%d", data.Version),
		"{chapter}", data.Chapter,
	)
	return replacer.Replace(text)
}

// Notify writes one notification row per recipient and sends the email
// copies in the background. Errors are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, event string, recipientIDs []int, submission *models.Submission, data notifyContext) {
	tmpl, ok := notificationTemplates[event]
	if !ok {
		log.Printf("notification: unknown event %q, dropped", event)
		return
	}

	title := applyTemplatePlaceholders(tmpl.Title, data)
	message := applyTemplatePlaceholders(tmpl.Message, data)

	subID := uint(submission.SubmissionID)
	now := time.Now()
	for _, recipientID := range recipientIDs {
		notification := models.Notification{
			UserID:              uint(recipientID),
			Title:               title,
			Message:             message,
			Type:                tmpl.Type,
			RelatedSubmissionID: &subID,
			CreateAt:            now,
		}
		if err := s.db.Create(&notification).Error; err != nil {
			log.Printf("notification: failed to store for user %d: %v", recipientID, err)
		}
	}

	var emails []string
	if err := s.db.WithContext(persistentContext(ctx)).Model(&models.User{}).
		Where("user_id IN ? AND delete_at IS NULL", recipientIDs).
		Pluck("email", &emails).Error; err != nil {
		log.Printf("notification: failed to resolve recipient emails: %v", err)
		return
	}
	emails = deliverableEmails(emails)
	if len(emails) == 0 {
		return
	}

	go s.sendMailCopies(emails, title, message)
}

// deliverableEmails drops addresses the SMTP relay would reject; imported
// accounts sometimes carry placeholder values in the email column.
func deliverableEmails(emails []string) []string {
	out := emails[:0]
	for _, email := range emails {
		if utils.ValidateEmail(email) {
			out = append(out, email)
		}
	}
	return out
}

func (s *NotificationService) sendMailCopies(emails []string, subject, message string) {
	html := buildNotificationEmailHTML(subject, message)
	for attempt := 1; attempt <= mailMaxAttempts; attempt++ {
		if err := config.SendMail(emails, subject, html); err != nil {
			if attempt == mailMaxAttempts {
				log.Printf("notification: giving up email %q after %d attempts: %v", subject, attempt, err)
				return
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}
		return
	}
}

func buildNotificationEmailHTML(subject, message string) string {
	return fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif">
<h3>%s</h3>
<p>%s</p>
<p style="color:#888;font-size:12px">Email ini dikirim otomatis oleh Sistem Bimbingan Skripsi.</p>
</body></html>`, subject, message)
}
