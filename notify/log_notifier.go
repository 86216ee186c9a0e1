package notify

import (
	"context"

	"mesocratic/models"

	log "github.com/sirupsen/logrus"
)

// LogNotifier writes follow-up requests to the log instead of sending them.
// Used when no NATS server is configured.
type LogNotifier struct{}

// NewLogNotifier creates a new log notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// SendFollowUp logs the request and always succeeds
func (n *LogNotifier) SendFollowUp(ctx context.Context, request *models.FollowUpRequest) error {
	log.WithFields(log.Fields{
		"donorID":       request.DonorID,
		"donationID":    request.DonationID,
		"email":         request.Email,
		"attempt":       request.Attempt,
		"missingFields": request.MissingFields,
	}).Info("Follow-up request (not sent, no NATS configured)")
	return nil
}
