package delivery

import (
	"context"

	"photobot/whatsapp"

	log "github.com/sirupsen/logrus"
)

// ProfileFetcher reads the business profile of the sending account
type ProfileFetcher interface {
	BusinessProfile(ctx context.Context) (*whatsapp.BusinessProfile, error)
}

// CheckConnection verifies the credentials by reading the business profile.
// It never sends a message; receiver is only logged.
func CheckConnection(ctx context.Context, client ProfileFetcher, receiver string) (*whatsapp.BusinessProfile, error) {
	logger := log.WithField("receiver", NormalizeReceiver(receiver))
	logger.Info("Testing WhatsApp API connection...")

	profile, err := client.BusinessProfile(ctx)
	if err != nil {
		logger.WithError(err).Error("WhatsApp API connection test failed")
		return nil, err
	}

	logger.WithFields(log.Fields{
		"about":    profile.About,
		"vertical": profile.Vertical,
		"email":    profile.Email,
	}).Info("WhatsApp connection successful!")
	return profile, nil
}
