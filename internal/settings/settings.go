package settings

import (
	"errors"
	"fmt"
)

var ErrInvalid = errors.New("invalid settings")

type AlertLevel string

const (
	AlertLow    AlertLevel = "low"
	AlertMedium AlertLevel = "medium"
	AlertHigh   AlertLevel = "high"
)

// Threshold bounds, in percent
const (
	MinDetectionThreshold  = 50
	MaxDetectionThreshold  = 100
	MinConfidenceThreshold = 60
	MaxConfidenceThreshold = 95
)

type Settings struct {
	AlertLevel          AlertLevel `json:"alert_level"`
	DetectionThreshold  int        `json:"detection_threshold"`
	ConfidenceThreshold int        `json:"confidence_threshold"`
	EmailNotifications  bool       `json:"email_notifications"`
	SMSNotifications    bool       `json:"sms_notifications"`
	PushNotifications   bool       `json:"push_notifications"`
	AutoRecord          bool       `json:"auto_record"`
	SoundAlerts         bool       `json:"sound_alerts"`
}

func Defaults() Settings {
	return Settings{
		AlertLevel:          AlertMedium,
		DetectionThreshold:  75,
		ConfidenceThreshold: 80,
		EmailNotifications:  true,
		SMSNotifications:    false,
		PushNotifications:   true,
		AutoRecord:          true,
		SoundAlerts:         true,
	}
}

func (s Settings) Validate() error {
	switch s.AlertLevel {
	case AlertLow, AlertMedium, AlertHigh:
	default:
		return fmt.Errorf("%w: alert_level %q", ErrInvalid, s.AlertLevel)
	}
	if s.DetectionThreshold < MinDetectionThreshold || s.DetectionThreshold > MaxDetectionThreshold {
		return fmt.Errorf("%w: detection_threshold %d outside %d..%d",
			ErrInvalid, s.DetectionThreshold, MinDetectionThreshold, MaxDetectionThreshold)
	}
	if s.ConfidenceThreshold < MinConfidenceThreshold || s.ConfidenceThreshold > MaxConfidenceThreshold {
		return fmt.Errorf("%w: confidence_threshold %d outside %d..%d",
			ErrInvalid, s.ConfidenceThreshold, MinConfidenceThreshold, MaxConfidenceThreshold)
	}
	return nil
}
