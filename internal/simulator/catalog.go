package simulator

import "github.com/technosupport/arena-watch/internal/events"

// Template is a fixed (title, message) pair
type Template struct {
	Title   string
	Message string
}

var notificationKinds = []events.Kind{events.KindAlert, events.KindSuccess, events.KindInfo}

var notificationTemplates = map[events.Kind][]Template{
	events.KindAlert: {
		{Title: "Foul Play Detected", Message: "Camera 3 detected rule violation in Main Arena"},
		{Title: "High Risk Level", Message: "Risk level elevated to HIGH in South View"},
		{Title: "Multiple Violations", Message: "Multiple participants engaging single bull detected"},
	},
	events.KindSuccess: {
		{Title: "All Clear", Message: "All cameras showing normal activity"},
		{Title: "System Check Complete", Message: "All systems functioning normally"},
		{Title: "Safe Event", Message: "No violations detected in the last hour"},
	},
	events.KindInfo: {
		{Title: "New Camera Online", Message: "Camera 5 is now active and monitoring"},
		{Title: "Analysis Complete", Message: "Uploaded media analysis finished"},
		{Title: "Daily Report Ready", Message: "Event summary report is available"},
	},
}

const (
	incidentViolationMessage = "Foul play detected - Rule violation observed"
	incidentSafeMessage      = "Normal activity detected"
)

var foulPlayDetails = []string{
	"Excessive force detected on bull",
	"Multiple participants engaging single bull",
	"Unauthorized tools detected in frame",
	"Tail twisting behavior identified",
	"Restricted zone violation observed",
}

var safeDetails = []string{
	"Normal activity within regulations",
	"Fair play standards maintained",
	"No rule violations detected",
	"Participant behavior within guidelines",
	"Safe handling practices observed",
}

// NotificationTemplates exposes the catalog for a kind (read-only use)
func NotificationTemplates(kind events.Kind) []Template {
	return notificationTemplates[kind]
}

// AnalysisDetails exposes the detail strings for an outcome
func AnalysisDetails(outcome events.Kind) []string {
	if outcome == events.KindFoulPlay {
		return foulPlayDetails
	}
	return safeDetails
}
