package simulator

// Feed is one camera tile on the dashboard
type Feed struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Location string `json:"location"`
	Active   bool   `json:"active"`
}

var defaultFeeds = []Feed{
	{ID: 1, Label: "Camera 1", Location: "Main Arena - North View", Active: true},
	{ID: 2, Label: "Camera 2", Location: "Main Arena - South View", Active: true},
	{ID: 3, Label: "Camera 3", Location: "Entry Gate - East", Active: true},
	{ID: 4, Label: "Camera 4", Location: "Participant Zone", Active: true},
	{ID: 5, Label: "Camera 5", Location: "Bull Holding Area", Active: false},
	{ID: 6, Label: "Camera 6", Location: "Emergency Exit - West", Active: true},
}

// DefaultFeeds returns a fresh copy of the camera catalog
func DefaultFeeds() []Feed {
	out := make([]Feed, len(defaultFeeds))
	copy(out, defaultFeeds)
	return out
}
