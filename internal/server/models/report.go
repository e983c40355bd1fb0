package models

import "time"

// ContentType is the kind of content a report or moderation entry targets.
type ContentType string

const (
	ContentThread ContentType = "thread"
	ContentPost   ContentType = "post"
	ContentUser   ContentType = "user"
)

// ReportStatus filters report listings.
type ReportStatus string

const (
	ReportsOpen    ReportStatus = "open"
	ReportsHandled ReportStatus = "handled"
	ReportsAll     ReportStatus = "all"
)

func (s ReportStatus) Valid() bool {
	return s == ReportsOpen || s == ReportsHandled || s == ReportsAll
}

// Reporter is the public face of the identity that filed a report.
type Reporter struct {
	Name     string
	Username *string
}

// Report flags a piece of content. It is open while HandledBy is nil.
// Reporter is only filled by listings.
type Report struct {
	ID          string
	ReporterID  string
	ContentType ContentType
	ContentID   string
	Reason      string
	CreatedAt   time.Time
	HandledBy   *string
	Reporter    *Reporter
}

func (r *Report) Handled() bool {
	return r.HandledBy != nil
}
