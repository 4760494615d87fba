// Package notify sends the match report to an external recipient.
package notify

// Service delivers a rendered report. Implementations must be safe to
// call once per run; a failed send is reported, never fatal to the run.
type Service interface {
	Send(subject, htmlBody string) error
}
