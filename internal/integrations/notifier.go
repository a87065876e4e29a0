package integrations

import "fitclub_backend/pkg/utils"

// Notifier is the boundary interface for outreach messages. Real deployments
// plug in SMS/email providers; the default implementation only logs, so a
// missing provider never breaks an agent run.
type Notifier interface {
	SendSMS(toPhone, message string) error
	SendEmail(toEmail, subject, body string) error
}

// LogNotifier writes outreach messages to the application log instead of
// sending them.
type LogNotifier struct{}

// NewLogNotifier creates a Notifier that only logs.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendSMS(toPhone, message string) error {
	utils.LogInfo("SMS (log only)", map[string]interface{}{"to": toPhone, "message": message})
	return nil
}

func (n *LogNotifier) SendEmail(toEmail, subject, body string) error {
	utils.LogInfo("Email (log only)", map[string]interface{}{"to": toEmail, "subject": subject})
	return nil
}
