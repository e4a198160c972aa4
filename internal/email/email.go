package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/config"
)

// Sender delivers a plain-text message. Delivery failures are logged
// and swallowed by the helpers below; they never abort the operation
// that triggered the send.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct {
	host string
	port string
	user string
	pass string
	from string
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	return smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, []byte(msg))
}

type disabledSender struct {
	logger internal.Logger
}

func (s *disabledSender) Send(to, subject, body string) error {
	s.logger.Warnf("email not configured, skipping send to %s: %s", to, subject)
	return nil
}

// NewSender returns an SMTP sender, or a no-op sender that logs a
// warning per message when SMTP settings are incomplete.
func NewSender(cfg *config.Config, logger internal.Logger) Sender {
	if !cfg.EmailConfigured() {
		return &disabledSender{logger: logger}
	}
	return &SMTPSender{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
	}
}

const signature = "\nBest regards,\nHabit AI Team"

// SendWelcome delivers the post-signup greeting. Called from a
// goroutine; a failed send only produces a warning.
func SendWelcome(sender Sender, logger internal.Logger, to, name string) {
	if name == "" {
		name = "there"
	}
	body := strings.Join([]string{
		fmt.Sprintf("Hi %s,", name),
		"",
		"Welcome to Habit AI. Your account has been created successfully.",
		"You can now set goals, track daily progress, and receive personalized guidance.",
		"",
		"To get started:",
		"1. Create your first habit with a clear goal and schedule.",
		"2. Log your daily progress.",
		"3. Open AI Coach for daily suggestions.",
		"",
		"If you did not create this account, please reply to this email.",
		signature,
	}, "\n")
	if err := sender.Send(to, "Welcome to Habit AI", body); err != nil {
		logger.Warnf("Welcome email failed: %v", err)
	}
}

// SendPasswordResetCode delivers the verification code.
func SendPasswordResetCode(sender Sender, logger internal.Logger, to, code string) {
	body := strings.Join([]string{
		"We received a request to reset your Habit AI password.",
		"",
		fmt.Sprintf("Your verification code is: %s", code),
		"",
		"This code expires in 15 minutes.",
		"If you did not request a password reset, you can safely ignore this email.",
		signature,
	}, "\n")
	if err := sender.Send(to, "Your Habit AI password reset code", body); err != nil {
		logger.Warnf("Password reset email failed: %v", err)
	}
}

// SendPasswordResetConfirmation confirms a completed reset.
func SendPasswordResetConfirmation(sender Sender, logger internal.Logger, to string) {
	body := strings.Join([]string{
		"This is a confirmation that your Habit AI password was changed successfully.",
		"",
		"If you did not perform this change, please reset your password immediately and secure your account.",
		signature,
	}, "\n")
	if err := sender.Send(to, "Your Habit AI password was reset", body); err != nil {
		logger.Warnf("Password reset confirmation email failed: %v", err)
	}
}
