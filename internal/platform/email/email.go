package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"hrledger/internal/domain/leave"
	"hrledger/internal/platform/config"
	"hrledger/internal/platform/jobs"
)

var ErrNotQueued = errors.New("notification not queued")

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, to, subject, body string) error {
	return nil
}

type smtpMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailer(cfg config.Config) Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{
		from:   cfg.EmailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (s *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(newMessage(s.from, to, subject, body))
}

func newMessage(from, to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}

// Enqueuer hands work to a background worker.
type Enqueuer interface {
	Enqueue(jobType string, run func(context.Context) error) bool
}

// Notifier mails the employee once their leave request is decided. With Jobs
// set the mail goes out from a worker instead of the request goroutine.
type Notifier struct {
	Mailer Mailer
	Jobs   Enqueuer
}

func NewNotifier(mailer Mailer) *Notifier {
	return &Notifier{Mailer: mailer}
}

func (n *Notifier) LeaveDecided(ctx context.Context, req leave.Request) error {
	summary, ok := req.Employee.Expanded()
	if !ok || summary.Email == "" {
		return nil
	}
	subject, body := decisionMessage(summary.Name, req)
	if n.Jobs == nil {
		return n.Mailer.Send(ctx, summary.Email, subject, body)
	}
	if !n.Jobs.Enqueue(jobs.JobLeaveDecisionEmail, func(ctx context.Context) error {
		return n.Mailer.Send(ctx, summary.Email, subject, body)
	}) {
		return ErrNotQueued
	}
	return nil
}

func decisionMessage(name string, req leave.Request) (string, string) {
	period := fmt.Sprintf("%s to %s", req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
	subject := fmt.Sprintf("Leave request %s", req.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "Your %s leave for %s (%d working days) was %s.\n", strings.ReplaceAll(string(req.LeaveType), "_", " "), period, req.Days, req.Status)
	if req.RejectionReason != nil && *req.RejectionReason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", *req.RejectionReason)
	}
	return subject, b.String()
}
