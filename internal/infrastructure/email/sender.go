package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"time"

	"BrandPulse/internal/config"
	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// Sender dispatches HTML summary emails over SMTP with STARTTLS.
type Sender struct {
	server   string
	port     int
	username string
	password string
	sender   string
	receiver string
	baseURL  string
	logger   *slog.Logger
}

var _ ports.ReportDispatcher = (*Sender)(nil)

// NewSender builds a dispatcher from configuration. Incomplete SMTP
// settings are reported once; Dispatch then logs and skips.
func NewSender(cfg config.EmailConfig, baseURL string, logger *slog.Logger) *Sender {
	s := &Sender{
		server:   cfg.Server,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		sender:   cfg.Sender,
		receiver: cfg.Receiver,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
	if !s.configured() && logger != nil {
		logger.Warn("email configuration incomplete, summaries will not be sent",
			"server", cfg.Server != "", "username", cfg.Username != "",
			"sender", cfg.Sender != "", "receiver", cfg.Receiver != "")
	}
	return s
}

func (s *Sender) configured() bool {
	return s.server != "" && s.username != "" && s.password != "" && s.sender != "" && s.receiver != ""
}

// Dispatch renders and sends the run summary email.
func (s *Sender) Dispatch(ctx context.Context, payload domain.ReportPayload) error {
	if !s.configured() {
		s.log().Error("email configuration is incomplete, skipping summary email", "run_id", payload.RunID)
		return nil
	}

	noNews := len(payload.BrandSpecific) == 0 && len(payload.BrandRelevant) == 0
	subject := fmt.Sprintf("AI Agent Daily Summary - Run %s", payload.RunID)
	if noNews {
		subject = "Daily Summary: No News for Today"
	}

	body := s.buildHTML(payload, noNews)
	if err := s.send(ctx, subject, body); err != nil {
		return fmt.Errorf("send summary email: %w", err)
	}

	s.log().Info("summary email sent", "run_id", payload.RunID, "recipient", s.receiver)
	return nil
}

func (s *Sender) buildHTML(p domain.ReportPayload, noNews bool) string {
	if noNews {
		name := p.BrandDisplayName
		if name == "" {
			name = "the brand"
		}
		return "<html><body style='font-family: Arial, sans-serif; line-height:1.4;'>" +
			"<h3>No brand-specific or brand-relevant news was found for " + html.EscapeString(name) + " today.</h3>" +
			"</body></html>"
	}

	var sb strings.Builder
	sb.WriteString("<html><body style='font-family: Arial, sans-serif; line-height:1.4;'>")
	sb.WriteString("<h3>Hi there</h3>")
	sb.WriteString("<h3><strong>Below are links that the AI thinks are on brand specific</strong></h3>")
	sb.WriteString("<ul>" + s.listLinks(p.BrandSpecific, p.RunID, true) + "</ul>")
	sb.WriteString("<h3><strong>Below are links that AI thinks are brand relevant but not brand specific</strong></h3>")
	sb.WriteString("<ul>" + s.listLinks(p.BrandRelevant, p.RunID, false) + "</ul>")
	sb.WriteString("<h3>Prompt Engineering Metadata</h3>")
	sb.WriteString("<p><strong>Brand System Prompt:</strong> " + htmlOr(p.BrandSystemPrompt) + "</p>")
	sb.WriteString("<p><strong>Market System Prompt:</strong> " + htmlOr(p.MarketSystemPrompt) + "</p>")
	sb.WriteString("<p><strong>User Prompt:</strong> " + htmlOr(truncate(p.UserPrompt, 300)) + "</p>")
	sb.WriteString("<p><strong>Search Terms Generated:</strong> " + htmlOr(strings.Join(p.SearchTerms, ", ")) + "</p>")
	sb.WriteString("<h3>Content Scraped Since last email</h3>")
	sb.WriteString("<p><strong>Number of Search Calls:</strong> " + strconv.Itoa(p.NumSearchCalls) + "</p>")
	sb.WriteString("<p><strong>Searches Run At:</strong> " + htmlOr(joinTimes(p.SearchTimes)) + "</p>")
	sb.WriteString("<p><strong>Summaries:</strong></p><ul>")
	if len(p.ContentSummaries) == 0 {
		sb.WriteString("<li>N/A</li>")
	}
	for _, summary := range p.ContentSummaries {
		sb.WriteString("<li>" + html.EscapeString(summary) + "</li>")
	}
	sb.WriteString("</ul></body></html>")
	return sb.String()
}

func (s *Sender) listLinks(links []domain.RankedLink, runID string, includeFeedback bool) string {
	if len(links) == 0 {
		return "<li>No links found.</li>"
	}

	var sb strings.Builder
	for _, link := range links {
		headline := link.Headline
		if headline == "" {
			headline = link.URL
		}
		sb.WriteString("<li><a href='" + html.EscapeString(link.URL) + "'>" + html.EscapeString(headline) + "</a>")
		if includeFeedback {
			feedbackURL := s.baseURL + "/feedback?run_id=" + url.QueryEscape(runID)
			sb.WriteString(" - <a href='" + html.EscapeString(feedbackURL+"&feedback=yes") + "'>Yes 👍, it was helpful!</a>")
			sb.WriteString(" | <a href='" + html.EscapeString(feedbackURL+"&feedback=no") + "'>No 👎, it was not helpful.</a>")
		}
		sb.WriteString("</li>")
	}
	return sb.String()
}

// send speaks SMTP with STARTTLS, mirroring the usual submission flow on
// port 587.
func (s *Sender) send(ctx context.Context, subject, htmlBody string) error {
	addr := net.JoinHostPort(s.server, strconv.Itoa(s.port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	client, err := smtp.NewClient(conn, s.server)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.server}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(s.receiver); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := strings.Join([]string{
		"From: " + s.sender,
		"To: " + s.receiver,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	}, "\r\n")

	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return client.Quit()
}

func (s *Sender) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func htmlOr(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return html.EscapeString(value)
}

func truncate(value string, length int) string {
	if len(value) <= length {
		return value
	}
	return value[:length] + "..."
}

func joinTimes(times []time.Time) string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.Format(time.RFC3339))
	}
	return strings.Join(out, ", ")
}
