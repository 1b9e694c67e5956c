package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
	"troop-backend/internal/metrics"
)

// Raw HTML in the welcome message is dropped by the renderer.
var welcomeRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

type emailQueueService struct {
	deliverer EmailDeliverer
	settings  SettingsService
	now       func() time.Time
}

func NewEmailQueueService(deliverer EmailDeliverer, settings SettingsService) EmailQueueService {
	return &emailQueueService{deliverer: deliverer, settings: settings, now: time.Now}
}

func (s *emailQueueService) loadSettings(ctx context.Context) *domain.TroopSettings {
	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		logger.Warn("Falling back to default troop settings for email", "error", err)
		return domain.DefaultTroopSettings()
	}
	return st
}

func (s *emailQueueService) QueueApprovalEmails(ctx context.Context, req *domain.RegistrationRequest) (*domain.EmailQueueResult, error) {
	return s.deliver(ctx, BuildApprovalRows(req, s.loadSettings(ctx)))
}

func (s *emailQueueService) QueueRejectionEmails(ctx context.Context, req *domain.RegistrationRequest, reason string) (*domain.EmailQueueResult, error) {
	return s.deliver(ctx, BuildRejectionRows(req, reason, s.loadSettings(ctx)))
}

func (s *emailQueueService) QueuePendingDigest(ctx context.Context, pending []domain.RegistrationRequest, reviewers []domain.UserProfile) (*domain.EmailQueueResult, error) {
	return s.deliver(ctx, BuildDigestRows(pending, reviewers, s.loadSettings(ctx), s.now()))
}

func (s *emailQueueService) deliver(ctx context.Context, rows []domain.EmailRow) (*domain.EmailQueueResult, error) {
	name := s.deliverer.Name()
	result := &domain.EmailQueueResult{Delivery: name, Rows: len(rows), QueuedAt: s.now().UTC()}
	if len(rows) == 0 {
		return result, nil
	}

	logger.EnterMethod("emailQueueService.deliver", "delivery", name, "rows", len(rows))
	if err := s.deliverer.Deliver(ctx, rows); err != nil {
		metrics.EmailDeliveryErrors.WithLabelValues(name).Inc()
		logger.ExitMethodWithError("emailQueueService.deliver", err, "delivery", name)
		return nil, fmt.Errorf("queue %d email(s) via %s: %w", len(rows), name, err)
	}
	for _, r := range rows {
		metrics.EmailRowsQueued.WithLabelValues(name, string(r.Type)).Inc()
	}
	logger.ExitMethod("emailQueueService.deliver", "delivery", name, "rows", len(rows))
	return result, nil
}

// BuildApprovalRows returns one row for the scout and one per included guardian
// with an email address.
func BuildApprovalRows(req *domain.RegistrationRequest, st *domain.TroopSettings) []domain.EmailRow {
	troop := st.TroopName
	scoutName := req.ScoutDisplayName()
	scoutEmail := domain.NormalizeEmail(req.ScoutEmail)
	welcome := renderWelcome(st.WelcomeMessage)
	meta := map[string]string{"requestId": req.ID}

	rows := []domain.EmailRow{{
		Type:    domain.EmailTypeApproval,
		To:      scoutEmail,
		Name:    scoutName,
		Role:    domain.RoleScout,
		Subject: fmt.Sprintf("Welcome to %s!", troop),
		HTMLBody: page(
			paragraph("Hi %s,", scoutName),
			paragraph("Your registration with %s has been approved.", troop),
			signInBlock(st, scoutEmail),
			welcome,
			signature(st),
		),
		Meta: meta,
	}}

	seen := map[string]bool{scoutEmail: true}
	for _, g := range req.Guardians() {
		if seen[g.Email] {
			continue
		}
		seen[g.Email] = true
		rows = append(rows, domain.EmailRow{
			Type:    domain.EmailTypeApproval,
			To:      g.Email,
			Name:    g.FullName(),
			Role:    domain.RoleParent,
			Subject: fmt.Sprintf("%s has joined %s", scoutName, troop),
			HTMLBody: page(
				paragraph("Hi %s,", g.FullName()),
				paragraph("The registration for %s with %s has been approved. A parent account has been set up for you as well.", scoutName, troop),
				signInBlock(st, g.Email),
				welcome,
				signature(st),
			),
			Meta: map[string]string{"requestId": req.ID, "relation": string(g.Relation), "scoutEmail": scoutEmail},
		})
	}
	return rows
}

// BuildRejectionRows addresses the scout and every included guardian. The
// reason block appears only for a non-blank reason.
func BuildRejectionRows(req *domain.RegistrationRequest, reason string, st *domain.TroopSettings) []domain.EmailRow {
	troop := st.TroopName
	scoutName := req.ScoutDisplayName()

	reasonBlock := ""
	if r := strings.TrimSpace(reason); r != "" {
		reasonBlock = "<p><strong>Reason:</strong> " + html.EscapeString(r) + "</p>"
	}

	type recipient struct{ email, name, role string }
	scoutEmail := domain.NormalizeEmail(req.ScoutEmail)
	recipients := []recipient{{scoutEmail, scoutName, domain.RoleScout}}
	seen := map[string]bool{scoutEmail: true}
	for _, g := range req.Guardians() {
		if seen[g.Email] {
			continue
		}
		seen[g.Email] = true
		recipients = append(recipients, recipient{g.Email, g.FullName(), domain.RoleParent})
	}

	rows := make([]domain.EmailRow, 0, len(recipients))
	for _, rc := range recipients {
		rows = append(rows, domain.EmailRow{
			Type:    domain.EmailTypeRejection,
			To:      rc.email,
			Name:    rc.name,
			Role:    rc.role,
			Subject: fmt.Sprintf("Your %s registration request", troop),
			HTMLBody: page(
				paragraph("Hi %s,", rc.name),
				paragraph("Thank you for your interest in %s. We are unable to approve the registration for %s at this time.", troop, scoutName),
				reasonBlock,
				contactBlock(st),
				signature(st),
			),
			Meta: map[string]string{"requestId": req.ID},
		})
	}
	return rows
}

// BuildDigestRows sends each reviewer the list of requests that have waited
// longer than the configured reminder age. It returns nil when nothing is overdue.
func BuildDigestRows(pending []domain.RegistrationRequest, reviewers []domain.UserProfile, st *domain.TroopSettings, now time.Time) []domain.EmailRow {
	days := st.PendingReminderDays
	if days <= 0 {
		days = domain.DefaultPendingReminderDays
	}
	cutoff := now.AddDate(0, 0, -days)

	var b strings.Builder
	count := 0
	for _, r := range pending {
		if r.Status != domain.RequestStatusPending || r.CreatedAt.After(cutoff) {
			continue
		}
		count++
		waited := int(now.Sub(r.CreatedAt).Hours() / 24)
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>",
			html.EscapeString(r.ScoutDisplayName()),
			html.EscapeString(r.ScoutEmail),
			r.CreatedAt.Format(time.DateOnly),
			waited)
	}
	if count == 0 {
		return nil
	}

	table := "<table><tr><th>Scout</th><th>Email</th><th>Submitted</th><th>Days waiting</th></tr>" + b.String() + "</table>"
	var rows []domain.EmailRow
	seen := map[string]bool{}
	for _, rv := range reviewers {
		email := domain.NormalizeEmail(rv.Email)
		if email == "" || seen[email] || !rv.IsApproved() {
			continue
		}
		seen[email] = true
		rows = append(rows, domain.EmailRow{
			Type:    domain.EmailTypeDigest,
			To:      email,
			Name:    rv.DisplayName,
			Role:    reviewerRole(rv),
			Subject: fmt.Sprintf("%d registration request(s) awaiting review", count),
			HTMLBody: page(
				paragraph("Hi %s,", rv.DisplayName),
				paragraph("These %s registration requests have been pending for more than %s days:", st.TroopName, days),
				table,
				signInBlock(st, ""),
			),
			Meta: map[string]string{"pending": fmt.Sprint(count)},
		})
	}
	return rows
}

func reviewerRole(p domain.UserProfile) string {
	if p.IsAdmin() {
		return domain.RoleAdmin
	}
	return domain.RoleApprover
}

func renderWelcome(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := welcomeRenderer.Convert([]byte(markdown), &buf); err != nil {
		logger.Warn("Welcome message is not valid markdown, sending it as text", "error", err)
		return "<p>" + html.EscapeString(markdown) + "</p>"
	}
	return buf.String()
}

// paragraph escapes every argument before formatting.
func paragraph(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = html.EscapeString(fmt.Sprint(a))
	}
	return "<p>" + fmt.Sprintf(format, escaped...) + "</p>"
}

func signInBlock(st *domain.TroopSettings, email string) string {
	if st.SiteURL == "" {
		return ""
	}
	link := html.EscapeString(st.SiteURL)
	if email == "" {
		return fmt.Sprintf(`<p><a href="%s">Open the troop site</a></p>`, link)
	}
	return fmt.Sprintf(`<p>Sign in at <a href="%s">%s</a> using <strong>%s</strong>.</p>`, link, link, html.EscapeString(email))
}

func contactBlock(st *domain.TroopSettings) string {
	if st.ReplyTo == "" {
		return ""
	}
	addr := html.EscapeString(st.ReplyTo)
	return fmt.Sprintf(`<p>Questions? Write to <a href="mailto:%s">%s</a>.</p>`, addr, addr)
}

func signature(st *domain.TroopSettings) string {
	return "<p>Yours in Scouting,<br>" + html.EscapeString(st.TroopName) + "</p>"
}

func page(parts ...string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:Arial,sans-serif;line-height:1.5">`)
	for _, p := range parts {
		b.WriteString(p)
	}
	b.WriteString("</div>")
	return b.String()
}
