// =============================================================================
// SAP Account Items Updater - User Notifications
// =============================================================================
//
// This package sends the outcome notification back to the requesting user.
// There are exactly two message bodies, loaded from the notification
// template directory:
//
//   template_completed.html - processing finished, report attached
//   template_error.html     - processing failed; the $error_msg$ token is
//                             replaced with the user-facing error text
//
// Sending is optional and controlled by configuration; a disabled notifier
// logs and returns without contacting the mail host.
//
// =============================================================================

package notify

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
)

// Template file names and the substitution token.
const (
	templateCompleted = "template_completed.html"
	templateError     = "template_error.html"
	errorToken        = "$error_msg$"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings holds the notification parameters from the application
// configuration.
type Settings struct {
	// Send enables outbound notifications. When false, notification calls
	// are logged and skipped.
	Send bool

	// Sender is the notification From address.
	Sender string

	// Host and Port address the SMTP relay.
	Host string
	Port int

	// Subject is the fixed notification subject line.
	Subject string
}

// =============================================================================
// NOTIFIER
// =============================================================================

// Notifier composes and sends outcome notifications.
type Notifier struct {
	settings    Settings
	templateDir string
	log         *slog.Logger

	// send delivers a composed message; replaced in tests.
	send func(addr, from string, to []string, msg []byte) error
}

// New creates a notifier reading its bodies from templateDir.
func New(settings Settings, templateDir string, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		settings:    settings,
		templateDir: templateDir,
		log:         log,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Enabled reports whether notifications are switched on in configuration.
func (n *Notifier) Enabled() bool {
	return n.settings.Send
}

// NotifyCompleted sends the success notification with the report attached.
func (n *Notifier) NotifyCompleted(recipient, reportPath string) error {
	body, err := n.loadTemplate(templateCompleted)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("failed to read the report attachment: %w", err)
	}

	attachment := &attachment{Name: filepath.Base(reportPath), Content: content}
	return n.deliver(recipient, body, attachment)
}

// NotifyError sends the failure notification with the user-facing error
// message substituted into the body.
func (n *Notifier) NotifyError(recipient, errorMsg string) error {
	body, err := n.loadTemplate(templateError)
	if err != nil {
		return err
	}
	body = strings.ReplaceAll(body, errorToken, errorMsg)
	return n.deliver(recipient, body, nil)
}

// loadTemplate reads one notification body from the template directory.
func (n *Notifier) loadTemplate(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(n.templateDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to load notification template %q: %w", name, err)
	}
	return string(data), nil
}

// deliver composes the MIME message and hands it to the SMTP relay. A
// disabled notifier logs and returns nil.
func (n *Notifier) deliver(recipient, htmlBody string, att *attachment) error {
	if !n.settings.Send {
		n.log.Warn("sending of notifications to users is disabled in the configuration")
		return nil
	}

	msg := composeMessage(n.settings.Sender, recipient, n.settings.Subject, htmlBody, att)
	addr := fmt.Sprintf("%s:%d", n.settings.Host, n.settings.Port)

	if err := n.send(addr, n.settings.Sender, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send the notification: %w", err)
	}

	n.log.Info("notification sent", "recipient", recipient)
	return nil
}

// =============================================================================
// MESSAGE COMPOSITION
// =============================================================================

// attachment is one file attached to an outbound notification.
type attachment struct {
	Name    string
	Content []byte
}

const mimeBoundary = "item-updater-notification"

// composeMessage builds the raw RFC 822 message: an HTML body, optionally
// wrapped in a multipart container with one base64 attachment.
func composeMessage(from, to, subject, htmlBody string, att *attachment) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if att == nil {
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(htmlBody)
		return []byte(b.String())
	}

	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary)

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: application/octet-stream\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Name)

	encoded := base64.StdEncoding.EncodeToString(att.Content)
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}
