package notify

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedSend records the message handed to the SMTP relay.
type capturedSend struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func testNotifier(t *testing.T, settings Settings) (*Notifier, *capturedSend) {
	t.Helper()

	dir := t.TempDir()
	completed := "<html><body>Your request was processed.</body></html>"
	failed := "<html><body>Processing failed: $error_msg$</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, templateCompleted), []byte(completed), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, templateError), []byte(failed), 0o644))

	captured := &capturedSend{}
	n := New(settings, dir, nil)
	n.send = func(addr, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.msg = msg
		return nil
	}
	return n, captured
}

func enabledSettings() Settings {
	return Settings{
		Send:    true,
		Sender:  "updater@example.com",
		Host:    "relay.example.com",
		Port:    25,
		Subject: "SAP Account Items Updater",
	}
}

func TestNotifyErrorSubstitutesMessage(t *testing.T) {
	n, captured := testNotifier(t, enabledSettings())

	require.NoError(t, n.NotifyError("jane.doe@example.com", "The message contains no valid company code"))

	assert.Equal(t, "relay.example.com:25", captured.addr)
	assert.Equal(t, "updater@example.com", captured.from)
	assert.Equal(t, []string{"jane.doe@example.com"}, captured.to)

	body := string(captured.msg)
	assert.Contains(t, body, "Processing failed: The message contains no valid company code")
	assert.NotContains(t, body, errorToken)
	assert.Contains(t, body, "Subject: SAP Account Items Updater")
	assert.Contains(t, body, "To: jane.doe@example.com")
}

func TestNotifyCompletedAttachesReport(t *testing.T) {
	n, captured := testNotifier(t, enabledSettings())

	reportPath := filepath.Join(t.TempDir(), "report.xlsx")
	content := []byte("report-content")
	require.NoError(t, os.WriteFile(reportPath, content, 0o644))

	require.NoError(t, n.NotifyCompleted("jane.doe@example.com", reportPath))

	body := string(captured.msg)
	assert.Contains(t, body, "Your request was processed.")
	assert.Contains(t, body, "multipart/mixed")
	assert.Contains(t, body, `filename="report.xlsx"`)
	assert.Contains(t, body, base64.StdEncoding.EncodeToString(content))
}

func TestNotifyCompletedMissingReport(t *testing.T) {
	n, captured := testNotifier(t, enabledSettings())

	err := n.NotifyCompleted("jane.doe@example.com", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
	assert.Empty(t, captured.msg)
}

func TestDisabledNotifierSkipsSending(t *testing.T) {
	n, captured := testNotifier(t, Settings{Send: false})

	assert.False(t, n.Enabled())
	require.NoError(t, n.NotifyError("jane.doe@example.com", "boom"))
	assert.Empty(t, captured.msg, "a disabled notifier never contacts the relay")
}

func TestMissingTemplateFails(t *testing.T) {
	n := New(enabledSettings(), t.TempDir(), nil)
	err := n.NotifyError("jane.doe@example.com", "boom")
	assert.Error(t, err)
}

func TestComposeMessageAttachmentLineWrapping(t *testing.T) {
	// Large attachments must be base64-wrapped at 76 characters.
	content := make([]byte, 300)
	for i := range content {
		content[i] = byte(i % 251)
	}

	msg := composeMessage("a@example.com", "b@example.com", "subject",
		"<html></html>", &attachment{Name: "data.bin", Content: content})

	for _, line := range splitLines(string(msg)) {
		assert.LessOrEqual(t, len(line), 78)
	}
	assert.Contains(t, string(msg), "Content-Transfer-Encoding: base64")
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\r' && s[i+1] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 2
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
