// =============================================================================
// SAP Account Items Updater - Inbound Request Mailbox
// =============================================================================
//
// The mail gateway drops each triggering user message as an RFC 822 .eml
// file into a requests directory, named by its message ID. This package
// locates a message by ID and extracts the parts the processing flow needs:
// the sender address, the plain text body and the spreadsheet attachment.
//
// The message may no longer be available when processing starts (e.g. it
// was deleted between trigger and run); that case surfaces as
// ErrMessageNotFound and aborts the run.
//
// =============================================================================

package mailbox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMessageNotFound is returned when no message with the given ID
	// exists in the requests directory.
	ErrMessageNotFound = errors.New("could not find a message with the specified ID")

	// ErrNoAttachment is returned when the message carries no spreadsheet
	// attachment.
	ErrNoAttachment = errors.New("the message contains no attachment")
)

// =============================================================================
// DATA STRUCTURES
// =============================================================================

// Attachment is one file attached to a message.
type Attachment struct {
	Name    string
	Content []byte
}

// Message is one parsed inbound request message.
type Message struct {
	ID          string
	Sender      string
	Subject     string
	Body        string
	Attachments []Attachment
}

// SpreadsheetAttachment returns the first attachment with a spreadsheet
// extension, or ErrNoAttachment when there is none.
func (m *Message) SpreadsheetAttachment() (*Attachment, error) {
	for idx := range m.Attachments {
		ext := strings.ToLower(filepath.Ext(m.Attachments[idx].Name))
		if ext == ".xlsx" || ext == ".xlsm" {
			return &m.Attachments[idx], nil
		}
	}
	return nil, ErrNoAttachment
}

// =============================================================================
// MESSAGE LOADING
// =============================================================================

// Load reads and parses the message with the given ID from the requests
// directory.
func Load(fs afero.Fs, dir, messageID string) (*Message, error) {
	if messageID == "" || messageID != filepath.Base(messageID) {
		return nil, fmt.Errorf("%w: %q", ErrMessageNotFound, messageID)
	}

	path := filepath.Join(dir, messageID+".eml")
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMessageNotFound, messageID)
	}
	defer file.Close()

	return parse(messageID, file)
}

// parse reads one RFC 822 message and extracts sender, subject, body and
// attachments.
func parse(messageID string, r io.Reader) (*Message, error) {
	raw, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %q: %w", messageID, err)
	}

	msg := &Message{ID: messageID}

	if addr, err := mail.ParseAddress(raw.Header.Get("From")); err == nil {
		msg.Sender = addr.Address
	} else {
		msg.Sender = raw.Header.Get("From")
	}

	decoder := new(mime.WordDecoder)
	if subject, err := decoder.DecodeHeader(raw.Header.Get("Subject")); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = raw.Header.Get("Subject")
	}

	contentType := raw.Header.Get("Content-Type")
	encoding := raw.Header.Get("Content-Transfer-Encoding")
	disposition := raw.Header.Get("Content-Disposition")

	if err := walkEntity(msg, contentType, encoding, disposition, raw.Body); err != nil {
		return nil, fmt.Errorf("failed to parse message %q: %w", messageID, err)
	}

	return msg, nil
}

// walkEntity descends into one MIME entity, recursing through multipart
// containers. Text parts accumulate into the body; parts with a file name
// become attachments.
func walkEntity(msg *Message, contentType, encoding, disposition string, body io.Reader) error {
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("invalid content type %q: %w", contentType, err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		reader := multipart.NewReader(body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read message part: %w", err)
			}
			err = walkEntity(msg,
				part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"),
				part.Header.Get("Content-Disposition"),
				part,
			)
			part.Close()
			if err != nil {
				return err
			}
		}
	}

	content, err := io.ReadAll(decodeTransfer(body, encoding))
	if err != nil {
		return fmt.Errorf("failed to read message content: %w", err)
	}

	if name := partFileName(disposition, params); name != "" {
		msg.Attachments = append(msg.Attachments, Attachment{Name: name, Content: content})
		return nil
	}

	if mediaType == "text/plain" && msg.Body == "" {
		msg.Body = string(content)
	}
	return nil
}

// decodeTransfer unwraps the content transfer encoding of a part.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	}
	return r
}

// partFileName extracts a part's file name from its disposition header or
// content type parameters.
func partFileName(disposition string, typeParams map[string]string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return typeParams["name"]
}
