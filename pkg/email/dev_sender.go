package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender writes messages to a local directory instead of sending them.
// Each message becomes a timestamped HTML file, so magic links can be opened
// straight from the filesystem during development.
type DevSender struct {
	dir string
}

func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func (s *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	tag := msg.Tag
	if tag == "" {
		tag = msg.Subject
	}
	tag = strings.ToLower(unsafeFilenameChars.ReplaceAllString(strings.ReplaceAll(tag, " ", "_"), ""))

	name := fmt.Sprintf("%s_%s.html", time.Now().UTC().Format("2006_01_02_150405"), tag)
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(msg.HTMLBody), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}
