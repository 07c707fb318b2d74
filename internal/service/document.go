package service

import (
	"encoding/base64"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"tichmi/internal/domain"
	"tichmi/internal/logger"

	"go.uber.org/zap"
)

// DocumentLoader validates an uploaded file's declared media type and
// encodes its bytes as a portable text payload for inline attachment to a
// generation request. The whole file is buffered in memory before encoding;
// no size limit is enforced, which is a known scalability ceiling.
type DocumentLoader struct {
	processing atomic.Bool

	mu      sync.Mutex
	lastErr string
}

// NewDocumentLoader creates a new DocumentLoader.
func NewDocumentLoader() *DocumentLoader {
	return &DocumentLoader{}
}

// Load accepts a file's declared media type and content reader. Files whose
// media type contains neither "pdf" nor "document" are rejected before any
// read. Read failures are recorded as the last error and surface as an error
// with no payload produced.
func (l *DocumentLoader) Load(mimeType string, r io.Reader) (*domain.DocumentPayload, error) {
	if !strings.Contains(mimeType, "pdf") && !strings.Contains(mimeType, "document") {
		err := domain.NewDocumentRejectedError(mimeType)
		l.setLastError(err.Error())
		return nil, err
	}

	l.processing.Store(true)
	l.setLastError("")
	defer l.processing.Store(false)

	content, err := io.ReadAll(r)
	if err != nil {
		l.setLastError(err.Error())
		logger.Get().Error("Document read failed", zap.Error(err), zap.String("mime_type", mimeType))
		return nil, domain.NewError(domain.CodeInvalidInput, "Failed to process file", err)
	}

	return &domain.DocumentPayload{
		Payload:  base64.StdEncoding.EncodeToString(content),
		MIMEType: mimeType,
	}, nil
}

// IsProcessing reports whether a read is in flight. The flag is advisory
// (for disabling a UI control), not a mutual-exclusion guard.
func (l *DocumentLoader) IsProcessing() bool {
	return l.processing.Load()
}

// LastError returns the message of the most recent failure, or "" if the
// last operation succeeded.
func (l *DocumentLoader) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *DocumentLoader) setLastError(msg string) {
	l.mu.Lock()
	l.lastErr = msg
	l.mu.Unlock()
}
