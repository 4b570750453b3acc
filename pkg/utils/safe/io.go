package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/contactbook/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", logging.ErrAttr(err))
	}
}

// Write writes data to w and logs a failure. It reports whether the write succeeded
// so that callers streaming to a client can stop once the peer is gone.
func Write(ctx context.Context, w io.Writer, data []byte) bool {
	if w == nil {
		return false
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Debug("Failed to write", logging.ErrAttr(err))
		return false
	}
	return true
}
