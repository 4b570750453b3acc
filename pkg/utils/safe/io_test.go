package safe_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/contactbook/pkg/utils/safe"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestClose(t *testing.T) {
	c := &closer{err: errors.New("already closed")}
	safe.Close(context.Background(), c)
	gt.Bool(t, c.closed).True()

	safe.Close(context.Background(), nil)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	gt.Bool(t, safe.Write(context.Background(), &buf, []byte("data"))).True()
	gt.Value(t, buf.String()).Equal("data")

	gt.Bool(t, safe.Write(context.Background(), brokenWriter{}, []byte("data"))).False()
	gt.Bool(t, safe.Write(context.Background(), nil, []byte("data"))).False()
}
