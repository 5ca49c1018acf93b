package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Successf("pushed %d entries", 3)
	p.Warnf("skipping day")
	p.Errorf("failed")
	p.Println("done")

	out := buf.String()
	assert.Contains(t, out, "✓ pushed 3 entries\n")
	assert.Contains(t, out, "⚠ skipping day\n")
	assert.Contains(t, out, "✗ failed\n")
	assert.Contains(t, out, "done\n")
}

func TestCtx_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	ctx := WithCtx(context.Background(), p)
	assert.Same(t, p, Ctx(ctx))
}

func TestCtx_Fallback(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))
}
