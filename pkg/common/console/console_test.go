package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBannerPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 10)
	p.Banner("HELLO")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{"==========", "HELLO", "=========="}, lines)
}

func TestFieldAndWarn(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, 10)
	p.Field("Epochs", 3)
	p.Warn("missing %s", "data")

	assert.Equal(t, "Epochs: 3\n⚠ missing data\n", buf.String())
}
