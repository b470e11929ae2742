package termui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, "Fixing")

	bar.Start(4)
	assert.Equal(t, 0.0, bar.Percent())
	bar.Increment()
	bar.Increment()
	assert.Equal(t, 0.5, bar.Percent())

	bar.Println("changed a.srt")
	bar.Increment()
	bar.Increment()
	bar.Increment()
	assert.Equal(t, 1.0, bar.Percent())
	bar.Done()

	out := buf.String()
	assert.Contains(t, out, "Fixing")
	assert.Contains(t, out, "changed a.srt\n")
	assert.Contains(t, out, "4/4")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestBar_EmptyTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, "x")
	bar.Start(0)
	assert.Equal(t, 1.0, bar.Percent())
	bar.Done()
	bar.Done()
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestPlainStyles(t *testing.T) {
	s := PlainStyles()
	assert.Equal(t, "hello", s.OK.Render("hello"))
	assert.Equal(t, "hello", s.Pending.Render("hello"))
}

func TestStylesFor_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	s := StylesFor(nil)
	assert.Equal(t, "plain", s.Warn.Render("plain"))
}
