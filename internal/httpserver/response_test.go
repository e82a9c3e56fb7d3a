package httpserver_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/danij/Forum-sub001/internal/httpserver"
	"github.com/stretchr/testify/assert"
)

func render(t *testing.T, prefix string, write func(*httpserver.Response)) string {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	resp := httpserver.NewResponse(w, prefix)
	write(resp)
	assert.NoError(t, w.Flush())
	return buf.String()
}

func TestWriteBodyAndContentLengthAddsJSONPrefix(t *testing.T) {
	out := render(t, ")]}',\n", func(r *httpserver.Response) {
		r.WriteStatus(200)
		r.WriteBodyAndContentLength("application/json", []byte(`{"a":1}`))
	})

	assert.Contains(t, out, "HTTP/1.1 200 OK\r\n")
	assert.Contains(t, out, "Content-Type: application/json\r\n")
	assert.True(t, strings.HasSuffix(out, ")]}',\n{\"a\":1}"))
}

func TestWriteImageBodyNeverAddsPrefix(t *testing.T) {
	body := []byte{0x89, 'P', 'N', 'G'}
	out := render(t, ")]}',\n", func(r *httpserver.Response) {
		r.WriteStatus(200)
		r.WriteImageBody("image/png", body)
	})

	assert.Contains(t, out, "Content-Type: image/png\r\n")
	assert.True(t, strings.HasSuffix(out, string(body)))
	assert.NotContains(t, out, ")]}',\n"+string(body))
	assert.False(t, strings.Contains(out, ")]}',\n\x89PNG"))
}

func TestWriteEmptyBodySetsZeroContentLength(t *testing.T) {
	out := render(t, "prefix", func(r *httpserver.Response) {
		r.WriteStatus(204)
		r.WriteEmptyBody()
	})

	assert.Contains(t, out, "HTTP/1.1 204 No Content\r\n")
	assert.Contains(t, out, "Content-Length: 0\r\n")
}

func TestHeaderWritesAreNoOpsBeforeStatus(t *testing.T) {
	out := render(t, "", func(r *httpserver.Response) {
		r.WriteHeader("X-Test", "value")
		r.WriteEmptyBody()
	})

	assert.Empty(t, out)
}
