package httpapi

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// bufferedWriter captures a handler's status and body instead of writing
// them straight through, so gzipJSON can decide whether to compress once the
// handler has set its final Content-Type. WriteHeader is deliberately NOT
// forwarded to the embedded ResponseWriter here — it only records the status,
// so headers stay mutable until the real write happens at the end of
// gzipJSON.
type bufferedWriter struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bufferedWriter) WriteHeader(code int) {
	w.status = code
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// gzipJSON mirrors routes.py's gzippable_jsonify: any JSON response MAY be
// gzip-compressed if the request's Accept-Encoding asks for it (§4.10) —
// conditional per response, not a blanket gin-contrib/gzip middleware. It is
// only installed on the JSON route group (router.go); /artwork, /mp3 and /ws
// stream their own bytes and are never wrapped by it.
func gzipJSON(c *gin.Context) {
	bw := &bufferedWriter{ResponseWriter: c.Writer, status: http.StatusOK}
	c.Writer = bw
	c.Next()

	body := bw.buf.Bytes()
	contentType := bw.Header().Get("Content-Type")
	acceptsGzip := strings.Contains(c.Request.Header.Get("Accept-Encoding"), "gzip")

	if !acceptsGzip || !strings.HasPrefix(contentType, "application/json") || len(body) == 0 {
		bw.Header().Set("Content-Length", strconv.Itoa(len(body)))
		bw.ResponseWriter.WriteHeader(bw.status)
		_, _ = bw.ResponseWriter.Write(body)
		return
	}

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, _ = gz.Write(body)
	_ = gz.Close()

	bw.Header().Set("Content-Encoding", "gzip")
	bw.Header().Set("Content-Length", strconv.Itoa(compressed.Len()))
	bw.ResponseWriter.WriteHeader(bw.status)
	_, _ = bw.ResponseWriter.Write(compressed.Bytes())
}
