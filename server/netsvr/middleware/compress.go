package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮等級
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

// encoder gzip.Writer 與 zstd.Encoder 的共同介面
type encoder interface {
	io.WriteCloser
	Flush() error
	Reset(w io.Writer)
}

type codec struct {
	name string
	pool sync.Pool
	make func(w io.Writer) (encoder, error)
}

func (c *codec) get(w io.Writer) (encoder, error) {
	if v := c.pool.Get(); v != nil {
		enc := v.(encoder)
		enc.Reset(w)
		return enc, nil
	}
	return c.make(w)
}

func (c *codec) put(enc encoder) {
	_ = enc.Close()
	c.pool.Put(enc)
}

func newCodecs(cfg CompressConfig) []*codec {
	return []*codec{
		{name: "zstd", make: func(w io.Writer) (encoder, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(cfg.ZstdLevel), zstd.WithEncoderConcurrency(1))
		}},
		{name: "gzip", make: func(w io.Writer) (encoder, error) {
			return gzip.NewWriterLevel(w, cfg.GzipLevel)
		}},
	}
}

// pick 依伺服器偏好順序挑第一個客戶端接受的編碼；q=0 視為拒絕。
func pick(codecs []*codec, accept string) *codec {
	if accept == "" {
		return nil
	}
	ok := make(map[string]bool, 4)
	for _, part := range strings.Split(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		if q == "q=0" || q == "q=0.0" || q == "q=0.00" || q == "q=0.000" {
			continue
		}
		ok[strings.ToLower(strings.TrimSpace(name))] = true
	}
	for _, c := range codecs {
		if ok[c.name] {
			return c
		}
	}
	return nil
}

// Compression 使用預設等級的壓縮 middleware
func Compression(next http.Handler) http.Handler {
	return Compress(DefaultCompressConfig)(next)
}

// Compress 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應。
// HEAD、協定升級、已編碼的回應直接放行；204/304/1xx 動態取消壓縮。
func Compress(cfg CompressConfig) func(http.Handler) http.Handler {
	codecs := newCodecs(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || isUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}
			c := pick(codecs, r.Header.Get("Accept-Encoding"))
			if c == nil {
				next.ServeHTTP(w, r)
				return
			}
			enc, err := c.get(w)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Encoding", c.name)
			w.Header().Add("Vary", "Accept-Encoding")

			cw := &compressWriter{ResponseWriter: w, enc: enc}
			defer func() {
				if cw.bypass {
					// 不讓壓縮尾碼污染無 body 的回應
					enc.Reset(io.Discard)
				}
				c.put(enc)
			}()
			next.ServeHTTP(cw, r)
		})
	}
}

func isUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") != "" ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

func noBody(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

type compressWriter struct {
	http.ResponseWriter
	enc    encoder
	bypass bool
}

func (cw *compressWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if noBody(code) {
		cw.bypass = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if cw.bypass {
		return cw.ResponseWriter.Write(b)
	}
	h := cw.Header()
	h.Del("Content-Length")
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(b))
	}
	return cw.enc.Write(b)
}

func (cw *compressWriter) Flush() {
	if !cw.bypass {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}
