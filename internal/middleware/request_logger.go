package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/notebox/internal/logger"
	"github.com/weiwangfds/notebox/internal/response"
)

const redacted = "[REDACTED]"

// sensitiveKeys JSON 请求体中需要脱敏的字段
var sensitiveKeys = map[string]bool{
	"password": true,
	"access":   true,
	"refresh":  true,
}

// sensitiveHeaders 需要脱敏的请求头
var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
}

// RequestLogEntry 请求日志条目
type RequestLogEntry struct {
	RequestID string            `json:"request_id"`
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Query     string            `json:"query,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      interface{}       `json:"body,omitempty"`
	ClientIP  string            `json:"client_ip"`

	StatusCode   int         `json:"status_code"`
	ResponseBody interface{} `json:"response_body,omitempty"`
	ResponseSize int         `json:"response_size"`
	DurationMs   int64       `json:"duration_ms"`
	Error        string      `json:"error,omitempty"`
}

// responseWriter 响应写入器包装，用于捕获响应体
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// RequestLoggerConfig 请求日志配置
type RequestLoggerConfig struct {
	Enabled         bool
	SkipPaths       []string
	MaxBodySize     int
	IncludeHeaders  bool
	IncludeResponse bool
}

// DefaultRequestLoggerConfig 默认配置，仅在 gin debug 模式下启用
func DefaultRequestLoggerConfig() *RequestLoggerConfig {
	return &RequestLoggerConfig{
		Enabled:         gin.Mode() == gin.DebugMode,
		SkipPaths:       []string{"/health", "/favicon.ico"},
		MaxBodySize:     64 * 1024,
		IncludeHeaders:  true,
		IncludeResponse: true,
	}
}

// RequestLogger 请求日志中间件
// 记录完整的请求和响应内容用于调试，密码和令牌在写入前脱敏
func RequestLogger(cfg *RequestLoggerConfig) gin.HandlerFunc {
	if cfg == nil {
		cfg = DefaultRequestLoggerConfig()
	}
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		var requestBody interface{}
		if c.Request.Body != nil {
			requestBody = readRequestBody(c, cfg.MaxBodySize)
		}

		c.Next()

		entry := &RequestLogEntry{
			RequestID:    c.GetString(response.RequestIDKey),
			Method:       c.Request.Method,
			Path:         c.Request.URL.Path,
			Query:        c.Request.URL.RawQuery,
			Body:         requestBody,
			ClientIP:     c.ClientIP(),
			StatusCode:   writer.Status(),
			ResponseSize: writer.Size(),
			DurationMs:   time.Since(start).Milliseconds(),
		}
		if cfg.IncludeHeaders {
			entry.Headers = extractHeaders(c.Request.Header)
		}
		if cfg.IncludeResponse && writer.body.Len() > 0 {
			entry.ResponseBody = parseBody(writer.body.Bytes())
		}
		if len(c.Errors) > 0 {
			entry.Error = c.Errors.String()
		}

		logRequestEntry(entry)
	}
}

// readRequestBody 读取请求体（最多 maxSize 字节），并把完整请求体放回供后续处理
func readRequestBody(c *gin.Context, maxSize int) interface{} {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return map[string]string{"error": "failed to read request body"}
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) > maxSize {
		return fmt.Sprintf("<%d bytes, truncated>", len(body))
	}
	return parseBody(body)
}

// parseBody 解析 JSON 并脱敏敏感字段
// 非 JSON 内容无法脱敏，只记录大小
func parseBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Sprintf("<%d bytes, not json>", len(body))
	}
	return redact(v)
}

func redact(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			if sensitiveKeys[strings.ToLower(k)] {
				val[k] = redacted
				continue
			}
			val[k] = redact(inner)
		}
		return val
	case []interface{}:
		for i := range val {
			val[i] = redact(val[i])
		}
		return val
	default:
		return v
	}
}

func extractHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			continue
		}
		if sensitiveHeaders[key] {
			out[key] = redacted
			continue
		}
		out[key] = values[0]
	}
	return out
}

func logRequestEntry(entry *RequestLogEntry) {
	fields := logrus.Fields{
		"type":        "request_log",
		"request_id":  entry.RequestID,
		"method":      entry.Method,
		"path":        entry.Path,
		"status_code": entry.StatusCode,
		"duration_ms": entry.DurationMs,
		"client_ip":   entry.ClientIP,
		"size":        entry.ResponseSize,
	}
	if entry.Query != "" {
		fields["query"] = entry.Query
	}
	if entry.Headers != nil {
		fields["headers"] = entry.Headers
	}
	if entry.Body != nil {
		fields["body"] = entry.Body
	}
	if entry.ResponseBody != nil {
		fields["response_body"] = entry.ResponseBody
	}
	if entry.Error != "" {
		fields["error"] = entry.Error
	}

	msg := fmt.Sprintf("[REQUEST_LOG] %s %s - %d (%dms)", entry.Method, entry.Path, entry.StatusCode, entry.DurationMs)
	l := logger.WithFields(fields)
	switch {
	case entry.StatusCode >= 500:
		l.Error(msg)
	case entry.StatusCode >= 400:
		l.Warn(msg)
	default:
		l.Debug(msg)
	}
}
