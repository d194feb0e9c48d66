package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogMiddleware(t *testing.T) {
	var buf bytes.Buffer

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)
	logger := zap.New(core).Sugar()

	body := `{"hello":"world"}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	var seen string
	handler := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("response"))
	}))

	handler.ServeHTTP(rr, req)

	if seen != body {
		t.Errorf("handler got body %q", seen)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "method=POST") {
		t.Error("log has no method")
	}
	if !strings.Contains(logOutput, "status=201") {
		t.Error("log has no status")
	}
	if !strings.Contains(logOutput, `body={"hello":"world"}`) {
		t.Error("log has no request body")
	}
	if !strings.Contains(logOutput, "outputheaders=") {
		t.Error("log has no response headers")
	}
}

func TestLogMiddleware_SkipsMultipartBody(t *testing.T) {
	var buf bytes.Buffer
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)).Sugar()

	req := httptest.NewRequest(http.MethodPost, "/api/speech/process-audio", strings.NewReader("RIFFsecretaudio"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(httptest.NewRecorder(), req)

	if strings.Contains(buf.String(), "secretaudio") {
		t.Error("multipart body must not be logged")
	}
}
