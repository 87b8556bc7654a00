package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// productionLogger mirrors NewAppLogger without DEBUG, but lets everything
// through the charm logger so only AppLogger's own gating is tested.
func productionLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{})
	logger.SetLevel(log.DebugLevel)
	return &AppLogger{logger: logger}, &buf
}

func TestDebugOnlyHelpers(t *testing.T) {
	helpers := []struct {
		name string
		call func(al *AppLogger)
		want []string
	}{
		{
			name: "debug",
			call: func(al *AppLogger) { al.Debug("cache miss", "host", "ghe.example") },
			want: []string{"cache miss", "host=ghe.example"},
		},
		{
			name: "bubbletea message",
			call: func(al *AppLogger) { al.LogMessage(tea.KeyMsg{Type: tea.KeyEnter}) },
			want: []string{"Message received", "tea.KeyMsg"},
		},
		{
			name: "performance",
			call: func(al *AppLogger) { al.LogPerformance("GET /user", time.Now().Add(-time.Millisecond)) },
			want: []string{"Performance", "GET /user", "duration"},
		},
		{
			name: "request",
			call: func(al *AppLogger) { al.LogRequest("GET", "/user/repos?per_page=100", 200, time.Now()) },
			want: []string{"API request", "method=GET", "/user/repos?per_page=100", "status=200"},
		},
		{
			name: "state transition",
			call: func(al *AppLogger) { al.LogStateTransition("orchestrator", "ATTEMPT", "NEED_FRESH_CREDS") },
			want: []string{"State transition", "component=orchestrator", "from=ATTEMPT", "to=NEED_FRESH_CREDS"},
		},
		{
			name: "user action",
			call: func(al *AppLogger) { al.LogUserAction("credential prompt", "ghe.example") },
			want: []string{"User action", "credential prompt", "ghe.example"},
		},
	}

	for _, h := range helpers {
		t.Run(h.name, func(t *testing.T) {
			logger, buf := NewTestLogger()
			h.call(logger)
			for _, want := range h.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Expected %q in debug output, got: %s", want, buf.String())
				}
			}

			prod, prodBuf := productionLogger()
			h.call(prod)
			if prodBuf.Len() != 0 {
				t.Errorf("Expected nothing without DEBUG, got: %s", prodBuf.String())
			}
		})
	}
}

func TestWarningsAlwaysLogged(t *testing.T) {
	prod, buf := productionLogger()

	prod.Warn("Failed to save credentials", "error", "keyring locked")
	prod.Error("Failed to render markdown")

	for _, want := range []string{"Failed to save credentials", "keyring locked", "Failed to render markdown"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected %q in output, got: %s", want, buf.String())
		}
	}
}

func TestWithComponent(t *testing.T) {
	logger, buf := NewTestLogger()
	transport := logger.WithComponent("transport")

	transport.Info("request sent")
	transport.LogRequest("HEAD", "/user", 200, time.Now())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, "component=transport") {
			t.Errorf("Expected component tag on %q", line)
		}
	}

	buf.Reset()
	logger.Info("untagged")
	if strings.Contains(buf.String(), "component=") {
		t.Errorf("Expected parent logger to stay untagged, got: %s", buf.String())
	}

	prod, prodBuf := productionLogger()
	prod.WithComponent("orchestrator").Debug("hidden")
	if prodBuf.Len() != 0 {
		t.Errorf("Expected component logger to keep production gating, got: %s", prodBuf.String())
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", "****"},
		{"short", "short", "****"},
		{"eight characters", "12345678", "****"},
		{"nine characters", "123456789", "****6789"},
		{"token", "ghp_1234567890abcdef", "****cdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(tt.secret)
			if got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.secret, got, tt.want)
			}
			if len(tt.secret) > 4 && strings.Contains(got, tt.secret[:len(tt.secret)-4]) {
				t.Errorf("Redact(%q) leaks the secret prefix: %q", tt.secret, got)
			}
		})
	}
}

func resetDefault() {
	defaultLogger = nil
	once = sync.Once{}
}

func TestPackageLevelFunctions_DebugFile(t *testing.T) {
	resetDefault()
	t.Cleanup(resetDefault)
	t.Chdir(t.TempDir())
	t.Setenv("DEBUG", "1")

	Info("package level info")
	Warn("package level warn")
	Error("package level error")
	Debug("package level debug")
	LogMessage(tea.KeyMsg{Type: tea.KeyEnter})
	LogPerformance("package_operation", time.Now())

	if GetDefault() != GetDefault() {
		t.Error("Expected GetDefault() to return one shared logger")
	}
}

func BenchmarkDebugSuppressed(b *testing.B) {
	prod, _ := productionLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		prod.Debug("benchmark debug message", "iteration", i)
	}
}
