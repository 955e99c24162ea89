package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{"healthy", Healthy("ok"), http.StatusOK, "OK"},
		{"degraded still ready", Degraded("cache down"), http.StatusOK, "DEGRADED"},
		{"unhealthy", Unhealthy("backend down", nil), http.StatusServiceUnavailable, "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Register(staticChecker("probe", tt.result))

			rec := httptest.NewRecorder()
			ReadinessHandler(reg)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	reg := NewRegistry()
	reg.Register(staticChecker("ai-backend", Healthy("backend responding")))
	reg.Register(staticChecker("cache", Degraded("write failing")))

	rec := httptest.NewRecorder()
	DetailedHandler(reg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	var body StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("overall status = %q, want degraded", body.Status)
	}
	if len(body.Checks) != 2 {
		t.Fatalf("checks = %d, want 2", len(body.Checks))
	}
	if body.Checks["ai-backend"].Status != "healthy" {
		t.Errorf("ai-backend = %+v", body.Checks["ai-backend"])
	}
	if body.Checks["cache"].Message != "write failing" {
		t.Errorf("cache = %+v", body.Checks["cache"])
	}
}

func TestDetailedHandlerUnhealthyIs503(t *testing.T) {
	reg := NewRegistry()
	reg.Register(staticChecker("ai-backend", Unhealthy("down", ErrBackendUnavailable)))

	rec := httptest.NewRecorder()
	DetailedHandler(reg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var body StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Checks["ai-backend"].Error == "" {
		t.Error("expected error message in check response")
	}
}

func TestRegisterHandlers(t *testing.T) {
	reg := NewRegistry()
	reg.Register(staticChecker("probe", Healthy("ok")))

	mux := http.NewServeMux()
	RegisterHandlers(mux, reg)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
