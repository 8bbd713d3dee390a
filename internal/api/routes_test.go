package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/open2fa/console/adapters"
	"github.com/open2fa/console/internal/otp"
	"github.com/open2fa/console/usecase"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := adapters.NewMemorySnapshotStore()
	registry := usecase.NewRegistry(ctx, store, otp.NewProvisioner(logger), logger)
	sessions := usecase.NewSessions(ctx, usecase.DefaultUsers(), store, logger)
	console := usecase.NewConsole(sessions, registry, logger)

	e := echo.New()
	InitRoutes(e, console, logger)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON response for %s %s: %v\n%s", method, path, err, rec.Body.String())
	}
	return rec, payload
}

func loginAs(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	rec, payload := doJSON(t, e, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"`+username+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("login response carried no token")
	}
	return token
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	rec, payload := doJSON(t, e, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if payload["status"] != "ok" {
		t.Errorf("unexpected health payload %v", payload)
	}
}

func TestLoginEndpoint(t *testing.T) {
	e := newTestServer(t)

	t.Run("ValidCredentials", func(t *testing.T) {
		rec, payload := doJSON(t, e, http.MethodPost, "/api/v1/auth/login", "",
			`{"username":"admin","password":"admin123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if payload["role"] != "admin" || payload["success"] != true {
			t.Errorf("unexpected payload %v", payload)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		rec, payload := doJSON(t, e, http.MethodPost, "/api/v1/auth/login", "",
			`{"username":"admin","password":"wrong"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if payload["error"] != "invalid_credentials" {
			t.Errorf("unexpected error payload %v", payload)
		}
	})
}

func TestProfileAndLogoutEndpoints(t *testing.T) {
	e := newTestServer(t)
	token := loginAs(t, e, "admin", "admin123")

	rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/auth/profile", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	user, _ := payload["user"].(map[string]interface{})
	if user["username"] != "admin" || user["role"] != "admin" {
		t.Errorf("unexpected profile %v", payload)
	}

	if rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/auth/logout", token, ""); rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	if rec, _ := doJSON(t, e, http.MethodGet, "/api/v1/auth/profile", token, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
	// Idempotent logout
	if rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/auth/logout", token, ""); rec.Code != http.StatusOK {
		t.Errorf("repeated logout should still ack, got %d", rec.Code)
	}
}

func TestDeviceEndpoints(t *testing.T) {
	e := newTestServer(t)
	admin := loginAs(t, e, "admin", "admin123")
	operator := loginAs(t, e, "user", "user123")

	t.Run("ListRequiresAdmin", func(t *testing.T) {
		if rec, _ := doJSON(t, e, http.MethodGet, "/api/v1/devices", "", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 without token, got %d", rec.Code)
		}
		if rec, _ := doJSON(t, e, http.MethodGet, "/api/v1/devices", operator, ""); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 for operator, got %d", rec.Code)
		}
	})

	t.Run("ListWithFilter", func(t *testing.T) {
		rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/devices?device_model=secure+gateway", admin, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		devices, _ := payload["devices"].([]interface{})
		if len(devices) != 1 {
			t.Fatalf("expected 1 filtered device, got %d", len(devices))
		}
	})

	t.Run("CreateAndConflict", func(t *testing.T) {
		body := `{"device_sn":"sn-100","device_model":"Edge 900","device_name":"Node","owner_org":"Ops"}`
		rec, payload := doJSON(t, e, http.MethodPost, "/api/v1/devices", admin, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		device, _ := payload["device"].(map[string]interface{})
		if device["device_sn"] != "SN-100" {
			t.Errorf("expected normalized serial, got %v", device["device_sn"])
		}
		if masked, _ := device["secret_masked"].(string); !strings.Contains(masked, "*") {
			t.Errorf("expected masked secret, got %v", device["secret_masked"])
		}

		rec, payload = doJSON(t, e, http.MethodPost, "/api/v1/devices", admin,
			`{"device_sn":"SN-100","device_model":"Edge 900","device_name":"Dup","owner_org":"Ops"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if payload["error"] != "conflict" {
			t.Errorf("unexpected conflict payload %v", payload)
		}
	})

	t.Run("UpdateRemarkNullClears", func(t *testing.T) {
		rec, _ := doJSON(t, e, http.MethodPut, "/api/v1/devices/device-1001", admin, `{"remark":null}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/devices/device-1001", admin, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		device, _ := payload["device"].(map[string]interface{})
		if _, present := device["remark"]; present {
			t.Errorf("expected remark to be absent after null update, got %v", device["remark"])
		}
	})

	t.Run("UpdateMissingDevice", func(t *testing.T) {
		rec, _ := doJSON(t, e, http.MethodPut, "/api/v1/devices/missing", admin, `{"device_name":"X"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		rec, payload := doJSON(t, e, http.MethodPost, "/api/v1/devices/device-1001/reset", admin, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if masked, _ := payload["secret_masked"].(string); !strings.Contains(masked, "*") {
			t.Errorf("expected masked secret in reset response, got %v", payload)
		}
		if uri, _ := payload["otpauth_url"].(string); !strings.HasPrefix(uri, "otpauth://totp/") {
			t.Errorf("expected enrollment uri in reset response, got %v", payload)
		}
	})
}

func TestPublicEndpoints(t *testing.T) {
	e := newTestServer(t)

	t.Run("List", func(t *testing.T) {
		rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/public/devices", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		devices, _ := payload["devices"].([]interface{})
		if len(devices) != 3 {
			t.Fatalf("expected 3 devices, got %d", len(devices))
		}
		first, _ := devices[0].(map[string]interface{})
		if _, leaked := first["secret_masked"]; leaked {
			t.Error("public list must not carry secret material")
		}
		if first["has_2fa"] != true {
			t.Errorf("expected has_2fa true, got %v", first)
		}
	})

	t.Run("BySerial", func(t *testing.T) {
		rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/public/devices/sn/SN-1001-OPEN2FA", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		device, _ := payload["device"].(map[string]interface{})
		if masked, _ := device["secret_masked"].(string); !strings.HasSuffix(masked, "3PXP") {
			t.Errorf("expected mask ending 3PXP, got %v", device["secret_masked"])
		}
	})

	t.Run("BySerialNotFound", func(t *testing.T) {
		rec, _ := doJSON(t, e, http.MethodGet, "/api/v1/public/devices/sn/SN-NOPE", "", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("TwoFactorByID", func(t *testing.T) {
		rec, payload := doJSON(t, e, http.MethodGet, "/api/v1/public/devices/device-2001/2fa", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		device, _ := payload["device"].(map[string]interface{})
		if device["device_sn"] != "SN-2001-OPEN2FA" {
			t.Errorf("unexpected device %v", device)
		}
	})
}
