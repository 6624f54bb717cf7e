package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/DilanUni/security-video-detection/manage"
	"github.com/DilanUni/security-video-detection/videosource"
)

func newTestHttp(conf *Config) *Http {
	m := manage.NewManageWith(videosource.OpenCVBackend{}, nil, nil)
	return NewHttpWith(m, conf)
}

func postLogin(t *testing.T, h *Http, user string, pass string) *http.Response {
	t.Helper()
	form := url.Values{}
	form.Set("user", user)
	form.Set("password", pass)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := h.fiber.Test(req)
	if err != nil {
		t.Fatalf("login request failed: %v\n", err)
	}
	return resp
}

func tokenFrom(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("could not read body: %v\n", err)
	}
	var r map[string]string
	if err := json.Unmarshal(body, &r); err != nil {
		t.Fatalf("could not parse body %q: %v\n", body, err)
	}
	if r["token"] == "" {
		t.Fatalf("empty token in %q\n", body)
	}
	return r["token"]
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestHttp(&Config{User: "admin", Password: "secret"})
	resp := postLogin(t, h, "admin", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, expected 401\n", resp.StatusCode)
	}
	resp = postLogin(t, h, "intruder", "secret")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, expected 401\n", resp.StatusCode)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	h := newTestHttp(&Config{User: "admin", Password: "secret"})
	resp := postLogin(t, h, "admin", "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected 200\n", resp.StatusCode)
	}
	tokenFrom(t, resp)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	h := newTestHttp(&Config{User: "admin", Password: "secret"})
	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	resp, err := h.fiber.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v\n", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, expected 401 without token\n", resp.StatusCode)
	}

	token := tokenFrom(t, postLogin(t, h, "admin", "secret"))
	req = httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = h.fiber.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v\n", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected 200 with token\n", resp.StatusCode)
	}
}

func TestPasswordHashWinsOverPlain(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v\n", err)
	}
	h := newTestHttp(&Config{
		User:         "admin",
		Password:     "plainOther",
		PasswordHash: string(hash),
	})
	if resp := postLogin(t, h, "admin", "secret"); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected hash match to win\n", resp.StatusCode)
	}
	if resp := postLogin(t, h, "admin", "plainOther"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("plain password accepted although a hash is set\n")
	}
}

func TestOpenWhenNoCredentialsConfigured(t *testing.T) {
	h := newTestHttp(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	resp, err := h.fiber.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v\n", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected open access\n", resp.StatusCode)
	}
}

func TestHeartbeatIsPublic(t *testing.T) {
	h := newTestHttp(&Config{User: "admin", Password: "secret"})
	req := httptest.NewRequest(http.MethodGet, "/heartbeat", nil)
	resp, err := h.fiber.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v\n", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected 200\n", resp.StatusCode)
	}
}

func TestLiveRequiresUpgrade(t *testing.T) {
	h := newTestHttp(nil)
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	resp, err := h.fiber.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v\n", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("status = %d, expected 426\n", resp.StatusCode)
	}
}
