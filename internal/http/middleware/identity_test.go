package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentity_ParsesHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		id, user string
		wantID   int64
		wantOK   bool
		wantName string
	}{
		{"valid", "42", " Ann ", 42, true, "Ann"},
		{"padded", " 7 ", "", 7, true, ""},
		{"missing", "", "Bo", 0, false, "Bo"},
		{"not a number", "abc", "", 0, false, ""},
		{"zero", "0", "", 0, false, ""},
		{"negative group chat", "-1001234567890", "", -1001234567890, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Identity())
			r.GET("/", func(c *gin.Context) {
				id, ok := UserID(c)
				if id != tc.wantID || ok != tc.wantOK {
					t.Errorf("UserID = %d, %v; want %d, %v", id, ok, tc.wantID, tc.wantOK)
				}
				if got := UserName(c); got != tc.wantName {
					t.Errorf("UserName = %q; want %q", got, tc.wantName)
				}
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.id != "" {
				req.Header.Set(HeaderUserID, tc.id)
			}
			if tc.user != "" {
				req.Header.Set(HeaderUserName, tc.user)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusNoContent {
				t.Fatalf("status = %d", w.Code)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Identity(), RequireUser())
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no header: status = %d; want 401", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["code"] != "unauthorized" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "5")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("with header: status = %d; want 200", w.Code)
	}
}

func TestUserID_WrongTypeInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ctxKeyUserID, "42")
	if _, ok := UserID(c); ok {
		t.Fatalf("string user id should not be accepted")
	}
	c.Set(ctxKeyUserName, 3)
	if got := UserName(c); got != "" {
		t.Fatalf("UserName = %q", got)
	}
}

func TestRequireUser_GroupChatID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Identity(), RequireUser())
	r.GET("/me", func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, "%d", id)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "-1001234567890")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "-1001234567890" {
		t.Fatalf("status = %d body = %q; want 200 with the negative id", w.Code, w.Body.String())
	}
}
