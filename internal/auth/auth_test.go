package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/spirolab/spiro/backend-go/internal/typeid"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("secret", time.Hour)
	id := typeid.NewSessionID()

	res, err := svc.IssueToken(id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	got, err := svc.ValidateToken(res.Token)
	if err != nil || got != id {
		t.Fatalf("ValidateToken = %q, %v; want %q", got, err, id)
	}

	if _, err := svc.IssueToken("fgear_01h2xcejqtf2nbrexx3vqjhp41"); err == nil {
		t.Fatalf("IssueToken accepted a non-session id")
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := NewService("secret", time.Hour)
	id := typeid.NewSessionID()
	res, err := svc.IssueToken(id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	other := NewService("other-secret", time.Hour)
	if _, err := other.ValidateToken(res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret error = %v; want ErrInvalidToken", err)
	}

	later := NewService("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := later.ValidateToken(res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token error = %v; want ErrInvalidToken", err)
	}

	if _, err := svc.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token error = %v; want ErrInvalidToken", err)
	}

	if err := svc.Authorize(res.Token, typeid.NewSessionID()); !errors.Is(err, ErrWrongSession) {
		t.Fatalf("Authorize(other session) error = %v; want ErrWrongSession", err)
	}
}

func newTestRouter(svc *Service) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/sessions/{id}").Subrouter()
	api.Use(svc.AuthMiddleware)
	api.HandleFunc("/token", NewHandler(svc).Refresh).Methods("POST")
	api.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(SessionIDFromContext(r.Context())))
	}).Methods("GET")
	return r
}

func TestAuthMiddleware(t *testing.T) {
	svc := NewService("secret", time.Hour)
	router := newTestRouter(svc)

	id := typeid.NewSessionID()
	res, err := svc.IssueToken(id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tcs := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "valid", path: "/api/sessions/" + id + "/whoami", header: "Bearer " + res.Token, want: http.StatusOK},
		{name: "missing header", path: "/api/sessions/" + id + "/whoami", want: http.StatusUnauthorized},
		{name: "bad scheme", path: "/api/sessions/" + id + "/whoami", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", path: "/api/sessions/" + id + "/whoami", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "other session", path: "/api/sessions/" + typeid.NewSessionID() + "/whoami", header: "Bearer " + res.Token, want: http.StatusForbidden},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d; want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
			if tc.want == http.StatusOK && rec.Body.String() != id {
				t.Fatalf("session in context = %q; want %q", rec.Body, id)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	svc := NewService("secret", time.Hour)
	router := newTestRouter(svc)

	id := typeid.NewSessionID()
	res, err := svc.IssueToken(id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/token", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body %s)", rec.Code, rec.Body)
	}
	var got TokenResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != id || got.Token == "" {
		t.Fatalf("refresh = %+v", got)
	}
	if sub, err := svc.ValidateToken(got.Token); err != nil || sub != id {
		t.Fatalf("refreshed token validates to %q, %v", sub, err)
	}
}
