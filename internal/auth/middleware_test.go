package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type recordingSink struct {
	calls []struct{ reason, ip, email string }
}

func (s *recordingSink) RecordAuthFailure(ctx context.Context, reason, ip, email string) {
	s.calls = append(s.calls, struct{ reason, ip, email string }{reason, ip, email})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireOperatorRejectsNoSession(t *testing.T) {
	sink := &recordingSink{}
	h := RequireOperator([]string{"owner@example.com"}, "X-Dev-Password", "secret", sink)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/config/activate", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(sink.calls) != 1 || sink.calls[0].reason != "no_session" {
		t.Fatalf("unexpected sink calls: %+v", sink.calls)
	}
}

func TestRequireOperatorRejectsNonOwner(t *testing.T) {
	sink := &recordingSink{}
	h := RequireOperator([]string{"owner@example.com"}, "X-Dev-Password", "secret", sink)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/config/activate", nil)
	req.Header.Set("X-Dev-Password", "secret")
	req = req.WithContext(WithUser(req.Context(), &User{Email: "intruder@example.com"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(sink.calls) != 1 || sink.calls[0].reason != "not_on_owner_list" {
		t.Fatalf("unexpected sink calls: %+v", sink.calls)
	}
}

func TestRequireOperatorRejectsMissingDevPassword(t *testing.T) {
	sink := &recordingSink{}
	h := RequireOperator([]string{"owner@example.com"}, "X-Dev-Password", "secret", sink)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/config/activate", nil)
	req = req.WithContext(WithUser(req.Context(), &User{Email: "owner@example.com"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(sink.calls) != 1 || sink.calls[0].reason != "dev_password_mismatch" {
		t.Fatalf("unexpected sink calls: %+v", sink.calls)
	}
}

func TestRequireOperatorAllowsOwnerWithDevPassword(t *testing.T) {
	sink := &recordingSink{}
	h := RequireOperator([]string{"owner@example.com"}, "X-Dev-Password", "secret", sink)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/config/activate", nil)
	req.Header.Set("X-Dev-Password", "secret")
	req = req.WithContext(WithUser(req.Context(), &User{Email: "Owner@example.com"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("expected no sink calls, got %+v", sink.calls)
	}
}
