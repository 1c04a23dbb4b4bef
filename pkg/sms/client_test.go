package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendPostsForm(t *testing.T) {
	var gotPath, gotTo, gotBody string
	var okAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, ok := r.BasicAuth()
		okAuth = ok && user == "sid-1" && pass == "token-1"
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.PostForm.Get("To")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, AccountSID: "sid-1", AuthToken: "token-1"}
	if err := c.Send(context.Background(), "+46700000000", "+46701111111", "Ny bokning"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/Accounts/sid-1/Messages.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if !okAuth {
		t.Fatalf("basic auth not sent")
	}
	if gotTo != "+46701111111" || gotBody != "Ny bokning" {
		t.Fatalf("form: to=%q body=%q", gotTo, gotBody)
	}
}

func TestSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer srv.Close()

	c := Client{BaseURL: srv.URL, AccountSID: "sid-1", AuthToken: "wrong"}
	err := c.Send(context.Background(), "+46700000000", "+46701111111", "x")
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("err = %v, want status=401", err)
	}
}

func TestSendRequiresCredentials(t *testing.T) {
	if err := (Client{}).Send(context.Background(), "a", "b", "c"); err == nil {
		t.Fatalf("missing credentials must fail")
	}
}
