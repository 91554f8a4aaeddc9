package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSMSGateway_Send(t *testing.T) {
	var gotAuth, gotTo, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.FormValue("to")
		gotBody = r.FormValue("body")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw, err := NewSMSGateway(srv.URL, "secret", "PLANTWATCH")
	if err != nil {
		t.Fatalf("NewSMSGateway: %v", err)
	}
	if !gw.Live() {
		t.Error("real SMS gateway should be live")
	}

	if err := gw.Send(context.Background(), "+15550001111", "sox over limit"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotTo != "+15550001111" || gotBody != "sox over limit" {
		t.Errorf("form = to:%q body:%q", gotTo, gotBody)
	}
}

func TestSMSGateway_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gw, _ := NewSMSGateway(srv.URL, "secret", "PLANTWATCH")
	if err := gw.Send(context.Background(), "+15550001111", "body"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestSMSGateway_RequiresCredentials(t *testing.T) {
	if _, err := NewSMSGateway("", "key", "sender"); err == nil {
		t.Error("expected error for empty endpoint")
	}
	if _, err := NewSMSGateway("http://gw", "", "sender"); err == nil {
		t.Error("expected error for empty api key")
	}
}

func TestChatGateway_Send(t *testing.T) {
	var payload chatPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("unmarshal payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw, err := NewChatGateway(srv.URL)
	if err != nil {
		t.Fatalf("NewChatGateway: %v", err)
	}

	if err := gw.Send(context.Background(), "@ops", "sox over limit"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if payload.MsgType != "text" {
		t.Errorf("msgtype = %q, want text", payload.MsgType)
	}
	if payload.Text.Mention != "@ops" || payload.Text.Content != "sox over limit" {
		t.Errorf("text = %+v", payload.Text)
	}
}

func TestChatGateway_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw, _ := NewChatGateway(srv.URL)
	if err := gw.Send(context.Background(), "@ops", "body"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
