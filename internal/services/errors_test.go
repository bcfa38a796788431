package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"sftpsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRemoteIO, "transfer", "put", "/remote/a.txt", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRemoteIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transfer", "put", "/remote/a.txt", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "", "", "", nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "operation failed") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindLabels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "auth", err: services.Wrap(services.ErrAuth, "transfer", "dial", "", nil), want: "auth"},
		{name: "connection", err: services.Wrap(services.ErrConnection, "transfer", "dial", "", nil), want: "connection"},
		{name: "remote io", err: services.Wrap(services.ErrRemoteIO, "transfer", "get", "", nil), want: "remote_io"},
		{name: "filesystem", err: services.Wrap(services.ErrFilesystem, "upload", "rename", "", nil), want: "filesystem"},
		{name: "delivery", err: services.Wrap(services.ErrDelivery, "mail", "send", "", nil), want: "delivery"},
		{name: "wrapped config", err: fmt.Errorf("load: %w", services.ErrConfiguration), want: "configuration"},
		{name: "plain", err: errors.New("x"), want: "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Kind(tc.err); got != tc.want {
				t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
