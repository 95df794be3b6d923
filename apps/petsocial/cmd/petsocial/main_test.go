package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petsocial/petsocial/libs/mockapi"
	"github.com/petsocial/petsocial/libs/runtime"
)

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := httptest.NewServer(mockapi.New(mockapi.Config{Logger: runtime.Discard()}).Handler())
	t.Cleanup(srv.Close)
	t.Setenv("PETSOCIAL_STORE_PASSPHRASE", "correct horse battery staple")
	t.Setenv("OTEL_ENABLED", "false")
	store := "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "credentials"))
	return &cli{t: t, base: []string{"-api", srv.URL + "/api", "-store", store, "-log-level", "error"}}
}

func (c *cli) run(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append(append([]string{}, c.base...), args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	code, out, errOut := c.run("", args...)
	if code != 0 {
		c.t.Fatalf("%v exited %d: %s", args, code, errOut)
	}
	return out
}

func TestBookingThroughTheCLI(t *testing.T) {
	c := newCLI(t)
	date := time.Now().UTC().AddDate(0, 0, 2).Format(time.DateOnly)

	if out := c.mustRun("health"); !strings.Contains(out, "backend ok") {
		t.Fatalf("unexpected health output %q", out)
	}
	if code, _, errOut := c.run("", "book", "-business", "1", "-service", "1", "-date", date, "-time", "10:00"); code != 1 || !strings.Contains(errOut, "not signed in") {
		t.Fatalf("booking without a session should fail, got %d %q", code, errOut)
	}

	c.mustRun("login", "-provider", "google", "-code", "ana")
	if out := c.mustRun("-format", "json", "whoami"); !strings.Contains(out, `"provider": "google"`) {
		t.Fatalf("session not persisted: %q", out)
	}

	if out := c.mustRun("times", "-business", "1", "-service", "1", "-date", date); !strings.Contains(out, "10:00") {
		t.Fatalf("unexpected times %q", out)
	}
	if out := c.mustRun("book", "-business", "1", "-service", "1", "-date", date, "-time", "10:00"); !strings.Contains(out, "Banho") {
		t.Fatalf("unexpected booking output %q", out)
	}
	if out := c.mustRun("-format", "yaml", "appointments"); !strings.Contains(out, "service_name: Banho") {
		t.Fatalf("unexpected appointments %q", out)
	}
	if out := c.mustRun("appointments", "-ics", "-"); !strings.Contains(out, "BEGIN:VEVENT") {
		t.Fatalf("calendar export missing event: %q", out)
	}

	if code, _, _ := c.run("n\n", "cancel", "1"); code != 0 {
		t.Fatalf("declined cancel should exit cleanly, got %d", code)
	}
	if out := c.mustRun("-yes", "cancel", "1"); !strings.Contains(out, "cancelled") {
		t.Fatalf("unexpected cancel output %q", out)
	}

	c.mustRun("-yes", "logout")
	if out := c.mustRun("whoami"); !strings.Contains(out, "Not signed in") {
		t.Fatalf("logout did not stick: %q", out)
	}
}

func TestUsageErrors(t *testing.T) {
	c := newCLI(t)
	if code, _, errOut := c.run("", "teleport"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("expected usage error, got %d %q", code, errOut)
	}
	if code, _, _ := c.run(""); code != 2 {
		t.Fatalf("expected usage error without a command, got %d", code)
	}
	if code, _, _ := c.run("", "-format", "xml", "feed"); code != 2 {
		t.Fatalf("expected usage error for bad format, got %d", code)
	}
	if code, _, _ := c.run("", "business", "abc"); code != 1 {
		t.Fatalf("expected error for bad id, got %d", code)
	}
}

func TestStaticScreens(t *testing.T) {
	c := newCLI(t)
	if out := c.mustRun("feed", "-like", "1", "-post", "<b>Oi</b> pessoal"); !strings.Contains(out, "Oi pessoal") || !strings.Contains(out, "♥ 25") {
		t.Fatalf("unexpected feed %q", out)
	}
	if out := c.mustRun("groups", "-discover"); !strings.Contains(out, "Veterinários Online") {
		t.Fatalf("unexpected groups %q", out)
	}
	if out := c.mustRun("chats", "-search", "pedro"); !strings.Contains(out, "typing...") {
		t.Fatalf("unexpected chats %q", out)
	}
	if out := c.mustRun("businesses", "-type", "clinic"); !strings.Contains(out, "Patinhas") {
		t.Fatalf("unexpected businesses %q", out)
	}
	if out := c.mustRun("theme"); !strings.Contains(out, "#1877F2") {
		t.Fatalf("unexpected theme %q", out)
	}
}
