package validate

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type businessForm struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,brphone"`
	Address string `json:"address" validate:"required,min=10"`
	Type    string `json:"type" validate:"required,oneof=petshop clinic"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(businessForm{Name: "A", Email: "nope", Phone: "123", Address: "short", Type: "zoo"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, f := range []string{"name", "email", "phone", "address", "type"} {
		if verr.Fields[f] == "" {
			t.Fatalf("expected error for %s, got %+v", f, verr.Fields)
		}
	}
	if !strings.Contains(verr.Error(), "type must be one of petshop, clinic") {
		t.Fatalf("unexpected message %q", verr.Error())
	}

	ok := businessForm{
		Name:    "Pet Feliz",
		Email:   "contato@petfeliz.com.br",
		Phone:   "(11) 98765-4321",
		Address: "Rua das Flores, 123",
		Type:    "clinic",
	}
	if err := Struct(ok); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}
}

func TestPhone(t *testing.T) {
	for _, p := range []string{"11987654321", "+55 11 98765-4321", "(21)3456-7890"} {
		if !Phone(p) {
			t.Fatalf("expected %q to be valid", p)
		}
	}
	for _, p := range []string{"", "01987654321", "12345", "+1 555 123 4567"} {
		if Phone(p) {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}

func TestPassword(t *testing.T) {
	if !Password("Secr3t!pw") {
		t.Fatal("expected strong password")
	}
	for _, p := range []string{"Sh0rt!", "alllower1!", "ALLUPPER1!", "NoDigits!!", "NoSymbol12"} {
		if Password(p) {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestHexColorAndURL(t *testing.T) {
	if !HexColor("#1877F2") || HexColor("#fff") || HexColor("1877F2") {
		t.Fatal("unexpected hex color result")
	}
	if !URL("https://cdn.example.com/logo.png") || URL("ftp://x/y") || URL("javascript:alert(1)") || URL("") {
		t.Fatal("unexpected url result")
	}
}

func TestNotPast(t *testing.T) {
	now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local) }
	defer func() { now = time.Now }()

	if err := Field("date", "2026-03-10", "isodate,notpast"); err != nil {
		t.Fatalf("today should be accepted: %v", err)
	}
	err := Field("date", "2026-03-09", "isodate,notpast")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["date"] != "must not be in the past" {
		t.Fatalf("expected past date error, got %v", err)
	}
	if err := Field("date", "10/03/2026", "isodate"); err == nil {
		t.Fatal("expected format error")
	}
}

func TestDetectXSS(t *testing.T) {
	for _, s := range []string{"<script>alert(1)</script>", "JavaScript:void(0)", `<img onerror ="x">`, "<iframe src=x>"} {
		if !DetectXSS(s) {
			t.Fatalf("expected %q to be flagged", s)
		}
	}
	if DetectXSS("Banho e tosa para o Rex") {
		t.Fatal("plain text flagged")
	}
}

func TestGenerateNonce(t *testing.T) {
	a, b := GenerateNonce(), GenerateNonce()
	if len(a) != 32 || a == b {
		t.Fatalf("unexpected nonces %q %q", a, b)
	}
}
