package payroll

import (
	"errors"
	"testing"

	"p9e.in/tms/models"
)

func TestBankCode(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"SCB", "014"},
		{"ธนาคารไทยพาณิชย์", "014"},
		{"scb easy", "014"},
		{"KBANK", "004"},
		{"K-BANK", "004"},
		{"ธนาคารกสิกรไทย", "004"},
		{"BBL", "002"},
		{"ธนาคารกรุงเทพ", "002"},
		{"KTB", "006"},
		{"กรุงไทย", "006"},
		{"TTB", "011"},
		{"TMB", "011"},
		{"THANACHART", "011"},
		{"BAY", "025"},
		{"กรุงศรี", "025"},
		{"GSB", "030"},
		{"ออมสิน", "030"},
		{"UOB", "024"},
		{"BAAC", "034"},
		{"ธกส", "034"},
		{"TISCO", "067"},
		{"KKP", "069"},
		{"เกียรตินาคิน", "069"},
		{"CIMB", "022"},
		{"LHBANK", "073"},
	}
	for _, tc := range tests {
		code, err := BankCode(tc.name)
		if err != nil {
			t.Errorf("BankCode(%q): %v", tc.name, err)
			continue
		}
		if code != tc.code {
			t.Errorf("BankCode(%q) = %s, want %s", tc.name, code, tc.code)
		}
	}
}

func TestBankCodeEmptyDefaults(t *testing.T) {
	code, err := BankCode("")
	if err != nil {
		t.Fatalf("empty bank name: %v", err)
	}
	if code != "014" {
		t.Errorf("BankCode(\"\") = %s, want 014", code)
	}
}

func TestBankCodeUnknown(t *testing.T) {
	_, err := BankCode("Bank of Narnia")
	if !errors.Is(err, models.ErrUnknownBank) {
		t.Fatalf("want ErrUnknownBank, got %v", err)
	}
}

func TestAccountDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123-4-56789-0", "1234567890"},
		{" 987 654 321 ", "987654321"},
		{"", "MISSING_ACCOUNT"},
		{"no digits here", "MISSING_ACCOUNT"},
	}
	for _, tc := range tests {
		if got := accountDigits(tc.in); got != tc.want {
			t.Errorf("accountDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateName(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "ก"
	}
	got := truncateName(long)
	if n := len([]rune(got)); n != 50 {
		t.Errorf("truncated to %d runes, want 50", n)
	}
	if truncateName("short") != "short" {
		t.Error("short names must pass through unchanged")
	}
}
