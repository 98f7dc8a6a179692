package records

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"entries": KindEntries,
		"task":    KindTasks,
		"events":  KindEvents,
		"tx":      KindTransactions,
	} {
		got, err := ParseKind(in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseKind("notes"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestTransactionSigned(t *testing.T) {
	tx := Transaction{Amount: decimal.RequireFromString("12.50"), Type: Expense}
	if !tx.Signed().Equal(decimal.RequireFromString("-12.50")) {
		t.Errorf("expense should be negative, got %s", tx.Signed())
	}
	tx.Type = Income
	if !tx.Signed().Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("income should be positive, got %s", tx.Signed())
	}
}

func TestTransactionValidate(t *testing.T) {
	base := Transaction{
		Description: "Coffee",
		Amount:      decimal.NewFromInt(4),
		Type:        Expense,
		Category:    "Food",
		Date:        time.Now(),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	bad := base
	bad.Type = "refund"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown type")
	}

	bad = base
	bad.Amount = decimal.NewFromInt(-1)
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative amount")
	}

	bad = base
	bad.Date = time.Time{}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing date")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Work", " #work", "", "Family", "family "})
	want := []string{"work", "family"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags = %v, want %v", got, want)
	}
}
