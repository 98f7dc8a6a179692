package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

func financeTools(deps *Dependencies) []tool {
	return []tool{
		{
			def: mcp.NewTool("journal_add_transaction",
				mcp.WithDescription("Record an income or expense. The amount is a positive magnitude; type decides the sign."),
				mcp.WithString("description", mcp.Required(), mcp.Description("What the money was for")),
				mcp.WithString("amount", mcp.Required(), mcp.Description("Amount as a decimal string, e.g. 12.50")),
				mcp.WithString("type", mcp.Required(), mcp.Description("income or expense"), mcp.Enum("income", "expense")),
				mcp.WithString("category", mcp.Description("Category such as food or salary (default other)")),
				mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD (default today)")),
			),
			handler: deps.addTransaction,
		},
		{
			def: mcp.NewTool("journal_finance_summary",
				mcp.WithDescription("Summarize income, expenses and net balance, with totals per category. Defaults to the current month."),
				mcp.WithString("month", mcp.Description("Month as YYYY-MM")),
				mcp.WithString("from", mcp.Description("First day to include (YYYY-MM-DD); overrides month")),
				mcp.WithString("to", mcp.Description("Last day to include (YYYY-MM-DD); overrides month")),
			),
			handler: deps.financeSummary,
		},
	}
}

// amountArg accepts the amount as a string or a JSON number
func amountArg(args map[string]any) (decimal.Decimal, error) {
	switch v := args["amount"].(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q", v)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case nil:
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	return decimal.Zero, fmt.Errorf("invalid amount %v", args["amount"])
}

func (d *Dependencies) addTransaction(ctx context.Context, args map[string]any) (string, error) {
	amount, err := amountArg(args)
	if err != nil {
		return "", err
	}
	category := strings.ToLower(stringArg(args, "category"))
	if category == "" {
		category = "other"
	}
	date, ok, err := dateArg(args, "date", d.location())
	if err != nil {
		return "", err
	}
	if !ok {
		date = d.now()
	}

	tx := records.Transaction{
		ID:          d.newID(),
		Description: stringArg(args, "description"),
		Amount:      amount,
		Type:        records.TransactionType(strings.ToLower(stringArg(args, "type"))),
		Category:    category,
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}
	if err := store.Save(ctx, d.Gateway, records.KindTransactions, []records.Transaction{tx}); err != nil {
		return "", fmt.Errorf("failed to save transaction: %w", err)
	}
	d.changed("journal_add_transaction", records.KindTransactions, tx.ID,
		fmt.Sprintf("%s %s: %s", tx.Type, tx.Amount.StringFixed(2), tx.Description))
	return fmt.Sprintf("Recorded %s of %s for %s (ID: %s)", tx.Type, tx.Amount.StringFixed(2), tx.Description, tx.ID), nil
}

// Summary totals transactions over a period
type Summary struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Count      int               `json:"count"`
	Income     string            `json:"income"`
	Expense    string            `json:"expense"`
	Net        string            `json:"net"`
	ByCategory map[string]string `json:"by_category"`
}

// Summarize totals txs dated in [from, to). Category values are signed.
func Summarize(txs []records.Transaction, from, to time.Time) Summary {
	income, expense := decimal.Zero, decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	count := 0
	for _, tx := range txs {
		if tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		count++
		if tx.Type == records.Income {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Signed())
	}

	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	out := make(map[string]string, len(cats))
	for _, c := range cats {
		out[c] = byCategory[c].StringFixed(2)
	}

	return Summary{
		From:       from.Format("2006-01-02"),
		To:         to.AddDate(0, 0, -1).Format("2006-01-02"),
		Count:      count,
		Income:     income.StringFixed(2),
		Expense:    expense.StringFixed(2),
		Net:        income.Sub(expense).StringFixed(2),
		ByCategory: out,
	}
}

func (d *Dependencies) financeSummary(ctx context.Context, args map[string]any) (string, error) {
	from, to, err := d.period(args)
	if err != nil {
		return "", err
	}
	txs, err := store.Load[records.Transaction](ctx, d.Gateway, records.KindTransactions)
	if err != nil {
		return "", fmt.Errorf("failed to load transactions: %w", err)
	}
	return toJSON(Summarize(txs, from, to))
}

// period resolves the summary range as [from, to)
func (d *Dependencies) period(args map[string]any) (time.Time, time.Time, error) {
	loc := d.location()
	from, hasFrom, err := dateArg(args, "from", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, hasTo, err := dateArg(args, "to", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if hasFrom || hasTo {
		if !hasFrom {
			from = time.Time{}
		}
		if !hasTo {
			to = d.now().In(loc)
		}
		to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		if !to.After(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("from must not be after to")
		}
		return from, to, nil
	}

	month := d.now().In(loc)
	if s := stringArg(args, "month"); s != "" {
		month, err = time.ParseInLocation("2006-01", s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
		}
	}
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}
