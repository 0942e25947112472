package google

import (
	"fmt"
	"strconv"
	"strings"

	"confronto/internal/core"
)

// Accepted header names per column, compared case-insensitively.
var (
	dateHeaders    = []string{"Date"}
	amountHeaders  = []string{"Amount"}
	payeeHeaders   = []string{"Payee", "Description"}
	excludeHeaders = []string{"Exclude From Totals", "exclude_from_totals", "Excluded"}
	incomeHeaders  = []string{"Is Income", "is_income", "Income"}
	idHeaders      = []string{"ID"}
)

type columns struct {
	date, amount, payee, exclude, income, id int
}

// parseTransactions converts a values matrix (as returned by the Sheets API)
// into raw transactions dated within [start, end]. The first row must be a
// header naming at least Date and Amount. Blank rows are skipped; any other
// row that cannot be typed fails the whole read.
func parseTransactions(values [][]interface{}, start, end core.Date) ([]core.RawTransaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := columns{
		date:    indexOfAny(headers, dateHeaders),
		amount:  indexOfAny(headers, amountHeaders),
		payee:   indexOfAny(headers, payeeHeaders),
		exclude: indexOfAny(headers, excludeHeaders),
		income:  indexOfAny(headers, incomeHeaders),
		id:      indexOfAny(headers, idHeaders),
	}
	if cols.date == -1 || cols.amount == -1 {
		var missing []string
		if cols.date == -1 {
			missing = append(missing, "Date")
		}
		if cols.amount == -1 {
			missing = append(missing, "Amount")
		}
		return nil, fmt.Errorf("%w: unexpected header: missing %s; got headers=%v", core.ErrMalformedRecord, strings.Join(missing, ","), headers)
	}

	var out []core.RawTransaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		dateStr := safeGet(row, cols.date)
		amountStr := safeGet(row, cols.amount)
		if dateStr == "" && amountStr == "" {
			continue
		}

		rowNum := i + 1
		date, err := core.ParseRecordDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		amount, err := core.ParseAmount(amountStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		exclude, err := core.ParseFlag(safeGet(row, cols.exclude))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		income, err := core.ParseFlag(safeGet(row, cols.income))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		tx := core.RawTransaction{
			Date:              date.String(),
			Amount:            amount,
			Payee:             safeGet(row, cols.payee),
			ExcludeFromTotals: exclude,
			IsIncome:          income,
		}
		if id, err := strconv.ParseInt(safeGet(row, cols.id), 10, 64); err == nil {
			tx.ID = id
		}
		out = append(out, tx)
	}
	return out, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func indexOfAny(headers []string, names []string) int {
	for _, n := range names {
		for i, h := range headers {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
