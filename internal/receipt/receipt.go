// Package receipt renders the fixed-width 80mm receipt for a persisted
// sale: restaurant header, item table, VAT summary, totals, payment row and
// order-number footer.
package receipt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nabilpos/internal/domain"
)

// receiptWidth is the printable character width of the 80mm roll.
const receiptWidth = 42

var header = []string{
	"NABIL",
	"HIGHWAY RESTAURANT",
	"Sonka,Vobanipur,Sherpur,Bogura",
	"BIN: 006971563-1106 Mushak:6.3",
	"Mob: 01325-060388",
}

// Render builds the receipt body. The sale must carry at least one item.
func Render(sale *domain.Sale) (string, error) {
	if sale == nil || len(sale.Items) == 0 {
		return "", errors.New("receipt: sale has no items")
	}

	when := parseCreatedAt(sale.CreatedAt)
	var b strings.Builder

	for _, line := range header {
		b.WriteString(center(line))
		b.WriteByte('\n')
	}
	b.WriteString("DATE:" + when.Format("01/02/2006"))
	b.WriteByte('\n')
	biller := "N/A"
	if sale.User != nil && sale.User.Name != "" {
		biller = sale.User.Name
	}
	b.WriteString("Biller: " + biller)
	b.WriteByte('\n')

	b.WriteString(fmt.Sprintf("%-16s%8s%6s%12s\n", "NAME", "PRICE", "QTY", "AMT"))
	for _, it := range sale.Items {
		name := it.Name
		if len(name) > 16 {
			name = name[:16]
		}
		b.WriteString(fmt.Sprintf("%-16s%8.2f%6d%12s\n",
			name, it.Price, it.Quantity, "TK."+fmt.Sprintf("%.2f", it.Subtotal)))
	}

	b.WriteString(strings.Repeat("-", receiptWidth))
	b.WriteByte('\n')
	b.WriteString(summaryRow("TTL.SALE.A", sale.TotalAmount))
	b.WriteString(summaryRow("VAT A 0.00%", 0))
	b.WriteString(summaryRow("VAT TOTAL", 0))
	b.WriteString(summaryRow("TOTAL", sale.TotalAmount))
	b.WriteString(summaryRow(strings.ToUpper(sale.PaymentMethod), sale.TotalAmount))

	orderNo := sale.OrderNumber
	if orderNo == "" {
		orderNo = "N/A"
	}
	b.WriteString(twoEnds(orderNo, when.Format("15:04")))
	b.WriteByte('\n')
	b.WriteString(center("THANK YOU"))
	b.WriteByte('\n')
	return b.String(), nil
}

func summaryRow(label string, amount float64) string {
	return twoEnds(label, fmt.Sprintf("TK.%.2f", amount)) + "\n"
}

func twoEnds(left, right string) string {
	pad := receiptWidth - len(left) - len(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func center(s string) string {
	if len(s) >= receiptWidth {
		return s
	}
	return strings.Repeat(" ", (receiptWidth-len(s))/2) + s
}

// parseCreatedAt tolerates the timestamp formats the backend has been seen
// emitting; an unparseable value falls back to the local clock.
func parseCreatedAt(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Local()
		}
	}
	return time.Now()
}
