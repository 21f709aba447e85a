package printing

import (
	"nabilpos/internal/domain"
	"nabilpos/internal/journal"
	applog "nabilpos/internal/log"
	"nabilpos/internal/receipt"
)

// Journaled wraps a printer and records every attempt and its outcome in the
// local journal, so failed receipts can be reprinted later.
type Journaled struct {
	Next interface {
		Print(sale *domain.Sale, autoPrint bool, done func(err error))
	}
	Store *journal.Store

	// TxnID supplies the transaction id of the order being printed; nil is
	// fine for reprints.
	TxnID func() string
}

func (p *Journaled) Print(sale *domain.Sale, autoPrint bool, done func(err error)) {
	body, rerr := receipt.Render(sale)
	txn := ""
	if p.TxnID != nil {
		txn = p.TxnID()
	}
	id := ""
	if rerr == nil {
		var err error
		id, err = p.Store.Record(sale, txn, body)
		if err != nil {
			applog.Fail("journal.record", err, map[string]any{"order_number": sale.OrderNumber})
		}
	}

	p.Next.Print(sale, autoPrint, func(err error) {
		if id != "" {
			outcome := "printed"
			if err != nil {
				outcome = "failed"
			}
			if jerr := p.Store.SetOutcome(id, outcome); jerr != nil {
				applog.Fail("journal.outcome", jerr, map[string]any{"job": id})
			}
		}
		if done != nil {
			done(err)
		}
	})
}
