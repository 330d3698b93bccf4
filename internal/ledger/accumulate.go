package ledger

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// MonthBucket groups the postings of one calendar month.
type MonthBucket struct {
	Year           int             `json:"year"`
	Month          time.Month      `json:"month"`
	From           time.Time       `json:"fromDate"`
	To             time.Time       `json:"toDate"`
	Postings       []Posting       `json:"postings"`
	TotalDebit     decimal.Decimal `json:"totalDebit"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// Ledger is the result of accumulating postings.
type Ledger struct {
	Ordered []Posting       `json:"ordered"`
	Buckets []MonthBucket   `json:"buckets"`
	Balance decimal.Decimal `json:"balance"`
}

// Accumulate orders postings by date, fills running balances from zero and
// groups them into month buckets, newest month first.
func Accumulate(postings []Posting) Ledger {
	return AccumulateFrom(decimal.Zero, postings)
}

// AccumulateFrom is Accumulate continuing from an opening balance. Folding a
// date-contiguous history in parts yields the same final balance as folding
// it whole.
func AccumulateFrom(opening decimal.Decimal, postings []Posting) Ledger {
	ordered := slices.Clone(postings)
	if ordered == nil {
		ordered = []Posting{}
	}
	// Equal dates keep insertion order.
	slices.SortStableFunc(ordered, func(a, b Posting) int {
		return a.Date.Compare(b.Date)
	})

	balance := opening
	for i := range ordered {
		balance = balance.Add(ordered[i].Net())
		ordered[i].RunningBalance = balance
	}
	return Ledger{Ordered: ordered, Buckets: bucketize(ordered), Balance: balance}
}

type monthKey struct {
	year  int
	month time.Month
}

func bucketize(ordered []Posting) []MonthBucket {
	index := make(map[monthKey]int)
	buckets := []MonthBucket{}
	for _, p := range ordered {
		key := monthKey{p.Date.Year(), p.Date.Month()}
		i, ok := index[key]
		if !ok {
			from := time.Date(key.year, key.month, 1, 0, 0, 0, 0, p.Date.Location())
			buckets = append(buckets, MonthBucket{
				Year:  key.year,
				Month: key.month,
				From:  from,
				To:    from.AddDate(0, 1, -1),
			})
			i = len(buckets) - 1
			index[key] = i
		}
		b := &buckets[i]
		b.Postings = append(b.Postings, p)
		b.TotalDebit = b.TotalDebit.Add(p.Debit)
		b.TotalCredit = b.TotalCredit.Add(p.Credit)
		b.ClosingBalance = p.RunningBalance
	}
	slices.SortStableFunc(buckets, func(a, b MonthBucket) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(b.Month, a.Month)
	})
	return buckets
}
