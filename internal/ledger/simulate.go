package ledger

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var simulatedNamespace = uuid.MustParse("6f1c9a52-3f0e-4a8e-9d43-5b1f7c2e8a10")

// Simulator generates a plausible posting history for an account. Output is a
// pure function of Seed, Start, Months and the account id.
type Simulator struct {
	Seed   uint64
	Start  time.Time
	Months int
}

type simRun struct {
	accountID string
	rng       *rand.Rand
	seq       int
	out       []Posting
}

func (r *simRun) cents(min, max int64) decimal.Decimal {
	return decimal.New(min+r.rng.Int64N(max-min+1), -2)
}

func (r *simRun) day(month time.Time, from, to int) time.Time {
	d := from + r.rng.IntN(to-from+1)
	return month.AddDate(0, 0, d-1).Add(time.Duration(9+r.rng.IntN(9)) * time.Hour)
}

func (r *simRun) book(typ PostingType, date time.Time, amount decimal.Decimal, description string) Posting {
	r.seq++
	side, _ := typ.Side()
	p := Posting{
		ID:          uuid.NewSHA1(simulatedNamespace, []byte(fmt.Sprintf("%s/%d", r.accountID, r.seq))),
		AccountID:   r.accountID,
		Type:        typ,
		Date:        date,
		Description: description,
	}
	if side == SideCredit {
		p.Credit = amount
	} else {
		p.Debit = amount
	}
	r.out = append(r.out, p)
	return p
}

// Generate returns postings in booking order, which is not date order: a
// cancellation or refund is booked after the entry it reverses is generated.
func (s Simulator) Generate(accountID string) []Posting {
	h := fnv.New64a()
	_, _ = h.Write([]byte(accountID))
	run := &simRun{accountID: accountID, rng: rand.New(rand.NewPCG(s.Seed, h.Sum64()))}

	months := s.Months
	if months <= 0 {
		months = 12
	}
	start := time.Date(s.Start.Year(), s.Start.Month(), 1, 0, 0, 0, 0, time.UTC)

	run.book(TypeOpeningBalance, start, run.cents(10000, 200000), "Balance carried forward")
	plan := run.cents(1900, 29900)

	for m := range months {
		month := start.AddDate(0, m, 0)
		run.book(TypeCharge, run.day(month, 1, 1), plan, fmt.Sprintf("Subscription %s", month.Format("Jan 2006")))

		extra := run.rng.IntN(3)
		for i := range extra {
			c := run.book(TypeCharge, run.day(month, 5, 25), run.cents(500, 9900), fmt.Sprintf("Response pack %d", i+1))
			if run.rng.IntN(5) == 0 {
				run.book(TypeChargeCancellation, c.Date.Add(48*time.Hour), c.Debit, "Cancelled: "+c.Description)
			}
		}

		paid := run.book(TypePayment, run.day(month, 3, 10), plan.Add(run.cents(0, 5000)), "Card payment")
		if over := paid.Credit.Sub(plan); run.rng.IntN(8) == 0 && over.IsPositive() {
			run.book(TypeRefund, paid.Date.Add(72*time.Hour), over, "Overpayment refund")
		}

		switch run.rng.IntN(10) {
		case 0:
			run.book(TypeFee, run.day(month, 15, 20), decimal.New(1500, -2), "Late payment fee")
		case 1:
			run.book(TypePromotion, run.day(month, 1, 5), run.cents(1000, 5000), "Loyalty promotion")
		case 2:
			run.book(TypeCredit, run.day(month, 10, 20), run.cents(500, 2500), "Service credit")
		case 3:
			run.book(TypeDebit, run.day(month, 10, 20), run.cents(500, 2500), "Manual adjustment")
		}
	}
	return run.out
}

// Source supplies the postings of one account.
type Source interface {
	Postings(ctx context.Context, accountID string) ([]Posting, error)
}

// SimulatedStore serves simulator output as a posting source.
type SimulatedStore struct {
	sim Simulator
}

// NewSimulatedStore constructs a SimulatedStore.
func NewSimulatedStore(sim Simulator) *SimulatedStore {
	return &SimulatedStore{sim: sim}
}

// Postings implements Source.
func (s *SimulatedStore) Postings(ctx context.Context, accountID string) ([]Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.sim.Generate(accountID), nil
}
