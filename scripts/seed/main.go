package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surveydesk/backoffice/internal/app"
	"github.com/surveydesk/backoffice/internal/ledger"
	"github.com/surveydesk/backoffice/internal/platform/db"
)

var seedNamespace = uuid.MustParse("2d7f4c1e-8b0a-4f7e-a2c9-61e0b5d3f9a4")

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{PingTimeout: 5 * time.Second})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Creating schema...")
	if err := createSchema(ctx, pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	fmt.Println("→ Seeding accounts...")
	accountIDs, err := seedAccounts(ctx, pool)
	if err != nil {
		log.Fatalf("seed accounts: %v", err)
	}

	fmt.Println("→ Seeding users...")
	if err := seedUsers(ctx, pool, accountIDs); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	fmt.Println("→ Seeding surveys and collectors...")
	if err := seedSurveys(ctx, pool, accountIDs); err != nil {
		log.Fatalf("seed surveys: %v", err)
	}

	fmt.Println("→ Seeding ledgers and invoices...")
	sim := ledger.Simulator{
		Seed:   cfg.LedgerSeed,
		Start:  cfg.LedgerStartOrDefault(time.Now()),
		Months: cfg.LedgerMonths,
	}
	if err := seedLedgers(ctx, pool, sim, accountIDs); err != nil {
		log.Fatalf("seed ledgers: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	owner_email TEXT NOT NULL,
	plan        TEXT NOT NULL,
	status      TEXT NOT NULL,
	country     TEXT NOT NULL DEFAULT '',
	seats       INTEGER NOT NULL DEFAULT 1,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL,
	account_id    BIGINT REFERENCES accounts(id),
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS surveys (
	id         UUID PRIMARY KEY,
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	title      TEXT NOT NULL,
	owner      TEXT NOT NULL,
	status     TEXT NOT NULL,
	responses  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	closes_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS collectors (
	id         UUID PRIMARY KEY,
	survey_id  UUID NOT NULL REFERENCES surveys(id),
	name       TEXT NOT NULL DEFAULT '',
	channel    TEXT NOT NULL,
	status     TEXT NOT NULL,
	responses  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS invoices (
	id         BIGSERIAL PRIMARY KEY,
	number     TEXT NOT NULL UNIQUE,
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	status     TEXT NOT NULL,
	total      NUMERIC(14,2) NOT NULL,
	currency   TEXT NOT NULL DEFAULT 'USD',
	issued_at  TIMESTAMPTZ NOT NULL,
	due_at     TIMESTAMPTZ NOT NULL,
	paid_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS ledger_postings (
	seq         BIGSERIAL,
	id          UUID PRIMARY KEY,
	account_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	posted_at   TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	debit       NUMERIC(14,2) NOT NULL DEFAULT 0,
	credit      NUMERIC(14,2) NOT NULL DEFAULT 0,
	CHECK (debit >= 0 AND credit >= 0),
	CHECK ((debit = 0) <> (credit = 0))
);

CREATE INDEX IF NOT EXISTS ledger_postings_account_seq ON ledger_postings (account_id, seq);
`

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// ACCOUNTS & USERS
// =============================================================================

func seedAccounts(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	accounts := []struct {
		name, owner, plan, status, country string
		seats                              int
	}{
		{"Acme Research", "ops@acme.example", "enterprise", "active", "US", 40},
		{"Globex Insights", "billing@globex.example", "team", "past_due", "DE", 12},
		{"Initech Labs", "it@initech.example", "starter", "trialing", "GB", 3},
		{"Umbrella Panels", "cx@umbrella.example", "team", "suspended", "FR", 8},
		{"Hooli Voice", "voice@hooli.example", "enterprise", "active", "US", 65},
		{"Stark Feedback", "pepper@stark.example", "starter", "closed", "US", 1},
	}
	ids := make([]int64, 0, len(accounts))
	for _, a := range accounts {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO accounts (name, owner_email, plan, status, country, seats)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, a.name, a.owner, a.plan, a.status, a.country, a.seats).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, accountIDs []int64) error {
	users := []struct {
		email, name, role string
		account           int
		active            bool
	}{
		{"admin@backoffice.local", "Back Office Admin", "admin", -1, true},
		{"support@backoffice.local", "Support Desk", "support", -1, true},
		{"maria@acme.example", "María Fernández", "owner", 0, true},
		{"jo@globex.example", "Jo Bauer", "owner", 1, true},
		{"sam@initech.example", "Sam Patel", "analyst", 2, true},
		{"lee@umbrella.example", "Lee Martin", "owner", 3, false},
		{"ana@hooli.example", "Ana Ribeiro", "analyst", 4, true},
	}
	for _, u := range users {
		var account *int64
		if u.account >= 0 && u.account < len(accountIDs) {
			account = &accountIDs[u.account]
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO users (email, name, role, account_id, is_active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING`, u.email, u.name, u.role, account, u.active)
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SURVEYS
// =============================================================================

func seedSurveys(ctx context.Context, pool *pgxpool.Pool, accountIDs []int64) error {
	titles := []string{"Customer Satisfaction", "Product Feedback", "Employee Pulse"}
	channels := []string{"web", "email", "sms"}
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for i, accountID := range accountIDs {
			for j, title := range titles[:1+i%len(titles)] {
				surveyID := uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("survey/%d/%d", accountID, j)))
				status := []string{"open", "draft", "closed"}[(i+j)%3]
				_, err := tx.Exec(ctx, `
					INSERT INTO surveys (id, account_id, title, owner, status, responses)
					VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (id) DO NOTHING`, surveyID, accountID, title, "owner-"+strconv.FormatInt(accountID, 10), status, 25*(i+1)*(j+1))
				if err != nil {
					return err
				}
				for k, channel := range channels[:1+j] {
					collectorID := uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("collector/%s/%d", surveyID, k)))
					_, err := tx.Exec(ctx, `
						INSERT INTO collectors (id, survey_id, name, channel, status, responses)
						VALUES ($1, $2, $3, $4, $5, $6)
						ON CONFLICT (id) DO NOTHING`, collectorID, surveyID, strings.ToUpper(channel[:1])+channel[1:]+" collector", channel, status, 10*(k+1))
					if err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// =============================================================================
// LEDGERS & INVOICES
// =============================================================================

func seedLedgers(ctx context.Context, pool *pgxpool.Pool, sim ledger.Simulator, accountIDs []int64) error {
	repo := ledger.NewRepository(pool)
	for _, accountID := range accountIDs {
		key := strconv.FormatInt(accountID, 10)
		postings := sim.Generate(key)
		if err := repo.Insert(ctx, postings); err != nil {
			return fmt.Errorf("account %d: %w", accountID, err)
		}
		if err := seedInvoices(ctx, pool, accountID, postings); err != nil {
			return fmt.Errorf("account %d invoices: %w", accountID, err)
		}
	}
	return nil
}

// seedInvoices issues one invoice per subscription charge.
func seedInvoices(ctx context.Context, pool *pgxpool.Pool, accountID int64, postings []ledger.Posting) error {
	now := time.Now()
	for _, p := range postings {
		if p.Type != ledger.TypeCharge || !strings.HasPrefix(p.Description, "Subscription") {
			continue
		}
		number := fmt.Sprintf("INV-%d-%s", accountID, p.Date.Format("200601"))
		due := p.Date.AddDate(0, 0, 14)
		status := "open"
		var paidAt *time.Time
		if due.Before(now) {
			status = "paid"
			paid := p.Date.AddDate(0, 0, 5)
			paidAt = &paid
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO invoices (number, account_id, status, total, issued_at, due_at, paid_at)
			VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7)
			ON CONFLICT (number) DO NOTHING`, number, accountID, status, p.Debit.String(), p.Date, due, paidAt)
		if err != nil {
			return err
		}
	}
	return nil
}
