package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"offerwall/internal/cpa"
	"offerwall/internal/domain"
	"offerwall/internal/repository"
	"offerwall/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrationsToPool(t *testing.T, dbp *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := dbp.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	dbp, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(dbp.Close)
	applyMigrationsToPool(t, dbp)
	return dbp
}

func createUser(t *testing.T, dbp *pgxpool.Pool, tgID int64, referredBy *int64) *domain.User {
	t.Helper()
	ur := repository.NewUserRepository(dbp)
	u, err := ur.GetByTgID(context.Background(), tgID)
	if err == nil {
		return u
	}
	u = &domain.User{TgID: tgID, Username: "itest", ReferredBy: referredBy}
	if err := ur.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createOfferAndTask(t *testing.T, dbp *pgxpool.Pool, userID int64, payoutNano int64, token string) *domain.Task {
	t.Helper()
	ctx := context.Background()

	or := repository.NewOfferRepository(dbp)
	offer := &domain.Offer{
		Provider: "CPAGRIP", ExternalID: "it-" + token,
		Name: "integration offer", PayoutNano: payoutNano,
		NetworkPayoutCents: 100, TrackingURL: "https://example.test/o",
		IsActive: true,
	}
	if _, err := or.Upsert(ctx, offer); err != nil {
		t.Fatalf("upsert offer: %v", err)
	}

	tr := repository.NewTaskRepository(dbp)
	task := &domain.Task{UserID: userID, OfferID: offer.ID, SessionToken: token, PayoutNano: payoutNano}
	if err := tr.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func balanceOf(t *testing.T, dbp *pgxpool.Pool, userID int64) int64 {
	t.Helper()
	var balance int64
	if err := dbp.QueryRow(context.Background(),
		`SELECT balance_nano FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return balance
}

func TestSettleCreditsOwnerAndReferrers(t *testing.T) {
	dbp := testPool(t)
	ctx := context.Background()

	grandparent := createUser(t, dbp, 20001, nil)
	parent := createUser(t, dbp, 20002, &grandparent.ID)
	owner := createUser(t, dbp, 20003, &parent.ID)

	payout := int64(10 * domain.NanoPerTON)
	task := createOfferAndTask(t, dbp, owner.ID, payout, "settle-chain-1")

	ledger := service.NewLedgerService(dbp)
	settlement := service.NewSettlementService(dbp, ledger, nil)

	before := balanceOf(t, dbp, owner.ID)
	res, err := settlement.Settle(ctx, &cpa.Postback{
		Provider: "CPAGRIP", SessionToken: task.SessionToken,
		Status: cpa.StatusApproved, Raw: map[string]string{"status": "1"},
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.Code != service.SettleOK {
		t.Fatalf("expected OK, got %s", res.Code)
	}

	if got := balanceOf(t, dbp, owner.ID) - before; got != payout {
		t.Fatalf("owner credited %d, want %d", got, payout)
	}
	if got := balanceOf(t, dbp, parent.ID); got < payout/10 {
		t.Fatalf("tier-1 referrer balance %d, want at least %d", got, payout/10)
	}
	if got := balanceOf(t, dbp, grandparent.ID); got < payout*3/100 {
		t.Fatalf("tier-2 referrer balance %d, want at least %d", got, payout*3/100)
	}
}

func TestSettleCommissionStopsAtThreeTiers(t *testing.T) {
	dbp := testPool(t)
	ctx := context.Background()

	// Five-deep referral chain. Only the three nearest ancestors of the
	// task owner earn commission; the fourth and fifth see nothing.
	tier5 := createUser(t, dbp, 20041, nil)
	tier4 := createUser(t, dbp, 20042, &tier5.ID)
	tier3 := createUser(t, dbp, 20043, &tier4.ID)
	tier2 := createUser(t, dbp, 20044, &tier3.ID)
	tier1 := createUser(t, dbp, 20045, &tier2.ID)
	owner := createUser(t, dbp, 20046, &tier1.ID)

	payout := int64(10 * domain.NanoPerTON)
	task := createOfferAndTask(t, dbp, owner.ID, payout, "settle-chain-5")

	ledger := service.NewLedgerService(dbp)
	settlement := service.NewSettlementService(dbp, ledger, nil)

	before := make(map[string]int64)
	for name, u := range map[string]*domain.User{
		"tier1": tier1, "tier2": tier2, "tier3": tier3, "tier4": tier4, "tier5": tier5,
	} {
		before[name] = balanceOf(t, dbp, u.ID)
	}

	res, err := settlement.Settle(ctx, &cpa.Postback{
		Provider: "CPAGRIP", SessionToken: task.SessionToken,
		Status: cpa.StatusApproved, Raw: map[string]string{"status": "1"},
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.Code != service.SettleOK {
		t.Fatalf("expected OK, got %s", res.Code)
	}

	if got := balanceOf(t, dbp, tier1.ID) - before["tier1"]; got != payout/10 {
		t.Fatalf("tier-1 credited %d, want %d", got, payout/10)
	}
	if got := balanceOf(t, dbp, tier2.ID) - before["tier2"]; got != payout*3/100 {
		t.Fatalf("tier-2 credited %d, want %d", got, payout*3/100)
	}
	if got := balanceOf(t, dbp, tier3.ID) - before["tier3"]; got != payout/100 {
		t.Fatalf("tier-3 credited %d, want %d", got, payout/100)
	}
	if got := balanceOf(t, dbp, tier4.ID) - before["tier4"]; got != 0 {
		t.Fatalf("tier-4 balance moved by %d, want untouched", got)
	}
	if got := balanceOf(t, dbp, tier5.ID) - before["tier5"]; got != 0 {
		t.Fatalf("tier-5 balance moved by %d, want untouched", got)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	dbp := testPool(t)
	ctx := context.Background()

	owner := createUser(t, dbp, 20010, nil)
	payout := int64(2 * domain.NanoPerTON)
	task := createOfferAndTask(t, dbp, owner.ID, payout, "settle-idem-1")

	ledger := service.NewLedgerService(dbp)
	settlement := service.NewSettlementService(dbp, ledger, nil)

	pb := &cpa.Postback{
		Provider: "CPAGRIP", SessionToken: task.SessionToken,
		Status: cpa.StatusApproved, Raw: map[string]string{"status": "1"},
	}

	before := balanceOf(t, dbp, owner.ID)
	if _, err := settlement.Settle(ctx, pb); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	res, err := settlement.Settle(ctx, pb)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if res.Code != service.SettleAlreadyProcessed {
		t.Fatalf("expected ALREADY_PROCESSED, got %s", res.Code)
	}
	if got := balanceOf(t, dbp, owner.ID) - before; got != payout {
		t.Fatalf("owner credited %d total after duplicate, want exactly %d", got, payout)
	}
}

func TestSettleConcurrentDuplicatesCreditOnce(t *testing.T) {
	dbp := testPool(t)
	ctx := context.Background()

	owner := createUser(t, dbp, 20020, nil)
	payout := int64(domain.NanoPerTON)
	task := createOfferAndTask(t, dbp, owner.ID, payout, "settle-race-1")

	ledger := service.NewLedgerService(dbp)
	settlement := service.NewSettlementService(dbp, ledger, nil)

	before := balanceOf(t, dbp, owner.ID)

	const workers = 8
	var wg sync.WaitGroup
	okCount := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := settlement.Settle(ctx, &cpa.Postback{
				Provider: "CPAGRIP", SessionToken: task.SessionToken,
				Status: cpa.StatusApproved, Raw: map[string]string{"status": "1"},
			})
			if err == nil {
				okCount <- res.Code
			}
		}()
	}
	wg.Wait()
	close(okCount)

	wins := 0
	for code := range okCount {
		if code == service.SettleOK {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning settlement, got %d", wins)
	}
	if got := balanceOf(t, dbp, owner.ID) - before; got != payout {
		t.Fatalf("owner credited %d under race, want exactly %d", got, payout)
	}
}

func TestConcurrentCreditsNeverLoseUpdates(t *testing.T) {
	dbp := testPool(t)
	ctx := context.Background()

	user := createUser(t, dbp, 20030, nil)
	ledger := service.NewLedgerService(dbp)

	before := balanceOf(t, dbp, user.ID)

	const workers = 16
	const amount = int64(1_000_000)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Credit(ctx, user.ID, amount, domain.TxDailyBonus, "", nil, "race credit"); err != nil {
				t.Errorf("credit: %v", err)
			}
		}()
	}
	wg.Wait()

	want := before + workers*amount
	if got := balanceOf(t, dbp, user.ID); got != want {
		t.Fatalf("balance %d after concurrent credits, want %d", got, want)
	}
}
