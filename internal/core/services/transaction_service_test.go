package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"remitgate/internal/adapters/persistence/repositories"
	"remitgate/internal/core/domain"
	"remitgate/internal/pkg/jwt"
	"remitgate/internal/pkg/password"
	"remitgate/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txFixture struct {
	db      *gorm.DB
	svc     *TransactionService
	stats   *StatisticsService
	auditor *testutil.RecordingAuditor
}

func newTxFixture(t *testing.T) *txFixture {
	t.Helper()

	db := testutil.NewDB(t)
	auditor := &testutil.RecordingAuditor{}
	repo := repositories.NewTransactionRepository(db)
	return &txFixture{
		db:      db,
		svc:     NewTransactionService(repo, auditor, testutil.Log()),
		stats:   NewStatisticsService(repo, testutil.Log()),
		auditor: auditor,
	}
}

func approve(id string) *VerifyInput {
	return &VerifyInput{TransactionID: id, Approve: true}
}

func TestVerifyLimitEnforcement(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	actor := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith", testutil.WithLimit("100000")).Context()

	big := testutil.CreateTransaction(t, f.db, "150000", domain.StatusPending)
	if _, err := f.svc.Verify(ctx, actor, approve(big.ID)); !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected limit exceeded, got %v", err)
	}
	if got := testutil.Reload(t, f.db, big.ID); got.Status != domain.StatusPending || got.VerifiedBy != nil {
		t.Fatalf("transaction must be unchanged, got %+v", got)
	}
	if f.auditor.Count(domain.AuditTxLimitExceeded) != 1 {
		t.Fatal("expected a limit exceeded event")
	}

	small := testutil.CreateTransaction(t, f.db, "99999.99", domain.StatusPending)
	tx, err := f.svc.Verify(ctx, actor, approve(small.ID))
	if err != nil {
		t.Fatalf("approve under limit: %v", err)
	}
	if tx.Status != domain.StatusVerified || tx.VerifiedAt == nil {
		t.Fatalf("unexpected result %+v", tx)
	}
	got := testutil.Reload(t, f.db, small.ID)
	if got.Status != domain.StatusVerified || got.VerifiedBy == nil || *got.VerifiedBy != actor.ID {
		t.Fatalf("unexpected stored row %+v", got)
	}

	// rejecting needs no limit
	if _, err := f.svc.Verify(ctx, actor, &VerifyInput{TransactionID: big.ID}); err != nil {
		t.Fatalf("reject over limit: %v", err)
	}
}

func TestVerifySupervisorBypassesLimit(t *testing.T) {
	f := newTxFixture(t)
	for _, role := range []domain.Role{domain.RoleSupervisor, domain.RoleAdmin} {
		actor := domain.EmployeeContext{ID: 7, EmployeeID: "SUP001", Role: role, VerificationLimit: decimal.Zero}
		tx := testutil.CreateTransaction(t, f.db, "150000", domain.StatusPending)
		if _, err := f.svc.Verify(context.Background(), actor, approve(tx.ID)); err != nil {
			t.Fatalf("%s approve: %v", role, err)
		}
	}
}

func TestVerifyTwiceIsInvalidState(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	actor := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith").Context()

	for _, first := range []bool{true, false} {
		tx := testutil.CreateTransaction(t, f.db, "500", domain.StatusPending)
		if _, err := f.svc.Verify(ctx, actor, &VerifyInput{TransactionID: tx.ID, Approve: first}); err != nil {
			t.Fatalf("first verify: %v", err)
		}
		for _, second := range []bool{true, false} {
			if _, err := f.svc.Verify(ctx, actor, &VerifyInput{TransactionID: tx.ID, Approve: second}); !errors.Is(err, domain.ErrInvalidState) {
				t.Fatalf("second verify (%v after %v): expected invalid state, got %v", second, first, err)
			}
		}
	}
}

func TestVerifyConcurrentExactlyOneWins(t *testing.T) {
	f := newTxFixture(t)
	a := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith").Context()
	b := testutil.CreateEmployee(t, f.db, "EMP002", "mdoe").Context()
	tx := testutil.CreateTransaction(t, f.db, "500", domain.StatusPending)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		conflict int
	)
	for i, actor := range []domain.EmployeeContext{a, b, a, b} {
		wg.Add(1)
		go func(actor domain.EmployeeContext, approve bool) {
			defer wg.Done()
			_, err := f.svc.Verify(context.Background(), actor, &VerifyInput{TransactionID: tx.ID, Approve: approve})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrInvalidState):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(actor, i%2 == 0)
	}
	wg.Wait()

	if wins != 1 || conflict != 3 {
		t.Fatalf("expected 1 win and 3 conflicts, got %d and %d", wins, conflict)
	}
}

func TestVerifyRejectNotes(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	actor := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith").Context()

	tx := testutil.CreateTransaction(t, f.db, "500", domain.StatusPending)
	if _, err := f.svc.Verify(ctx, actor, &VerifyInput{TransactionID: tx.ID}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	got := testutil.Reload(t, f.db, tx.ID)
	if got.Status != domain.StatusRejected || got.RejectionReason != domain.DefaultRejectionReason {
		t.Fatalf("unexpected rejected row %+v", got)
	}

	long := strings.Repeat("é", domain.MaxRejectionReasonLength+1)
	other := testutil.CreateTransaction(t, f.db, "500", domain.StatusPending)
	_, err := f.svc.Verify(ctx, actor, &VerifyInput{TransactionID: other.ID, Notes: &long})
	var fe *domain.FieldError
	if !errors.As(err, &fe) || fe.Field != "notes" {
		t.Fatalf("expected notes field error, got %v", err)
	}

	exact := strings.Repeat("é", domain.MaxRejectionReasonLength)
	if _, err := f.svc.Verify(ctx, actor, &VerifyInput{TransactionID: other.ID, Notes: &exact}); err != nil {
		t.Fatalf("500 character reason: %v", err)
	}

	if _, err := f.svc.Verify(ctx, actor, approve("missing")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitBatchAllOrNothing(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	actor := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith").Context()

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, testutil.CreateTransaction(t, f.db, "100", domain.StatusVerified).ID)
	}
	pending := testutil.CreateTransaction(t, f.db, "100", domain.StatusPending)
	ids = append(ids, pending.ID)

	_, err := f.svc.SubmitBatch(ctx, actor, ids, "")
	if !errors.Is(err, domain.ErrPartialBatchInvalid) {
		t.Fatalf("expected partial batch invalid, got %v", err)
	}
	var be *domain.BatchError
	if !errors.As(err, &be) || len(be.InvalidIDs) != 1 || be.InvalidIDs[0] != pending.ID {
		t.Fatalf("unexpected batch error %v", err)
	}
	for i, id := range ids {
		want := domain.StatusVerified
		if i == 3 {
			want = domain.StatusPending
		}
		if got := testutil.Reload(t, f.db, id); got.Status != want || got.BatchID != nil {
			t.Fatalf("transaction %s mutated: %+v", id, got)
		}
	}
	if f.auditor.Count(domain.AuditTxSubmitted) != 0 || f.auditor.Count(domain.AuditTxBatchRejected) != 1 {
		t.Fatalf("unexpected audit trail %+v", f.auditor.Events())
	}
}

func TestSubmitBatch(t *testing.T) {
	f := newTxFixture(t)
	ctx := context.Background()
	actor := testutil.CreateEmployee(t, f.db, "EMP001", "jsmith").Context()

	a := testutil.CreateTransaction(t, f.db, "100.25", domain.StatusVerified)
	b := testutil.CreateTransaction(t, f.db, "200.50", domain.StatusVerified)

	summary, err := f.svc.SubmitBatch(ctx, actor, []string{a.ID, b.ID}, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Count != 2 || !summary.TotalAmount.Equal(decimal.RequireFromString("300.75")) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, id := range []string{a.ID, b.ID} {
		got := testutil.Reload(t, f.db, id)
		if got.Status != domain.StatusProcessing || got.BatchID == nil || *got.BatchID != summary.BatchID || got.SubmittedAt == nil {
			t.Fatalf("unexpected row %+v", got)
		}
	}
	if f.auditor.Count(domain.AuditTxSubmitted) != 2 {
		t.Fatal("expected one submitted event per transaction")
	}

	if _, err := f.svc.SubmitBatch(ctx, actor, []string{a.ID}, ""); !errors.Is(err, domain.ErrPartialBatchInvalid) {
		t.Fatalf("resubmit: expected partial batch invalid, got %v", err)
	}
}

func TestSubmitBatchValidation(t *testing.T) {
	f := newTxFixture(t)
	actor := domain.EmployeeContext{ID: 1, EmployeeID: "EMP001", Role: domain.RoleEmployee}

	tooMany := make([]string, domain.MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = strings.Repeat("x", i+1)
	}
	cases := map[string][]string{
		"empty":     nil,
		"too many":  tooMany,
		"duplicate": {"a", "a"},
		"blank id":  {"a", " "},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SubmitBatch(context.Background(), actor, ids, "")
			var fe *domain.FieldError
			if !errors.As(err, &fe) || fe.Field != "transaction_ids" {
				t.Fatalf("expected transaction_ids field error, got %v", err)
			}
		})
	}
}

func TestStatistics(t *testing.T) {
	f := newTxFixture(t)
	testutil.CreateTransaction(t, f.db, "500", domain.StatusPending)
	testutil.CreateTransaction(t, f.db, "250.50", domain.StatusVerified)
	testutil.CreateTransaction(t, f.db, "100", domain.StatusRejected)

	stats, err := f.stats.Statistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Total != 3 || stats.TodayCount != 3 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if !stats.TodayAmount.Equal(decimal.RequireFromString("850.50")) {
		t.Fatalf("unexpected amount %s", stats.TodayAmount)
	}
	if len(stats.ByStatus) != len(domain.AllStatuses) || stats.ByStatus[domain.StatusCompleted] != 0 || stats.ByStatus[domain.StatusPending] != 1 {
		t.Fatalf("unexpected by-status %v", stats.ByStatus)
	}
	if stats.DayStart.Hour() != 0 || stats.DayStart.Location() != time.UTC {
		t.Fatalf("unexpected day start %v", stats.DayStart)
	}
}

func TestLoginVerifySubmitScenario(t *testing.T) {
	db := testutil.NewDB(t)
	auditor := &testutil.RecordingAuditor{}
	tokens := jwt.NewManager(jwt.Config{AccessSecret: "a", RefreshSecret: "r", Issuer: "remitgate-auth", Audience: "remitgate-staff"})
	auth := NewAuthService(repositories.NewEmployeeRepository(db), password.NewHasher(testutil.FastHashParams, 1),
		tokens, auditor, DefaultLockoutPolicy, testutil.Log())
	txs := NewTransactionService(repositories.NewTransactionRepository(db), auditor, testutil.Log())
	ctx := context.Background()

	testutil.CreateEmployee(t, db, "EMP001", "jsmith")
	tx := testutil.CreateTransaction(t, db, "500", domain.StatusPending)

	resp, err := auth.Login(ctx, &LoginInput{Username: "jsmith", EmployeeID: "EMP001", Password: "Demo123!@#"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	actor, err := auth.Authenticate(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	verified, err := txs.Verify(ctx, actor, approve(tx.ID))
	if err != nil || verified.Status != domain.StatusVerified {
		t.Fatalf("verify: %v %+v", err, verified)
	}

	summary, err := txs.SubmitBatch(ctx, actor, []string{tx.ID}, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Count != 1 || testutil.Reload(t, db, tx.ID).Status != domain.StatusProcessing {
		t.Fatalf("expected PROCESSING after submit, got %+v", summary)
	}
}
