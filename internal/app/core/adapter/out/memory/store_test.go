package memory

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-blood-ledger/pkg/wal"
)

var day = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestCreditCreatesRowThenAccumulates(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(nil)
	require.NoError(t, err)

	_, found, err := s.Inventory().GetUnits(ctx, domain.BloodGroupBNeg)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Inventory().Credit(ctx, domain.BloodGroupBNeg, 2))
	require.NoError(t, s.Inventory().Credit(ctx, domain.BloodGroupBNeg, 3))

	units, found, err := s.Inventory().GetUnits(ctx, domain.BloodGroupBNeg)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(5), units)
}

func TestDebit_UnknownGroupCreatesNoRow(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(nil)

	err := s.Inventory().Debit(ctx, domain.BloodGroupAPos, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownBloodGroup)

	all, err := s.Inventory().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCredit_OverflowRejected(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(nil)

	require.NoError(t, s.Inventory().Credit(ctx, domain.BloodGroupOPos, math.MaxInt64))
	err := s.Inventory().Credit(ctx, domain.BloodGroupOPos, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	units, _, _ := s.Inventory().GetUnits(ctx, domain.BloodGroupOPos)
	assert.Equal(t, int64(math.MaxInt64), units)
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(nil)
	require.NoError(t, s.Inventory().Credit(ctx, domain.BloodGroupOPos, 5))

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(repos usecase.Repositories) error {
		if err := repos.Inventory().Debit(ctx, domain.BloodGroupOPos, 3); err != nil {
			return err
		}
		tran := &domain.Transaction{Name: "x", BloodGroup: domain.BloodGroupOPos, Units: 3, Date: day, Type: domain.TransactionTypeRequest}
		if err := repos.Journal().Append(ctx, tran); err != nil {
			return err
		}
		// 交易內看得到自己的異動
		units, _, _ := repos.Inventory().GetUnits(ctx, domain.BloodGroupOPos)
		assert.Equal(t, int64(2), units)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	units, _, _ := s.Inventory().GetUnits(ctx, domain.BloodGroupOPos)
	assert.Equal(t, int64(5), units)
	history, _ := s.Journal().History(ctx)
	assert.Empty(t, history)
}

func TestConcurrentDebits_NeverNegative(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(nil)
	require.NoError(t, s.Inventory().Credit(ctx, domain.BloodGroupOPos, 20))

	var success atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Inventory().Debit(ctx, domain.BloodGroupOPos, 1)
			if err == nil {
				success.Add(1)
				return
			}
			if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), success.Load())
	units, _, _ := s.Inventory().GetUnits(ctx, domain.BloodGroupOPos)
	assert.Equal(t, int64(0), units)
}

func TestDonors_FirstMatchAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStore(nil)

	first := &domain.Donor{Name: "Sam", BloodGroup: domain.BloodGroupAPos, Contact: "1", LastDonationDate: day}
	second := &domain.Donor{Name: "Sam", BloodGroup: domain.BloodGroupONeg, Contact: "2", LastDonationDate: day}
	other := &domain.Donor{Name: "Ann", BloodGroup: domain.BloodGroupBPos, Contact: "3", LastDonationDate: day}
	require.NoError(t, s.Donors().Register(ctx, first))
	require.NoError(t, s.Donors().Register(ctx, second))
	require.NoError(t, s.Donors().Register(ctx, other))

	got, err := s.Donors().FindByName(ctx, "Sam")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	list, _ := s.Donors().List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, "Ann", list[0].Name)

	deleted, err := s.Donors().Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Donors().Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, _ = s.Donors().FindByName(ctx, "Sam")
	assert.Equal(t, second.ID, got.ID)
}

func TestRecoverFromWAL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := wal.Open(path)
	require.NoError(t, err)
	s, err := NewStore(w)
	require.NoError(t, err)

	donor := &domain.Donor{Name: "Carl", BloodGroup: domain.BloodGroupBNeg, Contact: "555-1234", LastDonationDate: day}
	require.NoError(t, s.Donors().Register(ctx, donor))
	require.NoError(t, s.RunInTx(ctx, func(repos usecase.Repositories) error {
		if err := repos.Inventory().Credit(ctx, domain.BloodGroupBNeg, 2); err != nil {
			return err
		}
		return repos.Journal().Append(ctx, &domain.Transaction{
			RefID: "ref-1", Name: "Carl", BloodGroup: domain.BloodGroupBNeg, Units: 2, Date: day, Type: domain.TransactionTypeDonation,
		})
	}))
	// 失敗的交易不應寫入 WAL
	_ = s.Inventory().Debit(ctx, domain.BloodGroupBNeg, 99)
	require.NoError(t, w.Close())

	w, err = wal.Open(path)
	require.NoError(t, err)
	defer w.Close()
	restored, err := NewStore(w)
	require.NoError(t, err)

	units, found, _ := restored.Inventory().GetUnits(ctx, domain.BloodGroupBNeg)
	assert.True(t, found)
	assert.Equal(t, int64(2), units)

	history, _ := restored.Journal().History(ctx)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TransactionTypeDonation, history[0].Type)
	assert.True(t, history[0].Date.Equal(day))

	prev, _ := restored.Journal().FindByRef(ctx, "ref-1")
	require.NotNil(t, prev)

	// ID 接續
	next := &domain.Donor{Name: "Dee", BloodGroup: domain.BloodGroupAPos, Contact: "x", LastDonationDate: day}
	require.NoError(t, restored.Donors().Register(ctx, next))
	assert.Equal(t, donor.ID+1, next.ID)
}

func TestRequest_WALFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	s, err := NewStore(w)
	require.NoError(t, err)
	require.NoError(t, s.Inventory().Credit(ctx, domain.BloodGroupOPos, 5))

	core := usecase.NewCoreUseCase(s, s)
	require.NoError(t, w.Close())

	_, err = core.Request(ctx, usecase.RequestCommand{Requester: "Hospital", BloodGroup: domain.BloodGroupOPos, Units: 3})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	units, _, _ := s.Inventory().GetUnits(ctx, domain.BloodGroupOPos)
	assert.Equal(t, int64(5), units)
	history, _ := s.Journal().History(ctx)
	assert.Empty(t, history)
}

func TestVerifyAdmin(t *testing.T) {
	s, _ := NewStore(nil)
	s.SetAdmin("admin", "secret")

	ok, err := s.VerifyAdmin(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.VerifyAdmin(context.Background(), "admin", "nope")
	assert.False(t, ok)
}
