package memory

import (
	"context"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
)

// autoCommit 交易外的呼叫：讀取走讀鎖，寫入各自包成一筆交易
type autoCommit struct {
	s *Store
}

func (a autoCommit) GetUnits(ctx context.Context, group domain.BloodGroup) (units int64, found bool, err error) {
	err = a.s.read(ctx, func(tx *txn) error {
		units, found, err = tx.GetUnits(ctx, group)
		return err
	})
	return units, found, err
}

func (a autoCommit) Credit(ctx context.Context, group domain.BloodGroup, units int64) error {
	return a.s.RunInTx(ctx, func(repos usecase.Repositories) error {
		return repos.Inventory().Credit(ctx, group, units)
	})
}

func (a autoCommit) Debit(ctx context.Context, group domain.BloodGroup, units int64) error {
	return a.s.RunInTx(ctx, func(repos usecase.Repositories) error {
		return repos.Inventory().Debit(ctx, group, units)
	})
}

func (a autoCommit) ListAll(ctx context.Context) (out []domain.BloodGroupStock, err error) {
	err = a.s.read(ctx, func(tx *txn) error {
		out, err = tx.ListAll(ctx)
		return err
	})
	return out, err
}

func (a autoCommit) Append(ctx context.Context, tran *domain.Transaction) error {
	return a.s.RunInTx(ctx, func(repos usecase.Repositories) error {
		return repos.Journal().Append(ctx, tran)
	})
}

func (a autoCommit) FindByRef(ctx context.Context, refID string) (out *domain.Transaction, err error) {
	err = a.s.read(ctx, func(tx *txn) error {
		out, err = tx.FindByRef(ctx, refID)
		return err
	})
	return out, err
}

func (a autoCommit) History(ctx context.Context) (out []domain.Transaction, err error) {
	err = a.s.read(ctx, func(tx *txn) error {
		out, err = tx.History(ctx)
		return err
	})
	return out, err
}

func (a autoCommit) Register(ctx context.Context, donor *domain.Donor) error {
	return a.s.RunInTx(ctx, func(repos usecase.Repositories) error {
		return repos.Donors().Register(ctx, donor)
	})
}

func (a autoCommit) FindByID(ctx context.Context, id int64) (out *domain.Donor, err error) {
	err = a.s.read(ctx, func(tx *txn) error {
		out, err = tx.FindByID(ctx, id)
		return err
	})
	return out, err
}

func (a autoCommit) FindByName(ctx context.Context, name string) (out *domain.Donor, err error) {
	err = a.s.read(ctx, func(tx *txn) error {
		out, err = tx.FindByName(ctx, name)
		return err
	})
	return out, err
}

func (a autoCommit) List(ctx context.Context) (out []domain.Donor, err error) {
	err = a.s.read(ctx, func(tx *txn) error {
		out, err = tx.List(ctx)
		return err
	})
	return out, err
}

func (a autoCommit) Delete(ctx context.Context, id int64) (deleted bool, err error) {
	err = a.s.RunInTx(ctx, func(repos usecase.Repositories) error {
		deleted, err = repos.Donors().Delete(ctx, id)
		return err
	})
	return deleted, err
}

var (
	_ usecase.Inventory     = autoCommit{}
	_ usecase.Journal       = autoCommit{}
	_ usecase.DonorRegistry = autoCommit{}
)
