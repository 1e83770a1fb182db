package memory

import (
	"context"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
)

// txn 交易中的暫存視圖：讀取時先看本交易的異動，再看已 commit 狀態
// 呼叫端必須持有 Store 的鎖
type txn struct {
	s *Store

	stock   map[domain.BloodGroup]int64
	donors  []domain.Donor
	deleted map[int64]bool
	txns    []domain.Transaction

	lastDonorID int64
	lastTxnID   int64
}

func newTxn(s *Store) *txn {
	return &txn{
		s:           s,
		stock:       make(map[domain.BloodGroup]int64),
		deleted:     make(map[int64]bool),
		lastDonorID: s.lastDonorID,
		lastTxnID:   s.lastTxnID,
	}
}

func (t *txn) batch() *batch {
	b := &batch{
		Stock:        t.stock,
		Donors:       t.donors,
		Transactions: t.txns,
	}
	for id := range t.deleted {
		b.Deleted = append(b.Deleted, id)
	}
	return b
}

func (t *txn) Inventory() usecase.Inventory { return t }
func (t *txn) Journal() usecase.Journal { return t }
func (t *txn) Donors() usecase.DonorRegistry { return t }

// ---- Inventory ----

func (t *txn) GetUnits(ctx context.Context, group domain.BloodGroup) (int64, bool, error) {
	if units, ok := t.stock[group]; ok {
		return units, true, nil
	}
	units, ok := t.s.stock[group]
	return units, ok, nil
}

func (t *txn) Credit(ctx context.Context, group domain.BloodGroup, units int64) error {
	current, _, _ := t.GetUnits(ctx, group)
	stock := domain.NewBloodGroupStock(group, current)
	if err := stock.Credit(units); err != nil {
		return err
	}
	t.stock[group] = stock.UnitsAvailable
	return nil
}

func (t *txn) Debit(ctx context.Context, group domain.BloodGroup, units int64) error {
	current, found, _ := t.GetUnits(ctx, group)
	if !found {
		return domain.ErrUnknownBloodGroup
	}
	stock := domain.NewBloodGroupStock(group, current)
	if err := stock.Debit(units); err != nil {
		return err
	}
	t.stock[group] = stock.UnitsAvailable
	return nil
}

func (t *txn) ListAll(ctx context.Context) ([]domain.BloodGroupStock, error) {
	merged := make(map[domain.BloodGroup]int64, len(t.s.stock)+len(t.stock))
	for group, units := range t.s.stock {
		merged[group] = units
	}
	for group, units := range t.stock {
		merged[group] = units
	}
	out := make([]domain.BloodGroupStock, 0, len(merged))
	for group, units := range merged {
		out = append(out, domain.BloodGroupStock{BloodGroup: group, UnitsAvailable: units})
	}
	domain.SortStock(out)
	return out, nil
}

// ---- Journal ----

func (t *txn) Append(ctx context.Context, tran *domain.Transaction) error {
	if tran.RefID != "" {
		prev, _ := t.FindByRef(ctx, tran.RefID)
		if prev != nil {
			return domain.ErrDuplicateRequest
		}
	}
	t.lastTxnID++
	tran.ID = t.lastTxnID
	t.txns = append(t.txns, *tran)
	return nil
}

func (t *txn) FindByRef(ctx context.Context, refID string) (*domain.Transaction, error) {
	for i := range t.txns {
		if t.txns[i].RefID == refID {
			tran := t.txns[i]
			return &tran, nil
		}
	}
	if idx, ok := t.s.refs[refID]; ok {
		tran := t.s.txns[idx]
		return &tran, nil
	}
	return nil, nil
}

func (t *txn) History(ctx context.Context) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(t.s.txns)+len(t.txns))
	out = append(out, t.s.txns...)
	out = append(out, t.txns...)
	domain.SortHistory(out)
	return out, nil
}

// ---- DonorRegistry ----

func (t *txn) Register(ctx context.Context, donor *domain.Donor) error {
	t.lastDonorID++
	donor.ID = t.lastDonorID
	t.donors = append(t.donors, *donor)
	return nil
}

func (t *txn) FindByID(ctx context.Context, id int64) (*domain.Donor, error) {
	for _, d := range t.visibleDonors() {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, nil
}

func (t *txn) FindByName(ctx context.Context, name string) (*domain.Donor, error) {
	var found *domain.Donor
	for _, d := range t.visibleDonors() {
		if d.Name != name {
			continue
		}
		if found == nil || d.ID < found.ID {
			found = &d
		}
	}
	return found, nil
}

func (t *txn) List(ctx context.Context) ([]domain.Donor, error) {
	out := t.visibleDonors()
	domain.SortDonors(out)
	return out, nil
}

func (t *txn) Delete(ctx context.Context, id int64) (bool, error) {
	for i := range t.donors {
		if t.donors[i].ID == id {
			t.donors = append(t.donors[:i], t.donors[i+1:]...)
			return true, nil
		}
	}
	if _, ok := t.s.donors[id]; ok && !t.deleted[id] {
		t.deleted[id] = true
		return true, nil
	}
	return false, nil
}

func (t *txn) visibleDonors() []domain.Donor {
	out := make([]domain.Donor, 0, len(t.s.donors)+len(t.donors))
	for id, d := range t.s.donors {
		if !t.deleted[id] {
			out = append(out, d)
		}
	}
	return append(out, t.donors...)
}

var _ usecase.Repositories = (*txn)(nil)
