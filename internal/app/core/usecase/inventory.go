package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
)

// InventoryLedger 是各血型庫存的唯一權威
type InventoryLedger struct {
	store  Store
	logger *zap.Logger
}

func NewInventoryLedger(store Store, opts ...Option) *InventoryLedger {
	o := newOptions(opts)
	return &InventoryLedger{
		store:  store,
		logger: o.logger,
	}
}

// GetUnits 取得血型庫存，found=false 表示尚無紀錄
func (l *InventoryLedger) GetUnits(ctx context.Context, group domain.BloodGroup) (int64, bool, error) {
	if !group.Valid() {
		return 0, false, domain.ErrInvalidBloodGroup
	}
	return l.store.Inventory().GetUnits(ctx, group)
}

// Credit 增加庫存，沒有紀錄時建立
func (l *InventoryLedger) Credit(ctx context.Context, group domain.BloodGroup, units int64) error {
	if err := creditStock(ctx, l.store.Inventory(), group, units); err != nil {
		return err
	}
	l.logger.Debug("stock credited", zap.Stringer("blood_group", group), zap.Int64("units", units))
	return nil
}

// Debit 扣減庫存，全部或全不
func (l *InventoryLedger) Debit(ctx context.Context, group domain.BloodGroup, units int64) error {
	if err := debitStock(ctx, l.store.Inventory(), group, units); err != nil {
		return err
	}
	l.logger.Debug("stock debited", zap.Stringer("blood_group", group), zap.Int64("units", units))
	return nil
}

// ListAll 庫存快照
func (l *InventoryLedger) ListAll(ctx context.Context) ([]domain.BloodGroupStock, error) {
	return l.store.Inventory().ListAll(ctx)
}

// creditStock 在寫入前先做驗證，避免不合法的值進入儲存層
func creditStock(ctx context.Context, inv Inventory, group domain.BloodGroup, units int64) error {
	if !group.Valid() {
		return domain.ErrInvalidBloodGroup
	}
	if units <= 0 {
		return domain.ErrInvalidQuantity
	}
	return inv.Credit(ctx, group, units)
}

func debitStock(ctx context.Context, inv Inventory, group domain.BloodGroup, units int64) error {
	if !group.Valid() {
		return domain.ErrInvalidBloodGroup
	}
	if units <= 0 {
		return domain.ErrInvalidQuantity
	}
	return inv.Debit(ctx, group, units)
}
