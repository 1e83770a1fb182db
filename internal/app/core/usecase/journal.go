package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
)

// TransactionJournal 負責流水帳與捐血者名冊
type TransactionJournal struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewTransactionJournal(store Store, opts ...Option) *TransactionJournal {
	o := newOptions(opts)
	return &TransactionJournal{
		store:  store,
		logger: o.logger,
		now:    o.now,
	}
}

// RegisterDonor 登記捐血者，名稱不檢查重複
//
// 參數:
//
//	name, contact: 不可為空
//	group: 血型
//	date: 捐血日期，零值代表今天
//
// 回傳:
//
//	int64: 新捐血者 ID
//	error: ErrInvalidInput 或儲存層錯誤
func (j *TransactionJournal) RegisterDonor(ctx context.Context, name string, group domain.BloodGroup, contact string, date time.Time) (int64, error) {
	if date.IsZero() {
		date = j.now()
	}
	donor := &domain.Donor{
		Name:             strings.TrimSpace(name),
		BloodGroup:       group,
		Contact:          strings.TrimSpace(contact),
		LastDonationDate: domain.DateOf(date),
	}
	if err := donor.Validate(); err != nil {
		return 0, err
	}
	if err := j.store.Donors().Register(ctx, donor); err != nil {
		return 0, err
	}
	j.logger.Info("donor registered",
		zap.Int64("donor_id", donor.ID),
		zap.String("name", donor.Name),
		zap.Stringer("blood_group", donor.BloodGroup),
	)
	return donor.ID, nil
}

// GetDonor 依名稱查詢；同名時回傳最早登記者 (ID 最小)
func (j *TransactionJournal) GetDonor(ctx context.Context, name string) (*domain.Donor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	return j.store.Donors().FindByName(ctx, name)
}

// GetDonorByID 依 ID 查詢，找不到回傳 nil
func (j *TransactionJournal) GetDonorByID(ctx context.Context, id int64) (*domain.Donor, error) {
	return j.store.Donors().FindByID(ctx, id)
}

// ListDonors 回傳名稱與血型 (依名稱排序)
func (j *TransactionJournal) ListDonors(ctx context.Context) ([]domain.DonorSummary, error) {
	donors, err := j.store.Donors().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DonorSummary, 0, len(donors))
	for i := range donors {
		out = append(out, donors[i].Summary())
	}
	return out, nil
}

// ListAllDonors 回傳完整捐血者資料 (依名稱排序)
func (j *TransactionJournal) ListAllDonors(ctx context.Context) ([]domain.Donor, error) {
	return j.store.Donors().List(ctx)
}

// DeleteDonor 刪除捐血者，不存在時回傳 false；交易紀錄保留
func (j *TransactionJournal) DeleteDonor(ctx context.Context, id int64) (bool, error) {
	deleted, err := j.store.Donors().Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		j.logger.Info("donor deleted", zap.Int64("donor_id", id))
	}
	return deleted, nil
}

// Append 直接寫入一筆流水帳，date 為零值時使用今天
func (j *TransactionJournal) Append(ctx context.Context, name string, group domain.BloodGroup, units int64, typ domain.TransactionType, date time.Time) (int64, error) {
	tran := j.newTransaction(name, group, units, typ, date)
	if err := tran.Validate(); err != nil {
		return 0, err
	}
	if err := j.store.Journal().Append(ctx, tran); err != nil {
		return 0, err
	}
	return tran.ID, nil
}

// History 所有交易 (新到舊)
func (j *TransactionJournal) History(ctx context.Context) ([]domain.Transaction, error) {
	return j.store.Journal().History(ctx)
}

func (j *TransactionJournal) newTransaction(name string, group domain.BloodGroup, units int64, typ domain.TransactionType, date time.Time) *domain.Transaction {
	if date.IsZero() {
		date = j.now()
	}
	return &domain.Transaction{
		Name:       strings.TrimSpace(name),
		BloodGroup: group,
		Units:      units,
		Date:       domain.DateOf(date),
		Type:       typ,
	}
}
