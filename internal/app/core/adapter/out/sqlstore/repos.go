package sqlstore

import (
	"context"
	"errors"
	"math"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
)

// repos 綁定同一個 *gorm.DB (根連線或交易) 的所有儲存介面
type repos struct {
	db *gorm.DB
}

func (r *repos) Inventory() usecase.Inventory { return r }
func (r *repos) Journal() usecase.Journal { return r }
func (r *repos) Donors() usecase.DonorRegistry { return r }

// ---- Inventory ----

func (r *repos) GetUnits(ctx context.Context, group domain.BloodGroup) (int64, bool, error) {
	var row sqlStock
	err := r.db.WithContext(ctx).Where("blood_group = ?", group.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storageErr("get units", err)
	}
	return row.UnitsAvailable, true, nil
}

// Credit 先做條件加總，沒有資料列才新增
//
//	UPDATE blood_bank SET units_available = units_available + ? WHERE blood_group = ? AND units_available <= ?
//
// 加總會超出 int64 時資料列不變，回傳 ErrInvalidQuantity
func (r *repos) Credit(ctx context.Context, group domain.BloodGroup, units int64) error {
	if units <= 0 {
		return domain.ErrInvalidQuantity
	}
	added, err := r.addUnits(ctx, group, units)
	if err != nil || added {
		return err
	}
	exists, err := r.stockExists(ctx, group)
	if err != nil {
		return storageErr("credit", err)
	}
	if exists {
		return domain.ErrInvalidQuantity
	}

	row := sqlStock{BloodGroup: group.String(), UnitsAvailable: units}
	err = r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 同時有人新增了同一血型，改走加總
		added, err = r.addUnits(ctx, group, units)
		if err != nil {
			return err
		}
		if !added {
			return domain.ErrInvalidQuantity
		}
		return nil
	}
	if err != nil {
		return storageErr("credit", err)
	}
	return nil
}

func (r *repos) addUnits(ctx context.Context, group domain.BloodGroup, units int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&sqlStock{}).
		Where("blood_group = ? AND units_available <= ?", group.String(), math.MaxInt64-units).
		Updates(map[string]interface{}{
			"units_available": gorm.Expr("units_available + ?", units),
			"updated_at":      r.db.NowFunc(),
		})
	if isOutOfRange(res.Error) {
		return false, domain.ErrInvalidQuantity
	}
	if res.Error != nil {
		return false, storageErr("credit", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Debit 條件扣減，庫存不足時不會動到資料列
func (r *repos) Debit(ctx context.Context, group domain.BloodGroup, units int64) error {
	res := r.db.WithContext(ctx).Model(&sqlStock{}).
		Where("blood_group = ? AND units_available >= ?", group.String(), units).
		Updates(map[string]interface{}{
			"units_available": gorm.Expr("units_available - ?", units),
			"updated_at":      r.db.NowFunc(),
		})
	if res.Error != nil {
		return storageErr("debit", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// 沒扣到：區分血型不存在與庫存不足
	exists, err := r.stockExists(ctx, group)
	if err != nil {
		return storageErr("debit", err)
	}
	if !exists {
		return domain.ErrUnknownBloodGroup
	}
	return domain.ErrInsufficientStock
}

func (r *repos) stockExists(ctx context.Context, group domain.BloodGroup) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&sqlStock{}).Where("blood_group = ?", group.String()).Count(&count).Error
	return count > 0, err
}

// isOutOfRange MySQL 1690: BIGINT value is out of range
func isOutOfRange(err error) bool {
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1690
}

func (r *repos) ListAll(ctx context.Context) ([]domain.BloodGroupStock, error) {
	var rows []sqlStock
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, storageErr("list stock", err)
	}
	out := make([]domain.BloodGroupStock, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	domain.SortStock(out)
	return out, nil
}

// ---- Journal ----

func (r *repos) Append(ctx context.Context, tran *domain.Transaction) error {
	row := newSQLTransaction(tran)
	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateRequest
	}
	if err != nil {
		return storageErr("append transaction", err)
	}
	tran.ID = row.ID
	return nil
}

func (r *repos) FindByRef(ctx context.Context, refID string) (*domain.Transaction, error) {
	var row sqlTransaction
	err := r.db.WithContext(ctx).Where("ref_id = ?", refID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find transaction", err)
	}
	tran, err := row.toDomain()
	if err != nil {
		return nil, storageErr("find transaction", err)
	}
	return &tran, nil
}

func (r *repos) History(ctx context.Context) ([]domain.Transaction, error) {
	var rows []sqlTransaction
	if err := r.db.WithContext(ctx).Order("transaction_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, storageErr("history", err)
	}
	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		tran, err := rows[i].toDomain()
		if err != nil {
			return nil, storageErr("history", err)
		}
		out = append(out, tran)
	}
	return out, nil
}

// ---- DonorRegistry ----

func (r *repos) Register(ctx context.Context, donor *domain.Donor) error {
	row := newSQLDonor(donor)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return storageErr("register donor", err)
	}
	donor.ID = row.ID
	return nil
}

func (r *repos) FindByID(ctx context.Context, id int64) (*domain.Donor, error) {
	return r.findDonor(ctx, r.db.Where("id = ?", id))
}

// FindByName 同名取 id 最小者
// MySQL 預設 collation 不分大小寫，名稱比對在 Go 端以位元組相等為準
func (r *repos) FindByName(ctx context.Context, name string) (*domain.Donor, error) {
	var rows []sqlDonor
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("find donor", err)
	}
	for i := range rows {
		if rows[i].Name == name {
			donor := rows[i].toDomain()
			return &donor, nil
		}
	}
	return nil, nil
}

func (r *repos) findDonor(ctx context.Context, query *gorm.DB) (*domain.Donor, error) {
	var row sqlDonor
	err := query.WithContext(ctx).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find donor", err)
	}
	donor := row.toDomain()
	return &donor, nil
}

func (r *repos) List(ctx context.Context) ([]domain.Donor, error) {
	var rows []sqlDonor
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("list donors", err)
	}
	out := make([]domain.Donor, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	// 排序不交給資料庫 collation，各儲存實作順序一致
	domain.SortDonors(out)
	return out, nil
}

func (r *repos) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&sqlDonor{}, id)
	if res.Error != nil {
		return false, storageErr("delete donor", res.Error)
	}
	return res.RowsAffected > 0, nil
}

var _ usecase.Repositories = (*repos)(nil)
