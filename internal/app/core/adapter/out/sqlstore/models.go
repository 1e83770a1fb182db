package sqlstore

import (
	"fmt"
	"time"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
)

// sqlStock 對應資料庫的 blood_bank 表
type sqlStock struct {
	BloodGroup     string    `gorm:"primaryKey;size:3"`
	UnitsAvailable int64     `gorm:"not null;default:0;check:units_available >= 0"`
	UpdatedAt      time.Time // 自動更新時間
}

func (*sqlStock) TableName() string {
	return "blood_bank"
}

func (s *sqlStock) toDomain() domain.BloodGroupStock {
	return domain.BloodGroupStock{
		BloodGroup:     domain.BloodGroup(s.BloodGroup),
		UnitsAvailable: s.UnitsAvailable,
	}
}

// sqlDonor 對應資料庫的 donors 表
type sqlDonor struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:100;not null;index"`
	BloodGroup   string    `gorm:"size:3;not null"`
	Contact      string    `gorm:"size:50;not null"`
	DonationDate time.Time `gorm:"type:date"`
}

func (*sqlDonor) TableName() string {
	return "donors"
}

func newSQLDonor(d *domain.Donor) *sqlDonor {
	return &sqlDonor{
		ID:           d.ID,
		Name:         d.Name,
		BloodGroup:   d.BloodGroup.String(),
		Contact:      d.Contact,
		DonationDate: domain.DateOf(d.LastDonationDate),
	}
}

func (d *sqlDonor) toDomain() domain.Donor {
	return domain.Donor{
		ID:               d.ID,
		Name:             d.Name,
		BloodGroup:       domain.BloodGroup(d.BloodGroup),
		Contact:          d.Contact,
		LastDonationDate: domain.DateOf(d.DonationDate),
	}
}

// sqlTransaction 對應資料庫的 blood_transactions 表
// ref_id 可為 NULL (舊資料或內部呼叫)，有值時必須唯一
type sqlTransaction struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	RefID           *string   `gorm:"column:ref_id;size:36;uniqueIndex"`
	Name            string    `gorm:"size:100;not null"`
	BloodGroup      string    `gorm:"size:3;not null"`
	Units           int64     `gorm:"not null"`
	TransactionDate time.Time `gorm:"type:date;index"`
	TransactionType string    `gorm:"size:10;not null"`
	CreatedAt       time.Time // 自動寫入時間
}

func (*sqlTransaction) TableName() string {
	return "blood_transactions"
}

func newSQLTransaction(tran *domain.Transaction) *sqlTransaction {
	row := &sqlTransaction{
		Name:            tran.Name,
		BloodGroup:      tran.BloodGroup.String(),
		Units:           tran.Units,
		TransactionDate: domain.DateOf(tran.Date),
		TransactionType: tran.Type.String(),
	}
	if tran.RefID != "" {
		ref := tran.RefID
		row.RefID = &ref
	}
	return row
}

func (t *sqlTransaction) toDomain() (domain.Transaction, error) {
	typ, err := domain.ParseTransactionType(t.TransactionType)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	tran := domain.Transaction{
		ID:         t.ID,
		Name:       t.Name,
		BloodGroup: domain.BloodGroup(t.BloodGroup),
		Units:      t.Units,
		Date:       domain.DateOf(t.TransactionDate),
		Type:       typ,
	}
	if t.RefID != nil {
		tran.RefID = *t.RefID
	}
	return tran, nil
}

// sqlAdmin 對應資料庫的 admins 表
type sqlAdmin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`
}

func (*sqlAdmin) TableName() string {
	return "admins"
}
