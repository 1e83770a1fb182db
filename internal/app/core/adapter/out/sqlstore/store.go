package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-blood-ledger/pkg/database"
)

// Store 以 GORM 實作 usecase.Store，支援 MySQL 與 SQLite
type Store struct {
	repos
}

// NewStore 建立 SQL Store
func NewStore(client *database.Client) *Store {
	return &Store{repos: repos{db: client.DB()}}
}

// Migrate 建立 (或補齊) 資料表
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(&sqlStock{}, &sqlDonor{}, &sqlTransaction{}, &sqlAdmin{})
	if err != nil {
		return storageErr("migrate", err)
	}
	return nil
}

// RunInTx 開啟資料庫交易，fn 回傳錯誤則 rollback
func (s *Store) RunInTx(ctx context.Context, fn func(repos usecase.Repositories) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&repos{db: tx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin / commit 失敗
		return storageErr("transaction", err)
	}
	return err
}

// SeedAdmin 新增或更新管理員帳密
func (s *Store) SeedAdmin(ctx context.Context, username, password string) error {
	admin := sqlAdmin{Username: username, PasswordHash: password}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash"}),
	}).Create(&admin).Error
	if err != nil {
		return storageErr("seed admin", err)
	}
	return nil
}

// VerifyAdmin implements usecase.Authenticator.
func (s *Store) VerifyAdmin(ctx context.Context, username, password string) (bool, error) {
	var admin sqlAdmin
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("verify admin", err)
	}
	return admin.PasswordHash == password, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

var (
	_ usecase.Store         = (*Store)(nil)
	_ usecase.Authenticator = (*Store)(nil)
)
