package usecase

import (
	"context"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
)

// Inventory 是庫存帳的儲存介面 (BloodGroupStock 表的唯一擁有者)
type Inventory interface {
	// GetUnits 取得庫存，found=false 表示該血型沒有紀錄
	GetUnits(ctx context.Context, group domain.BloodGroup) (units int64, found bool, err error)
	// Credit 單一語句 upsert：不存在則建立，存在則累加
	Credit(ctx context.Context, group domain.BloodGroup, units int64) error
	// Debit 單一語句條件扣減，失敗回傳 ErrUnknownBloodGroup / ErrInsufficientStock
	Debit(ctx context.Context, group domain.BloodGroup, units int64) error
	// ListAll 依血型定義順序回傳所有庫存
	ListAll(ctx context.Context) ([]domain.BloodGroupStock, error)
}

// Journal 是流水帳的儲存介面，只能新增
type Journal interface {
	// Append 寫入一筆交易並回填 tran.ID
	Append(ctx context.Context, tran *domain.Transaction) error
	// FindByRef 依 ref_id 查詢，找不到回傳 nil, nil
	FindByRef(ctx context.Context, refID string) (*domain.Transaction, error)
	// History 依 transaction_date DESC, id DESC 排序
	History(ctx context.Context) ([]domain.Transaction, error)
}

// DonorRegistry 捐血者名冊
type DonorRegistry interface {
	// Register 新增捐血者並回填 donor.ID
	Register(ctx context.Context, donor *domain.Donor) error
	// FindByID 找不到回傳 nil, nil
	FindByID(ctx context.Context, id int64) (*domain.Donor, error)
	// FindByName 同名時回傳 ID 最小者，找不到回傳 nil, nil
	FindByName(ctx context.Context, name string) (*domain.Donor, error)
	// List 依名稱遞增排序
	List(ctx context.Context) ([]domain.Donor, error)
	// Delete 回傳是否真的刪除了一筆，不影響交易紀錄
	Delete(ctx context.Context, id int64) (bool, error)
}

// Repositories 同一個 session (或同一個交易) 下的所有儲存介面
type Repositories interface {
	Inventory() Inventory
	Journal() Journal
	Donors() DonorRegistry
}

// Store 提供交易邊界：fn 回傳錯誤時全部 rollback
type Store interface {
	Repositories
	RunInTx(ctx context.Context, fn func(repos Repositories) error) error
}

// Authenticator 管理員帳密驗證
type Authenticator interface {
	VerifyAdmin(ctx context.Context, username, password string) (bool, error)
}

// IdempotencyGuard 擋下同一 ref_id 併發進來的重複請求
type IdempotencyGuard interface {
	// Claim 取得 ref_id 的處理權，已被佔用回傳 false
	Claim(ctx context.Context, refID string) (bool, error)
	// Release 處理完成後釋放
	Release(ctx context.Context, refID string) error
}
