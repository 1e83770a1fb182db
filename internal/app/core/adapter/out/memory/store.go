package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-blood-ledger/pkg/wal"
)

// Store 是一個使用 Mutex 實現的記憶體儲存
//
// 結構:
//
//	stock / donors / txns: 已 commit 的狀態
//	mu: 交易期間持有寫鎖，所有交易依序執行
//	wal: Write-Ahead Log，每次 commit 寫入一行 (可為 nil)
type Store struct {
	mu sync.RWMutex

	stock  map[domain.BloodGroup]int64
	donors map[int64]domain.Donor
	txns   []domain.Transaction
	// ref_id -> txns index
	refs map[string]int

	lastDonorID int64
	lastTxnID   int64

	admins map[string]string

	wal *wal.WAL
}

// batch 單次 commit 的所有異動，也是 WAL 的一行
type batch struct {
	Stock        map[domain.BloodGroup]int64 `json:"stock,omitempty"`
	Donors       []domain.Donor              `json:"donors,omitempty"`
	Deleted      []int64                     `json:"deleted,omitempty"`
	Transactions []domain.Transaction        `json:"transactions,omitempty"`
}

func (b *batch) empty() bool {
	return len(b.Stock) == 0 && len(b.Donors) == 0 && len(b.Deleted) == 0 && len(b.Transactions) == 0
}

// NewStore 建立一個新的 Store 實例
//
// 參數:
//
//	w: Write-Ahead Log 實例，nil 代表純記憶體 (重啟即消失)
//
// 回傳:
//
//	*Store: Store 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewStore(w *wal.WAL) (*Store, error) {
	s := &Store{
		stock:  make(map[domain.BloodGroup]int64),
		donors: make(map[int64]domain.Donor),
		refs:   make(map[string]int),
		admins: make(map[string]string),
		wal:    w,
	}
	if w != nil {
		if err := s.recoverFromWAL(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// recoverFromWAL 依序重放已 commit 的 batch
// 只有 NewStore 呼叫，無需 Lock (單執行緒)
func (s *Store) recoverFromWAL() error {
	return s.wal.Replay(func(raw json.RawMessage) error {
		var b batch
		if err := json.Unmarshal(raw, &b); err != nil {
			return fmt.Errorf("decode wal batch: %w", err)
		}
		s.apply(&b)
		return nil
	})
}

// apply 將 batch 套用到已 commit 狀態，呼叫端需持有寫鎖
func (s *Store) apply(b *batch) {
	for group, units := range b.Stock {
		s.stock[group] = units
	}
	for _, d := range b.Donors {
		s.donors[d.ID] = d
		if d.ID > s.lastDonorID {
			s.lastDonorID = d.ID
		}
	}
	for _, id := range b.Deleted {
		delete(s.donors, id)
	}
	for _, tran := range b.Transactions {
		s.txns = append(s.txns, tran)
		if tran.RefID != "" {
			s.refs[tran.RefID] = len(s.txns) - 1
		}
		if tran.ID > s.lastTxnID {
			s.lastTxnID = tran.ID
		}
	}
}

// SetAdmin 設定管理員帳密 (不寫 WAL，啟動時由設定檔帶入)
func (s *Store) SetAdmin(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[username] = password
}

// VerifyAdmin implements usecase.Authenticator.
func (s *Store) VerifyAdmin(ctx context.Context, username, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.admins[username]
	return ok && stored == password, nil
}

// RunInTx 持有寫鎖執行 fn，成功才寫 WAL 並套用
func (s *Store) RunInTx(ctx context.Context, fn func(repos usecase.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTxn(s)
	if err := fn(tx); err != nil {
		return err
	}

	b := tx.batch()
	if b.empty() {
		return nil
	}
	if s.wal != nil {
		if err := s.wal.Append(b); err != nil {
			return fmt.Errorf("wal append: %w: %w", domain.ErrStorageUnavailable, err)
		}
	}
	s.apply(b)
	return nil
}

func (s *Store) Inventory() usecase.Inventory {
	return autoCommit{s}
}

func (s *Store) Journal() usecase.Journal {
	return autoCommit{s}
}

func (s *Store) Donors() usecase.DonorRegistry {
	return autoCommit{s}
}

// read 在讀鎖下以空交易視圖讀取已 commit 狀態
func (s *Store) read(ctx context.Context, fn func(tx *txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTxn(s))
}

var (
	_ usecase.Store         = (*Store)(nil)
	_ usecase.Authenticator = (*Store)(nil)
)
