package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-blood-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層：組合庫存異動與流水帳寫入
type CoreUseCase struct {
	store   Store
	auth    Authenticator
	guard   IdempotencyGuard
	logger  *zap.Logger
	ledger  *InventoryLedger
	journal *TransactionJournal
}

// DonateCommand 捐血
type DonateCommand struct {
	// RefID: 選填，UUID 格式；重試時帶相同值不會重複入庫
	RefID   string
	DonorID int64
	Units   int64
}

// RequestCommand 申請用血
type RequestCommand struct {
	RefID      string
	Requester  string
	BloodGroup domain.BloodGroup
	Units      int64
}

func NewCoreUseCase(store Store, auth Authenticator, opts ...Option) *CoreUseCase {
	o := newOptions(opts)
	return &CoreUseCase{
		store:   store,
		auth:    auth,
		guard:   o.guard,
		logger:  o.logger,
		ledger:  NewInventoryLedger(store, opts...),
		journal: NewTransactionJournal(store, opts...),
	}
}

func (c *CoreUseCase) Ledger() *InventoryLedger {
	return c.ledger
}

func (c *CoreUseCase) Journal() *TransactionJournal {
	return c.journal
}

// Authenticate 驗證管理員帳密
func (c *CoreUseCase) Authenticate(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return false, domain.ErrInvalidInput
	}
	if c.auth == nil {
		return false, nil
	}
	return c.auth.VerifyAdmin(ctx, username, password)
}

// Donate 捐血：查詢捐血者血型 -> 入庫 -> 寫入 DONATION 紀錄，同一交易內完成
//
// 參數:
//
//	ctx: 上下文
//	cmd: 捐血指令
//
// 回傳:
//
//	*domain.Receipt: 流水帳紀錄與異動後庫存
//	error: ErrInvalidQuantity / ErrDonorNotFound / ErrDuplicateRequest / 儲存層錯誤
func (c *CoreUseCase) Donate(ctx context.Context, cmd DonateCommand) (*domain.Receipt, error) {
	if cmd.Units <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if cmd.DonorID <= 0 {
		return nil, domain.ErrDonorNotFound
	}

	receipt, err := c.post(ctx, cmd.RefID, domain.TransactionTypeDonation, func(ctx context.Context, repos Repositories) (*domain.Transaction, error) {
		donor, err := repos.Donors().FindByID(ctx, cmd.DonorID)
		if err != nil {
			return nil, err
		}
		if donor == nil {
			return nil, domain.ErrDonorNotFound
		}
		if err := creditStock(ctx, repos.Inventory(), donor.BloodGroup, cmd.Units); err != nil {
			return nil, err
		}
		return c.journal.newTransaction(donor.Name, donor.BloodGroup, cmd.Units, domain.TransactionTypeDonation, time.Time{}), nil
	})
	if err != nil {
		c.logFailure("donation", err, zap.Int64("donor_id", cmd.DonorID), zap.Int64("units", cmd.Units))
		return nil, err
	}
	c.logReceipt("donation recorded", receipt)
	return receipt, nil
}

// Request 申請用血：扣庫存成功才寫入 REQUEST 紀錄
//
// 庫存不足或血型無紀錄時回傳 ErrInsufficientStock / ErrUnknownBloodGroup，庫存與流水帳皆不變
func (c *CoreUseCase) Request(ctx context.Context, cmd RequestCommand) (*domain.Receipt, error) {
	requester := strings.TrimSpace(cmd.Requester)
	if requester == "" {
		return nil, domain.ErrInvalidInput
	}
	if !cmd.BloodGroup.Valid() {
		return nil, domain.ErrInvalidBloodGroup
	}
	if cmd.Units <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	receipt, err := c.post(ctx, cmd.RefID, domain.TransactionTypeRequest, func(ctx context.Context, repos Repositories) (*domain.Transaction, error) {
		if err := debitStock(ctx, repos.Inventory(), cmd.BloodGroup, cmd.Units); err != nil {
			return nil, err
		}
		return c.journal.newTransaction(requester, cmd.BloodGroup, cmd.Units, domain.TransactionTypeRequest, time.Time{}), nil
	})
	if err != nil {
		c.logFailure("request", err,
			zap.String("requester", requester),
			zap.Stringer("blood_group", cmd.BloodGroup),
			zap.Int64("units", cmd.Units),
		)
		return nil, err
	}
	c.logReceipt("request fulfilled", receipt)
	return receipt, nil
}

// post 在單一交易內執行 apply 並寫入流水帳
// 帶 refID 時：先以 guard 擋併發重複，再以流水帳的 ref_id 判斷是否已處理過
func (c *CoreUseCase) post(ctx context.Context, refID string, typ domain.TransactionType, apply func(context.Context, Repositories) (*domain.Transaction, error)) (*domain.Receipt, error) {
	if refID != "" {
		parsed, err := uuid.Parse(refID)
		if err != nil {
			return nil, fmt.Errorf("%w: ref_id: %v", domain.ErrInvalidInput, err)
		}
		refID = parsed.String()

		if c.guard != nil {
			ok, err := c.guard.Claim(ctx, refID)
			switch {
			case err != nil:
				// guard 無法使用時退回只靠資料庫 unique index
				c.logger.Warn("idempotency guard unavailable", zap.String("ref_id", refID), zap.Error(err))
			case !ok:
				return nil, domain.ErrDuplicateRequest
			default:
				defer func() {
					if err := c.guard.Release(context.WithoutCancel(ctx), refID); err != nil {
						c.logger.Warn("idempotency guard release failed", zap.String("ref_id", refID), zap.Error(err))
					}
				}()
			}
		}
	}

	var receipt *domain.Receipt
	err := c.store.RunInTx(ctx, func(repos Repositories) error {
		if refID != "" {
			prev, err := repos.Journal().FindByRef(ctx, refID)
			if err != nil {
				return err
			}
			if prev != nil {
				if prev.Type != typ {
					return domain.ErrDuplicateRequest
				}
				units, _, err := repos.Inventory().GetUnits(ctx, prev.BloodGroup)
				if err != nil {
					return err
				}
				receipt = &domain.Receipt{Transaction: *prev, UnitsAvailable: units, Replayed: true}
				return nil
			}
		}

		tran, err := apply(ctx, repos)
		if err != nil {
			return err
		}
		tran.RefID = refID
		if err := repos.Journal().Append(ctx, tran); err != nil {
			return err
		}
		units, _, err := repos.Inventory().GetUnits(ctx, tran.BloodGroup)
		if err != nil {
			return err
		}
		receipt = &domain.Receipt{Transaction: *tran, UnitsAvailable: units}
		return nil
	})
	if errors.Is(err, domain.ErrDuplicateRequest) && refID != "" {
		// 併發的同 ref_id 請求已先 commit，改回傳它的結果
		if replay, ok := c.replay(ctx, refID, typ); ok {
			return replay, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (c *CoreUseCase) replay(ctx context.Context, refID string, typ domain.TransactionType) (*domain.Receipt, bool) {
	prev, err := c.store.Journal().FindByRef(ctx, refID)
	if err != nil || prev == nil || prev.Type != typ {
		return nil, false
	}
	units, _, err := c.store.Inventory().GetUnits(ctx, prev.BloodGroup)
	if err != nil {
		return nil, false
	}
	return &domain.Receipt{Transaction: *prev, UnitsAvailable: units, Replayed: true}, true
}

func (c *CoreUseCase) logReceipt(msg string, r *domain.Receipt) {
	c.logger.Info(msg,
		zap.Int64("transaction_id", r.Transaction.ID),
		zap.String("name", r.Transaction.Name),
		zap.Stringer("blood_group", r.Transaction.BloodGroup),
		zap.Int64("units", r.Transaction.Units),
		zap.Int64("units_available", r.UnitsAvailable),
		zap.Bool("replayed", r.Replayed),
	)
}

func (c *CoreUseCase) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch {
	case domain.IsBusinessOutcome(err),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrDonorNotFound),
		errors.Is(err, domain.ErrDuplicateRequest):
		c.logger.Info("operation rejected", fields...)
	default:
		c.logger.Error("operation failed", fields...)
	}
}
