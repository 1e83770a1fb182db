package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity 單位數必須為正整數
	ErrInvalidQuantity = errors.New("units must be a positive integer")

	// ErrInvalidInput 必填欄位為空或格式錯誤
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidBloodGroup 血型不在固定列舉內
	ErrInvalidBloodGroup = fmt.Errorf("%w: unrecognized blood group", ErrInvalidInput)

	// ErrInvalidTransactionType 交易類型不在固定列舉內
	ErrInvalidTransactionType = fmt.Errorf("%w: unrecognized transaction type", ErrInvalidInput)

	// ErrUnknownBloodGroup 該血型尚無庫存紀錄
	ErrUnknownBloodGroup = errors.New("blood group not found")

	// ErrInsufficientStock 庫存不足
	ErrInsufficientStock = errors.New("insufficient units available")

	// ErrDonorNotFound 找不到捐血者
	ErrDonorNotFound = errors.New("donor not found")

	// ErrStorageUnavailable 儲存層連線或執行失敗
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateRequest 相同 ref_id 的請求正在處理中
	ErrDuplicateRequest = errors.New("duplicate request")
)

// IsBusinessOutcome 回報 err 是否為預期中的業務結果 (呼叫端應分支處理而非中止)
func IsBusinessOutcome(err error) bool {
	return errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrUnknownBloodGroup)
}
