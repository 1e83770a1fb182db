package domain

import (
	"sort"
	"strings"
	"time"
)

// TransactionType 交易類型
type TransactionType uint8

const (
	// 捐血 (入庫)
	TransactionTypeDonation TransactionType = 1
	// 申請用血 (出庫)
	TransactionTypeRequest TransactionType = 2
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDonation:
		return "DONATION"
	case TransactionTypeRequest:
		return "REQUEST"
	default:
		return "UNKNOWN"
	}
}

func (t TransactionType) Valid() bool {
	return t == TransactionTypeDonation || t == TransactionTypeRequest
}

// ParseTransactionType 解析 "DONATION" / "REQUEST"
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DONATION":
		return TransactionTypeDonation, nil
	case "REQUEST":
		return TransactionTypeRequest, nil
	}
	return 0, ErrInvalidTransactionType
}

// MarshalText implements encoding.TextMarshaler.
func (t TransactionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidTransactionType
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TransactionType) UnmarshalText(text []byte) error {
	parsed, err := ParseTransactionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Transaction 流水帳的一筆紀錄，只能新增不能修改
type Transaction struct {
	// ID: 由儲存層分配，單調遞增
	ID int64 `json:"id"`
	// RefID: 呼叫端提供的追蹤號 (UUID)，用於重試時的冪等判斷，可為空
	RefID string `json:"ref_id,omitempty"`
	// Name: 捐血者或申請者名稱 (非外鍵，捐血者刪除後歷史仍保留)
	Name       string          `json:"name"`
	BloodGroup BloodGroup      `json:"blood_group"`
	Units      int64           `json:"units"`
	Date       time.Time       `json:"transaction_date"`
	Type       TransactionType `json:"transaction_type"`
}

// Validate 檢查必填欄位與列舉
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidInput
	}
	if !t.BloodGroup.Valid() {
		return ErrInvalidBloodGroup
	}
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if t.Units <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// DateOf 取 t 所在時區的日期，回傳該日 UTC 00:00
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortHistory 依 transaction_date DESC, id DESC 排序 (新的在前)
func SortHistory(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.After(txns[j].Date)
		}
		return txns[i].ID > txns[j].ID
	})
}

// Receipt 組合操作 (Donate/Request) 的結果
type Receipt struct {
	Transaction Transaction `json:"transaction"`
	// UnitsAvailable: 同一交易內異動後的庫存
	UnitsAvailable int64 `json:"units_available"`
	// Replayed: 相同 ref_id 已處理過，本次未重複異動
	Replayed bool `json:"replayed,omitempty"`
}
