package domain

import "math"

// BloodGroupStock 單一血型的庫存
type BloodGroupStock struct {
	BloodGroup     BloodGroup `json:"blood_group"`
	UnitsAvailable int64      `json:"units_available"`
}

func NewBloodGroupStock(group BloodGroup, units int64) *BloodGroupStock {
	return &BloodGroupStock{
		BloodGroup:     group,
		UnitsAvailable: units,
	}
}

// Credit 入庫 (捐血)，只會增加庫存；加總超出 int64 視為不合法數量
func (s *BloodGroupStock) Credit(units int64) error {
	if units <= 0 {
		return ErrInvalidQuantity
	}
	if units > math.MaxInt64-s.UnitsAvailable {
		return ErrInvalidQuantity
	}

	s.UnitsAvailable = s.UnitsAvailable + units
	return nil
}

// Debit 出庫 (申請)，不允許部分滿足
func (s *BloodGroupStock) Debit(units int64) error {
	if units <= 0 {
		return ErrInvalidQuantity
	}

	if s.UnitsAvailable < units {
		return ErrInsufficientStock
	}

	s.UnitsAvailable = s.UnitsAvailable - units
	return nil
}
