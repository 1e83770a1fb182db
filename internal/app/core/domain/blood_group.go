package domain

import (
	"sort"
	"strings"
)

// BloodGroup ABO/Rh 血型，為封閉列舉
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// bloodGroups 定義順序，ListAll 依此排序
var bloodGroups = [...]BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

// BloodGroups 回傳所有血型 (定義順序)
func BloodGroups() []BloodGroup {
	out := make([]BloodGroup, len(bloodGroups))
	copy(out, bloodGroups[:])
	return out
}

// ParseBloodGroup 將字串轉為 BloodGroup，大小寫與前後空白不影響
func ParseBloodGroup(s string) (BloodGroup, error) {
	g := BloodGroup(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", ErrInvalidBloodGroup
	}
	return g, nil
}

func (g BloodGroup) Valid() bool {
	return g.ordinal() >= 0
}

func (g BloodGroup) String() string {
	return string(g)
}

func (g BloodGroup) ordinal() int {
	for i, v := range bloodGroups {
		if v == g {
			return i
		}
	}
	return -1
}

// MarshalText implements encoding.TextMarshaler.
func (g BloodGroup) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, ErrInvalidBloodGroup
	}
	return []byte(g), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *BloodGroup) UnmarshalText(text []byte) error {
	parsed, err := ParseBloodGroup(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// SortStock 依血型定義順序排序
func SortStock(stock []BloodGroupStock) {
	sort.SliceStable(stock, func(i, j int) bool {
		return stock[i].BloodGroup.ordinal() < stock[j].BloodGroup.ordinal()
	})
}
