package domain

import (
	"sort"
	"strings"
	"time"
)

// Donor 捐血者
type Donor struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	BloodGroup BloodGroup `json:"blood_group"`
	Contact    string     `json:"contact"`
	// LastDonationDate 只在登記時寫入，之後的捐血不會更新
	LastDonationDate time.Time `json:"last_donation_date"`
}

// DonorSummary 下拉選單用的精簡資料
type DonorSummary struct {
	Name       string     `json:"name"`
	BloodGroup BloodGroup `json:"blood_group"`
}

func (d *Donor) Validate() error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Contact) == "" {
		return ErrInvalidInput
	}
	if !d.BloodGroup.Valid() {
		return ErrInvalidBloodGroup
	}
	return nil
}

func (d *Donor) Summary() DonorSummary {
	return DonorSummary{Name: d.Name, BloodGroup: d.BloodGroup}
}

// SortDonors 依名稱遞增排序，同名以 ID 遞增
func SortDonors(donors []Donor) {
	sort.SliceStable(donors, func(i, j int) bool {
		if donors[i].Name != donors[j].Name {
			return donors[i].Name < donors[j].Name
		}
		return donors[i].ID < donors[j].ID
	})
}
