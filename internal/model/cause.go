package model

import "time"

// Cause is an administratively managed stop cause. Causes are never
// hard-deleted; they are deactivated via IsActive so historical stops
// keep a valid reference.
type Cause struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Code        string    `gorm:"uniqueIndex;size:32;not null" json:"code"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Category    string    `gorm:"size:64;not null" json:"category"`
	Description *string   `gorm:"size:255" json:"description"`
	AffectTRS   bool      `gorm:"not null;default:true" json:"affectTRS"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
