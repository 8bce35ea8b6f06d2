package model

import "time"

// Book is a catalog entry. Books are append-only and disappear only when their creator
// is deleted.
type Book struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Author      string    `json:"author" gorm:"size:255;not null;index"`
	Genre       string    `json:"genre" gorm:"size:100;not null;index"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedBy   uint      `json:"createdBy" gorm:"not null;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations
	Creator *User `json:"-" gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE"`
}
