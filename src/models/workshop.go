package models

import (
	"atelier/src/types"
	"time"
)

type Workshop struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Title       string  `json:"title"`
	Slug        string  `gorm:"uniqueIndex" json:"slug"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Duration    uint    `json:"duration_minutes,omitempty"`
	Level       string  `json:"level,omitempty"`
	Image       string  `json:"image,omitempty"`

	Sessions []WorkshopSession `json:"sessions,omitempty"`

	types.Timestamps
}

type WorkshopSession struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	WorkshopID  uint                `json:"workshop_id,omitempty"`
	DateTime    time.Time           `json:"date_time"`
	Capacity    uint                `json:"capacity"`
	BookedCount uint                `gorm:"default:0" json:"booked_count"`
	Status      types.SessionStatus `gorm:"default:'scheduled'" json:"status,omitempty"`

	Workshop *Workshop `json:"workshop,omitempty"`

	types.Timestamps
}

// SpotsLeft never reports negative availability even if booked_count has
// drifted above capacity.
func (s *WorkshopSession) SpotsLeft() uint {
	if s.BookedCount >= s.Capacity {
		return 0
	}
	return s.Capacity - s.BookedCount
}
