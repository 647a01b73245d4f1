package models

import (
	"atelier/src/types"
	"time"
)

type Post struct {
	ID          uint         `gorm:"primarykey" json:"id"`
	Title       string       `json:"title"`
	Slug        string       `gorm:"uniqueIndex" json:"slug"`
	Excerpt     string       `json:"excerpt,omitempty"`
	Body        string       `json:"body,omitempty"`
	Image       string       `json:"image,omitempty"`
	Tags        *types.JSONB `gorm:"type:jsonb" json:"tags,omitempty"`
	Published   bool         `gorm:"default:false" json:"published"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	AuthorID    *uint        `json:"author_id,omitempty"`

	Author *User `gorm:"foreignKey:author_id" json:"author,omitempty"`

	types.Timestamps
}
