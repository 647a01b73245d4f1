package models

import "atelier/src/types"

type Product struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	Name        string              `json:"name"`
	Slug        string              `gorm:"uniqueIndex" json:"slug"`
	Description string              `json:"description,omitempty"`
	Price       float64             `json:"price"`
	Category    string              `json:"category,omitempty"`
	Status      types.ProductStatus `gorm:"default:'available'" json:"status,omitempty"`
	InStock     bool                `gorm:"default:true" json:"in_stock"`
	Images      *types.JSONB        `gorm:"type:jsonb" json:"images,omitempty"`

	types.Timestamps
}
