package models

import (
	"time"
)

type Condition string

const (
	ConditionMint      Condition = "M"
	ConditionNearMint  Condition = "NM"
	ConditionExcellent Condition = "EX"
	ConditionGood      Condition = "GD"
	ConditionLightPlay Condition = "LP"
	ConditionPlayed    Condition = "PL"
	ConditionPoor      Condition = "PR"
)

// AllConditions returns all valid collection conditions
func AllConditions() []Condition {
	return []Condition{
		ConditionMint,
		ConditionNearMint,
		ConditionExcellent,
		ConditionGood,
		ConditionLightPlay,
		ConditionPlayed,
		ConditionPoor,
	}
}

// IsValid reports whether c is a known condition code.
func (c Condition) IsValid() bool {
	for _, known := range AllConditions() {
		if c == known {
			return true
		}
	}
	return false
}

type CollectionItem struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID    string    `json:"card_id" gorm:"not null;uniqueIndex:idx_collection_card_cond"`
	Card      Card      `json:"card" gorm:"foreignKey:CardID"`
	Quantity  int       `json:"quantity" gorm:"default:1"`
	Condition Condition `json:"condition" gorm:"not null;uniqueIndex:idx_collection_card_cond;default:'NM'"`
	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`
}

type AddToCollectionRequest struct {
	CardID    string    `json:"card_id" binding:"required"`
	Quantity  int       `json:"quantity"`
	Condition Condition `json:"condition"`
}
