package models

import (
	"encoding/json"
	"time"
)

type Card struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null;index"`
	CardNumber    string    `json:"card_number"`
	SetCode       string    `json:"set_code" gorm:"index"`
	SetName       string    `json:"set_name"`
	Rarity        string    `json:"rarity"`
	Types         string    `json:"-" gorm:"default:'[]'"` // JSON-encoded list of type tags
	ImageURL      string    `json:"image_url"`
	ImageURLLarge string    `json:"image_url_large"`
	PHash         string    `json:"phash,omitempty" gorm:"column:phash;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TypeList decodes the stored type tags. Invalid or empty data yields an
// empty list rather than an error.
func (c *Card) TypeList() []string {
	if c.Types == "" {
		return []string{}
	}
	var types []string
	if err := json.Unmarshal([]byte(c.Types), &types); err != nil {
		return []string{}
	}
	return types
}

// SetTypeList encodes the given type tags into the Types column.
func (c *Card) SetTypeList(types []string) {
	if types == nil {
		types = []string{}
	}
	data, err := json.Marshal(types)
	if err != nil {
		c.Types = "[]"
		return
	}
	c.Types = string(data)
}
