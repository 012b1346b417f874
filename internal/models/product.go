package models

import "time"

// Product represents a discount offer listed under a store.
type Product struct {
	ID              string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name            string    `json:"name" bson:"name" gorm:"type:varchar(255);not null"`
	Description     string    `json:"description" bson:"description" gorm:"type:text;not null"`
	Price           float64   `json:"price" bson:"price"`
	DiscountedPrice *float64  `json:"discountedPrice,omitempty" bson:"discountedPrice,omitempty"`
	Category        string    `json:"category,omitempty" bson:"category,omitempty" gorm:"type:varchar(100)"`
	Images          []string  `json:"images" bson:"images" gorm:"serializer:json;type:text"`
	StoreID         string    `json:"storeId" bson:"storeId" gorm:"index;type:varchar(36);not null"`
	Store           *Store    `json:"store,omitempty" bson:"-" gorm:"foreignKey:StoreID"`
	Stock           int       `json:"stock" bson:"stock"`
	IsActive        bool      `json:"isActive" bson:"isActive"`
	DiscountCode    string    `json:"discountCode" bson:"discountCode" gorm:"type:varchar(100);not null"`
	ShopNowURL      string    `json:"shopNowUrl" bson:"shopNowUrl" gorm:"column:shop_now_url;type:varchar(500);not null"`
	SuccessRate     float64   `json:"successRate" bson:"successRate"`
	TotalUses       int       `json:"totalUses" bson:"totalUses"`
	TodayUses       int       `json:"todayUses" bson:"todayUses"`
	Likes           int       `json:"likes" bson:"likes"`
	Dislikes        int       `json:"dislikes" bson:"dislikes"`
	LastDailyReset  time.Time `json:"lastDailyReset" bson:"lastDailyReset"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// StartOfDay returns midnight UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RollDailyUses zeroes TodayUses when the last reset happened before the
// current UTC day. It reports whether a reset took place.
func (p *Product) RollDailyUses(now time.Time) bool {
	if !p.LastDailyReset.Before(StartOfDay(now)) {
		return false
	}
	p.TodayUses = 0
	p.LastDailyReset = now
	return true
}
