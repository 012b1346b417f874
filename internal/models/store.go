package models

import (
	"regexp"
	"strings"
	"time"
)

// DefaultStoreLogo is the logo value of a store that has no uploaded logo.
const DefaultStoreLogo = "no logo"

// Store represents a merchant whose discount codes are listed in the catalog.
type Store struct {
	ID              string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name            string    `json:"name" bson:"name" gorm:"uniqueIndex;type:varchar(50);not null" validate:"required,max=50"`
	Description     string    `json:"description" bson:"description" gorm:"type:varchar(500);not null" validate:"required,max=500"`
	Slug            string    `json:"slug" bson:"slug" gorm:"uniqueIndex;type:varchar(120);not null"`
	Logo            string    `json:"logo" bson:"logo" gorm:"type:varchar(255)"`
	TopDealHeadline string    `json:"topDealHeadline,omitempty" bson:"topDealHeadline,omitempty" gorm:"type:varchar(255)"`
	Tagline         string    `json:"tagline,omitempty" bson:"tagline,omitempty" gorm:"type:varchar(255)"`
	MainURL         string    `json:"mainUrl,omitempty" bson:"mainUrl,omitempty" gorm:"column:main_url;type:varchar(500)"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasLogo reports whether the store references an uploaded logo asset.
func (s *Store) HasLogo() bool {
	return s.Logo != "" && s.Logo != DefaultStoreLogo
}

var (
	slugSpace   = regexp.MustCompile(`\s`)
	slugNonWord = regexp.MustCompile(`[^\w-]+`)
)

// Slugify derives a URL slug from a store name: lowercased, every whitespace
// character turned into a hyphen, anything outside [A-Za-z0-9_-] removed.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugSpace.ReplaceAllString(s, "-")
	return slugNonWord.ReplaceAllString(s, "")
}
