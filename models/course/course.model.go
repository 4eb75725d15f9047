package course

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a learning course
type Course struct {
	gorm.Model
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	InstructorID uint       `json:"instructor_id" gorm:"index"`
	Price        int64      `json:"price" gorm:"default:0"` // minor units, 0 means free
	Currency     string     `json:"currency" gorm:"default:'INR'"`
	ThumbnailURL string     `json:"thumbnail_url"`
	IsPublished  bool       `json:"is_published" gorm:"default:false"`
	PublishedAt  *time.Time `json:"published_at"` // first publication
	IsDeleted    bool       `json:"-" gorm:"default:false"`
}

func (c Course) IsFree() bool { return c.Price <= 0 }
