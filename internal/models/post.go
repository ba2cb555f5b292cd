package models

import "time"

const (
	// DefaultPostImage is the background used when a post is created without an upload.
	DefaultPostImage = "images/background_images/default.png"
	// DefaultImageTitle is the caption shown for DefaultPostImage.
	DefaultImageTitle = "Place title here"
)

// Post represents a blog article.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Introduction  string    `gorm:"type:text;not null" json:"introduction"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	DatePosted    time.Time `gorm:"not null;index" json:"date_posted"`
	Category      string    `gorm:"size:100;not null;index" json:"category"`
	ImageFilename string    `gorm:"size:120;not null;default:images/background_images/default.png" json:"image_filename"`
	ImageTitle    string    `gorm:"size:120;not null;default:Place title here" json:"image_title"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Author        User      `gorm:"foreignKey:UserID" json:"author"`
}

// TableName keeps the historical singular table name.
func (Post) TableName() string {
	return "post"
}

// IsAuthoredBy reports whether userID owns the post.
func (p *Post) IsAuthoredBy(userID uint) bool {
	return userID != 0 && p.UserID == userID
}
