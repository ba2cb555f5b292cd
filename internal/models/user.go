// Package models contains data structures for the application's domain models.
package models

// DefaultProfileImage is the avatar every account starts with.
const DefaultProfileImage = "default.jpg"

// DefaultAboutAuthor is the bio every account starts with.
const DefaultAboutAuthor = "About info goes here"

// User represents a registered author.
type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Username    string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email       string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	ImageFile   string `gorm:"size:32;not null;default:default.jpg" json:"image_file"`
	Password    string `gorm:"size:60;not null" json:"-"`
	AboutAuthor string `gorm:"size:1000;not null;default:About info goes here" json:"about_author"`
	Posts       []Post `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"posts,omitempty"`
}

// TableName keeps the historical singular table name.
func (User) TableName() string {
	return "user"
}

// ProfileImagePath is the avatar location relative to the static root.
func (u *User) ProfileImagePath() string {
	return "images/profile_pics/" + u.ImageFile
}
