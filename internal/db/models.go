package db

import (
	"time"
)

// Gender values accepted for User.Gender.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User is a registered account.
//
// Username is stored lowercased so the unique index enforces
// case-insensitive uniqueness.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Gender       string    `gorm:"size:16;not null;index:idx_users_gender_dob,priority:1"`
	DateOfBirth  time.Time `gorm:"not null;index:idx_users_gender_dob,priority:2"`
	KnownAs      string    `gorm:"size:64"`
	City         string    `gorm:"size:64"`
	Country      string    `gorm:"size:64"`
	Introduction string    `gorm:"type:text"`
	LookingFor   string    `gorm:"type:text"`
	Interests    string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
	LastActive   time.Time `gorm:"index"`
}

// Age returns the user's age in whole years at the given instant.
func (u User) Age(now time.Time) int {
	dob := u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// Like is a directed "liker likes likee" edge.
//
// Composite PK: (LikerID, LikeeID)
//   - At most one edge per ordered pair; a second insert is rejected by
//     the database, which is what makes concurrent likes safe.
//
// Indexes:
//   - idx_likes_likee_created(likee_id, created_at DESC)
//     Serves "who liked me" lookups and counters.
type Like struct {
	LikerID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	LikeeID   uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_likes_likee_created,priority:1"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_likes_likee_created,priority:2,sort:desc"`
}
