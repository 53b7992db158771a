package model

import "time"

// User 社区成员（索引投影只取展示名）
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"type:varchar(64);uniqueIndex"`
	Email     string `gorm:"type:varchar(128);uniqueIndex"`
	Nickname  string `gorm:"type:varchar(64)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
