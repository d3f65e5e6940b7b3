package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"_id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Role names accepted at registration
const (
	RoleUser       = "user"
	RoleInstructor = "instructor"
)

// Config is the singleton row holding server-generated secrets
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // 64 hex chars, generated on first start
}

// User represents a learner or instructor account
type User struct {
	BaseModel
	UserName     string    `json:"userName" gorm:"unique;not null"`
	UserEmail    string    `json:"userEmail" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null;default:user"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// RevokedToken records a logged-out token ID until the token would have expired anyway
type RevokedToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)"` // JWT jti
	UserID    string    `gorm:"type:varchar(26);index"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Config{}, &User{}, &RevokedToken{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// IsRevoked reports whether the token ID has been logged out
func IsRevoked(db *gorm.DB, tokenID string) (bool, error) {
	var count int64
	if err := db.Model(&RevokedToken{}).Where("id = ?", tokenID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeRevokedTokens deletes revocations whose tokens have expired by now
func PurgeRevokedTokens(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ?", now).Delete(&RevokedToken{})
	return result.RowsAffected, result.Error
}
