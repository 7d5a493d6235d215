package auth

import (
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	db.AutoMigrate(&Session{}, &UserRole{})
	return &GormStore{db}
}

func (s *GormStore) Session(token string) (sess Session, err error) {
	err = s.db.Where(&Session{Token: token}).First(&sess).Error
	return
}

func (s *GormStore) UserRoles(userID string) (rr []UserRole, err error) {
	err = s.db.Where(&UserRole{UserID: userID}).Find(&rr).Error
	return
}
