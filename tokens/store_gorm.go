package tokens

import (
	"github.com/custodia-hq/treasury-wallet-api/datastore"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	db.AutoMigrate(&TreasuryToken{})
	return &GormStore{db}
}

func (s *GormStore) Tokens(o datastore.ListOptions) (tt []TreasuryToken, err error) {
	err = s.db.
		Order("created_at desc").
		Limit(o.Limit).
		Offset(o.Offset).
		Find(&tt).Error
	return
}

func (s *GormStore) Token(id string) (t TreasuryToken, err error) {
	err = s.db.Where(&TreasuryToken{ID: id}).First(&t).Error
	return
}
