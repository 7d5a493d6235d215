package keys

import (
	"database/sql"
	"time"

	"github.com/custodia-hq/treasury-wallet-api/datastore"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	db.AutoMigrate(&FeePayerKey{})
	return &GormStore{db}
}

func (s *GormStore) Keys(o datastore.ListOptions) (kk []FeePayerKey, err error) {
	err = s.db.
		Order("id asc").
		Limit(o.Limit).
		Offset(o.Offset).
		Find(&kk).Error
	return
}

func (s *GormStore) Key(id int) (k FeePayerKey, err error) {
	err = s.db.First(&k, id).Error
	return
}

func (s *GormStore) ActiveKeys() (kk []FeePayerKey, err error) {
	err = s.db.
		Where("is_active = ?", true).
		Where("encrypted_secret IS NOT NULL AND encrypted_secret <> ''").
		Order("id asc").
		Find(&kk).Error
	return
}

// claim selects one candidate row under a row lock, records the usage in
// the same transaction and returns the updated row. Sqlite has no
// SELECT .. FOR UPDATE; its single writer makes the lock redundant.
func (s *GormStore) claim(where func(*gorm.DB) *gorm.DB) (FeePayerKey, error) {
	var k FeePayerKey

	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("is_active = ?", true).
			Where("encrypted_secret IS NOT NULL AND encrypted_secret <> ''")

		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		if err := where(q).First(&k).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&k).Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + ?", 1),
			"last_used_at": now,
		}).Error; err != nil {
			return err
		}

		k.UsageCount++
		k.LastUsedAt = sql.NullTime{Time: now, Valid: true}

		return nil
	})

	return k, err
}

func (s *GormStore) ClaimKey(id int) (FeePayerKey, error) {
	return s.claim(func(q *gorm.DB) *gorm.DB {
		return q.Where("id = ?", id)
	})
}

func (s *GormStore) ClaimLeastUsed() (FeePayerKey, error) {
	return s.claim(func(q *gorm.DB) *gorm.DB {
		return q.Order("usage_count asc").Order("id asc")
	})
}

func (s *GormStore) ClaimAny() (FeePayerKey, error) {
	return s.claim(func(q *gorm.DB) *gorm.DB {
		return q.Order("id asc")
	})
}

func (s *GormStore) UpdateBalance(id int, balance float64) error {
	return s.db.
		Model(&FeePayerKey{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}

func (s *GormStore) SetActive(id int, active bool) (FeePayerKey, error) {
	var k FeePayerKey
	if err := s.db.First(&k, id).Error; err != nil {
		return FeePayerKey{}, err
	}
	if err := s.db.Model(&k).Update("is_active", active).Error; err != nil {
		return FeePayerKey{}, err
	}
	k.IsActive = active
	return k, nil
}
