package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/koraei/bank/internal/users"
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	Get(ctx context.Context, id string) (Account, error)
	// Save writes the balances of all given accounts atomically. Either
	// every account is stored or none is.
	Save(ctx context.Context, accounts ...Account) error
}

// Record is the gorm mapping of the bank_account table.
type Record struct {
	ID                string       `gorm:"primaryKey;size:36"`
	AccountHolderName string       `gorm:"column:account_holder_name;not null"`
	Balance           float64      `gorm:"not null"`
	UpdatedAt         time.Time    `gorm:"not null"`
	UserID            int64        `gorm:"index;not null"`
	User              users.Record `gorm:"foreignKey:UserID"`
}

// TableName binds Record to the bank_account table.
func (Record) TableName() string {
	return "bank_account"
}

func (r Record) toAccount() Account {
	return Account{
		ID:         r.ID,
		HolderName: r.AccountHolderName,
		Balance:    r.Balance,
		UpdatedAt:  r.UpdatedAt,
		UserID:     r.UserID,
		Owner:      r.User.ToUser(),
	}
}

// GormRepository stores accounts through gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a repository backed by the given gorm handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the bank_account table.
func (r *GormRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Record{})
}

// Create inserts a new account row.
func (r *GormRepository) Create(ctx context.Context, a Account) error {
	rec := Record{
		ID:                a.ID,
		AccountHolderName: a.HolderName,
		Balance:           a.Balance,
		UpdatedAt:         a.UpdatedAt,
		UserID:            a.UserID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Get fetches an account and its owner.
func (r *GormRepository) Get(ctx context.Context, id string) (Account, error) {
	var rec Record
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return rec.toAccount(), nil
}

// Save updates balances inside one transaction.
func (r *GormRepository) Save(ctx context.Context, accounts ...Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range accounts {
			res := tx.Model(&Record{}).Where("id = ?", a.ID).Updates(map[string]any{
				"balance":    a.Balance,
				"updated_at": a.UpdatedAt,
			})
			if res.Error != nil {
				return fmt.Errorf("update account %s: %w", a.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("update account %s: %w", a.ID, ErrNotFound)
			}
		}
		return nil
	})
}

var _ Repository = (*GormRepository)(nil)
