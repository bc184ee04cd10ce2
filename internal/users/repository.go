package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound indicates no user exists for the requested identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateIDCard indicates the id card is already registered.
	ErrDuplicateIDCard = errors.New("id card already registered")
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	FindByIDCard(ctx context.Context, idCard string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) error
}

// Record is the gorm mapping of the users table.
type Record struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Phone     string    `gorm:"not null"`
	IDCard    string    `gorm:"uniqueIndex;not null"`
}

// TableName binds Record to the users table.
func (Record) TableName() string {
	return "users"
}

// ToUser converts the stored row into the domain value.
func (r Record) ToUser() User {
	return User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		IDCard:    r.IDCard,
		CreatedAt: r.CreatedAt,
	}
}

// GormRepository stores users through gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a repository backed by the given gorm handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the users table.
func (r *GormRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Record{})
}

// Create inserts a user and returns it with its assigned identifier.
func (r *GormRepository) Create(ctx context.Context, user User) (User, error) {
	rec := Record{
		CreatedAt: user.CreatedAt,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		IDCard:    user.IDCard,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, ErrDuplicateIDCard
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return rec.ToUser(), nil
}

// Get fetches a user by identifier.
func (r *GormRepository) Get(ctx context.Context, id int64) (User, error) {
	var rec Record
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return rec.ToUser(), nil
}

// FindByIDCard fetches a user by id card.
func (r *GormRepository) FindByIDCard(ctx context.Context, idCard string) (User, error) {
	var rec Record
	if err := r.db.WithContext(ctx).Where("id_card = ?", idCard).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return rec.ToUser(), nil
}

// List returns every user ordered by identifier.
func (r *GormRepository) List(ctx context.Context) ([]User, error) {
	var recs []Record
	if err := r.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]User, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.ToUser())
	}
	return out, nil
}

// Update stores the mutable fields of user.
func (r *GormRepository) Update(ctx context.Context, user User) error {
	res := r.db.WithContext(ctx).Model(&Record{}).Where("id = ?", user.ID).Updates(map[string]any{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      user.Phone,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ Repository = (*GormRepository)(nil)
