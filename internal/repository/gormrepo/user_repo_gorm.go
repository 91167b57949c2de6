package gormrepo

import (
	"context"
	"errors"
	"log"

	"comazon/internal/domain"
	"comazon/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const savedItemsTable = "user_saved_items"

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	if user.Preference == nil {
		user.Preference = &domain.UserPreference{}
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		log.Printf("Create user error: %v", err)
		return translateError(err)
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Preload("Preference").First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByID user error: %v", err)
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepo) List(ctx context.Context, opts repository.ListOptions) ([]domain.User, error) {
	out := []domain.User{}
	q := r.db.WithContext(ctx).Model(&domain.User{}).Preload("Preference")
	if err := paginate(q, opts).Order(orderClause(opts.Sort, "users")).Find(&out).Error; err != nil {
		log.Printf("List users error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	found := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}

		fields := map[string]any{}
		if patch.Email != nil {
			fields["email"] = *patch.Email
		}
		if patch.Name != nil {
			fields["name"] = *patch.Name
		}
		if len(fields) > 0 {
			if err := tx.Model(&u).Updates(fields).Error; err != nil {
				return err
			}
		}

		prefFields := map[string]any{}
		if patch.ReceiveEmail != nil {
			prefFields["receive_email"] = *patch.ReceiveEmail
		}
		if patch.Theme != nil {
			prefFields["theme"] = *patch.Theme
		}
		if len(prefFields) == 0 {
			return nil
		}

		var pref domain.UserPreference
		err := tx.Where("user_id = ?", id).First(&pref).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pref = domain.UserPreference{UserID: id}
			if patch.ReceiveEmail != nil {
				pref.ReceiveEmail = *patch.ReceiveEmail
			}
			if patch.Theme != nil {
				pref.Theme = *patch.Theme
			}
			return tx.Create(&pref).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&pref).Updates(prefFields).Error
	})
	if err != nil {
		log.Printf("Update user error: %v", err)
		return nil, translateError(err)
	}
	if !found {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *userRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+savedItemsTable+" WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.UserPreference{}).Error; err != nil {
			return err
		}
		orderIDs := tx.Model(&domain.Order{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("order_id IN (?)", orderIDs).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Order{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.User{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		log.Printf("Delete user error: %v", err)
		return false, translateError(err)
	}
	return deleted, nil
}

func (r *userRepo) SavedItems(ctx context.Context, userID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.WithContext(ctx).
		Joins("JOIN "+savedItemsTable+" ON "+savedItemsTable+".product_id = products.id").
		Where(savedItemsTable+".user_id = ?", userID).
		Order("products.name ASC, products.id ASC").
		Find(&out).Error
	if err != nil {
		log.Printf("SavedItems error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *userRepo) AddSavedItem(ctx context.Context, userID, productID string) error {
	err := r.db.WithContext(ctx).
		Table(savedItemsTable).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"user_id": userID, "product_id": productID}).Error
	if err != nil {
		log.Printf("AddSavedItem error: %v", err)
		return translateError(err)
	}
	return nil
}

func (r *userRepo) RemoveSavedItem(ctx context.Context, userID, productID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Exec("DELETE FROM "+savedItemsTable+" WHERE user_id = ? AND product_id = ?", userID, productID)
	if result.Error != nil {
		log.Printf("RemoveSavedItem error: %v", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
