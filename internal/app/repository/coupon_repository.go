package repository

import (
	"time"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	Update(coupon *model.Coupon) error
	FindByID(id uint) (*model.Coupon, error)
	FindByIDForUpdate(id uint) (*model.Coupon, error)
	FindByCode(code string) (*model.Coupon, error)
	FindActive(now time.Time) ([]model.Coupon, error)
	List() ([]model.Coupon, error)
	SoftDelete(id uint) error
	HardDelete(id uint) error

	CountUsage(couponID uint) (int64, error)
	CountUsageByUser(couponID, userID uint) (int64, error)
	CreateUsage(usage *model.CouponUsage) error
	DeactivateExpired(now time.Time) (int64, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) preload() *gorm.DB {
	return r.db.Preload("Products").Preload("Categories")
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	if err := r.db.Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon in database", err, map[string]interface{}{
			"code": coupon.Code,
		})
		return err
	}
	logger.Debug("Coupon created in database", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	return nil
}

func (r *couponRepository) Update(coupon *model.Coupon) error {
	if err := r.db.Save(coupon).Error; err != nil {
		logger.Error("Failed to update coupon in database", err, map[string]interface{}{
			"coupon_id": coupon.ID,
		})
		return err
	}
	return nil
}

func (r *couponRepository) FindByID(id uint) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.preload().First(&coupon, id).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByIDForUpdate loads the coupon holding a row lock. Checkouts take it
// before counting usage so the count and the usage insert are atomic against
// concurrent redemptions of the same coupon.
func (r *couponRepository) FindByIDForUpdate(id uint) (*model.Coupon, error) {
	if err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model.Coupon{}, id).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}

func (r *couponRepository) FindByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.preload().
		Where("code = ?", model.NormalizeCouponCode(code)).
		First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindActive(now time.Time) ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.preload().
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("priority DESC").
		Find(&coupons).Error; err != nil {
		logger.Error("Failed to list active coupons", err, nil)
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) List() ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.preload().Order("created_at DESC").Find(&coupons).Error; err != nil {
		logger.Error("Failed to list coupons", err, nil)
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) SoftDelete(id uint) error {
	if err := r.db.Delete(&model.Coupon{}, id).Error; err != nil {
		logger.Error("Failed to soft delete coupon", err, map[string]interface{}{
			"coupon_id": id,
		})
		return err
	}
	return nil
}

func (r *couponRepository) HardDelete(id uint) error {
	if err := r.db.Unscoped().Delete(&model.Coupon{}, id).Error; err != nil {
		logger.Error("Failed to hard delete coupon", err, map[string]interface{}{
			"coupon_id": id,
		})
		return err
	}
	return nil
}

func (r *couponRepository) CountUsage(couponID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.CouponUsage{}).
		Where("coupon_id = ?", couponID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *couponRepository) CountUsageByUser(couponID, userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *couponRepository) CreateUsage(usage *model.CouponUsage) error {
	if err := r.db.Create(usage).Error; err != nil {
		logger.Error("Failed to record coupon usage", err, map[string]interface{}{
			"coupon_id": usage.CouponID,
			"user_id":   usage.UserID,
		})
		return err
	}
	return nil
}

// DeactivateExpired flips is_active off for coupons whose window has closed.
// Called by the scheduler.
func (r *couponRepository) DeactivateExpired(now time.Time) (int64, error) {
	res := r.db.Model(&model.Coupon{}).
		Where("is_active = ? AND ends_at IS NOT NULL AND ends_at < ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		logger.Error("Failed to deactivate expired coupons", res.Error, nil)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
