package service

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound          = errors.New("coupon not found")
	ErrDuplicateCouponCode     = errors.New("coupon code already exists")
	ErrInvalidCoupon           = errors.New("invalid coupon definition")
	ErrCouponExpired           = errors.New("coupon is expired or not yet active")
	ErrCouponNotEligible       = errors.New("cart does not satisfy coupon conditions")
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
	ErrCouponInUse             = errors.New("coupon has usage history")
	ErrNoCouponApplied         = errors.New("no such coupon applied to cart")
)

// CouponInput carries admin create/update fields. Scope targets are replaced
// wholesale on update.
type CouponInput struct {
	Code                  string             `json:"code" binding:"required"`
	Type                  model.DiscountType `json:"type" binding:"required"`
	Value                 float64            `json:"value" binding:"required"`
	Scope                 model.CouponScope  `json:"scope"`
	ProductIDs            []uint             `json:"product_ids"`
	Categories            []string           `json:"categories"`
	MinimumOrderAmount    float64            `json:"minimum_order_amount"`
	MaximumDiscountAmount *float64           `json:"maximum_discount_amount"`
	StartsAt              *time.Time         `json:"starts_at"`
	EndsAt                *time.Time         `json:"ends_at"`
	IsOneTimeUse          bool               `json:"is_one_time_use"`
	CustomerUsageLimit    int                `json:"customer_usage_limit"`
	Priority              int                `json:"priority"`
	IsActive              *bool              `json:"is_active"`
}

type CouponService interface {
	CreateCoupon(input CouponInput) (*model.Coupon, error)
	UpdateCoupon(id uint, input CouponInput) (*model.Coupon, error)
	DeleteCoupon(id uint, hard bool) error
	GetCoupon(id uint) (*model.Coupon, error)
	ListCoupons() ([]model.Coupon, error)

	ApplyCoupon(actor model.Actor, code string) (*CartSummary, error)
	RemoveCoupon(actor model.Actor, code string) (*CartSummary, error)
	// BestCouponForCart evaluates every live coupon against the cart and
	// returns the winner, or nil when none qualifies.
	BestCouponForCart(actor model.Actor) (*model.Coupon, DiscountQuote, error)

	DeactivateExpired(now time.Time) (int64, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
	cartSvc    CartService
}

func NewCouponService(couponRepo repository.CouponRepository, cartRepo repository.CartRepository, cartSvc CartService) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		cartRepo:   cartRepo,
		cartSvc:    cartSvc,
	}
}

func (s *couponService) validateInput(input *CouponInput) error {
	input.Code = model.NormalizeCouponCode(input.Code)
	if input.Code == "" {
		return ErrInvalidCoupon
	}
	if !input.Type.Valid() {
		return ErrInvalidCoupon
	}
	if input.Value <= 0 {
		return ErrInvalidCoupon
	}
	if input.Type == model.DiscountPercentage && input.Value > 100 {
		return ErrInvalidCoupon
	}
	if input.Scope == "" {
		input.Scope = model.ScopeCart
	}
	if !input.Scope.Valid() {
		return ErrInvalidCoupon
	}
	if input.Scope == model.ScopeProducts && len(input.ProductIDs) == 0 {
		return ErrInvalidCoupon
	}
	if input.Scope == model.ScopeCategories && len(input.Categories) == 0 {
		return ErrInvalidCoupon
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return ErrInvalidCoupon
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (s *couponService) CreateCoupon(input CouponInput) (*model.Coupon, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	// Fail fast on a known code; the unique index still backstops races.
	if _, err := s.couponRepo.FindByCode(input.Code); err == nil {
		return nil, ErrDuplicateCouponCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	coupon := &model.Coupon{
		Code:                  input.Code,
		Type:                  input.Type,
		Value:                 input.Value,
		Scope:                 input.Scope,
		MinimumOrderAmount:    input.MinimumOrderAmount,
		MaximumDiscountAmount: input.MaximumDiscountAmount,
		StartsAt:              input.StartsAt,
		EndsAt:                input.EndsAt,
		IsOneTimeUse:          input.IsOneTimeUse,
		CustomerUsageLimit:    input.CustomerUsageLimit,
		Priority:              input.Priority,
		IsActive:              true,
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	applyScopeTargets(coupon, input)

	if err := s.couponRepo.Create(coupon); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCouponCode
		}
		return nil, err
	}

	logger.Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	return coupon, nil
}

func applyScopeTargets(coupon *model.Coupon, input CouponInput) {
	coupon.Products = nil
	coupon.Categories = nil
	switch input.Scope {
	case model.ScopeProducts:
		for _, id := range input.ProductIDs {
			coupon.Products = append(coupon.Products, model.CouponProduct{ProductID: id})
		}
	case model.ScopeCategories:
		for _, category := range input.Categories {
			coupon.Categories = append(coupon.Categories, model.CouponCategory{Category: category})
		}
	}
}

func (s *couponService) UpdateCoupon(id uint, input CouponInput) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	if input.Code != coupon.Code {
		if _, err := s.couponRepo.FindByCode(input.Code); err == nil {
			return nil, ErrDuplicateCouponCode
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	coupon.Code = input.Code
	coupon.Type = input.Type
	coupon.Value = input.Value
	coupon.Scope = input.Scope
	coupon.MinimumOrderAmount = input.MinimumOrderAmount
	coupon.MaximumDiscountAmount = input.MaximumDiscountAmount
	coupon.StartsAt = input.StartsAt
	coupon.EndsAt = input.EndsAt
	coupon.IsOneTimeUse = input.IsOneTimeUse
	coupon.CustomerUsageLimit = input.CustomerUsageLimit
	coupon.Priority = input.Priority
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	applyScopeTargets(coupon, input)

	if err := s.couponRepo.Update(coupon); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCouponCode
		}
		return nil, err
	}
	return coupon, nil
}

// DeleteCoupon refuses both soft and hard deletion once redemptions exist;
// deactivation is the way to retire a used coupon.
func (s *couponService) DeleteCoupon(id uint, hard bool) error {
	if _, err := s.couponRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}

	usage, err := s.couponRepo.CountUsage(id)
	if err != nil {
		return err
	}
	if usage > 0 {
		return ErrCouponInUse
	}

	if hard {
		return s.couponRepo.HardDelete(id)
	}
	return s.couponRepo.SoftDelete(id)
}

func (s *couponService) GetCoupon(id uint) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) ListCoupons() ([]model.Coupon, error) {
	return s.couponRepo.List()
}

// ApplyCoupon validates the coupon against the cart and pins it. The checks
// run again inside checkout; this is the interactive, fail-fast pass.
func (s *couponService) ApplyCoupon(actor model.Actor, code string) (*CartSummary, error) {
	cart, err := s.cartRepo.FindByActor(actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	coupon, err := s.couponRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	if err := s.checkRedeemable(coupon, actor, cart.Items); err != nil {
		return nil, err
	}

	if err := s.cartRepo.SetCoupon(cart.ID, &coupon.ID); err != nil {
		return nil, err
	}

	logger.Info("Coupon applied to cart", map[string]interface{}{
		"cart_id":   cart.ID,
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	return s.cartSvc.GetCart(actor)
}

// checkRedeemable runs the liveness, eligibility and usage-limit gates in
// order, so the caller sees the most specific failure.
func (s *couponService) checkRedeemable(coupon *model.Coupon, actor model.Actor, items []model.CartItem) error {
	if !coupon.IsActive || !coupon.WithinWindow(time.Now()) {
		return ErrCouponExpired
	}

	if quote := EvaluateCoupon(coupon, items); !quote.Eligible {
		return ErrCouponNotEligible
	}

	// Usage limits key on the authenticated identity; guests get counted
	// only once their order is placed under a user account.
	if limit := coupon.EffectiveUsageLimit(); limit > 0 && !actor.IsGuest() {
		used, err := s.couponRepo.CountUsageByUser(coupon.ID, actor.UserID)
		if err != nil {
			return err
		}
		if used >= int64(limit) {
			return ErrCouponUsageLimitReached
		}
	}
	return nil
}

func (s *couponService) RemoveCoupon(actor model.Actor, code string) (*CartSummary, error) {
	cart, err := s.cartRepo.FindByActor(actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	if cart.CouponID == nil || cart.Coupon == nil ||
		cart.Coupon.Code != model.NormalizeCouponCode(code) {
		return nil, ErrNoCouponApplied
	}

	if err := s.cartRepo.SetCoupon(cart.ID, nil); err != nil {
		return nil, err
	}
	return s.cartSvc.GetCart(actor)
}

func (s *couponService) BestCouponForCart(actor model.Actor) (*model.Coupon, DiscountQuote, error) {
	cart, err := s.cartRepo.FindByActor(actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, DiscountQuote{}, ErrCartNotFound
		}
		return nil, DiscountQuote{}, err
	}

	coupons, err := s.couponRepo.FindActive(time.Now())
	if err != nil {
		return nil, DiscountQuote{}, err
	}

	best, quote := BestCoupon(coupons, cart.Items)
	return best, quote, nil
}

func (s *couponService) DeactivateExpired(now time.Time) (int64, error) {
	count, err := s.couponRepo.DeactivateExpired(now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info("Expired coupons deactivated", map[string]interface{}{
			"count": count,
		})
	}
	return count, nil
}
