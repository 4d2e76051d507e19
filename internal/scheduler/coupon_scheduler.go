package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sellora/sellora-backend/internal/app/service"
	"github.com/sellora/sellora-backend/pkg/logger"
)

// CouponScheduler periodically deactivates coupons whose validity window has
// closed, so listings and lookups stop offering them even before the next
// per-request window check.
type CouponScheduler struct {
	cron          *cron.Cron
	couponService service.CouponService
}

func NewCouponScheduler(couponService service.CouponService) *CouponScheduler {
	return &CouponScheduler{
		cron:          cron.New(),
		couponService: couponService,
	}
}

func (s *CouponScheduler) Start() error {
	// Hourly sweep, on the hour.
	_, err := s.cron.AddFunc("0 * * * *", func() {
		count, err := s.couponService.DeactivateExpired(time.Now())
		if err != nil {
			logger.Error("Scheduled coupon expiry sweep failed", err)
			return
		}
		if count > 0 {
			logger.Info("Scheduled coupon expiry sweep finished", map[string]interface{}{
				"deactivated": count,
			})
		}
	})
	if err != nil {
		logger.Error("Failed to register coupon expiry job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Coupon scheduler started (hourly)", nil)
	return nil
}

func (s *CouponScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Coupon scheduler stopped", nil)
}
