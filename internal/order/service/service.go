package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	discountdomain "github.com/rareminds/skillpassport-billing/internal/discount/domain"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	"github.com/rareminds/skillpassport-billing/internal/order/domain"
	paymentdomain "github.com/rareminds/skillpassport-billing/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	currency         = "INR"
	maxReceiptLength = 40
	paisePerRupee    = 100
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	CatalogSvc      catalogdomain.Service
	DiscountSvc     discountdomain.Service
	Gateway         paymentdomain.Gateway
	OrderRepo       domain.Repository
	EntitlementRepo entitlementdomain.Repository
}

type service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	catalogSvc      catalogdomain.Service
	discountSvc     discountdomain.Service
	gateway         paymentdomain.Gateway
	orderRepo       domain.Repository
	entitlementRepo entitlementdomain.Repository
}

func New(p Params) domain.Service {
	return &service{
		db:              p.DB,
		log:             p.Log.Named("order"),
		genID:           p.GenID,
		clock:           p.Clock,
		catalogSvc:      p.CatalogSvc,
		discountSvc:     p.DiscountSvc,
		gateway:         p.Gateway,
		orderRepo:       p.OrderRepo,
		entitlementRepo: p.EntitlementRepo,
	}
}

func (s *service) CreateAddOnOrder(ctx context.Context, req domain.CreateAddOnOrderRequest) (*domain.OrderResponse, error) {
	period, err := catalogdomain.ParseBillingPeriod(req.BillingPeriod)
	if err != nil {
		return nil, err
	}
	featureKey := strings.TrimSpace(req.FeatureKey)

	basePrice, err := s.catalogSvc.ResolveAddOnPrice(ctx, featureKey, period)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	live, err := s.entitlementRepo.ListLiveByUserFeature(ctx, s.db, req.UserID, featureKey, now)
	if err != nil {
		return nil, err
	}
	if len(live) > 0 {
		return nil, domain.ErrAlreadyOwned
	}

	receipt := buildReceipt("addon", featureKey, now)
	notes := map[string]string{
		"user_id":        req.UserID,
		"type":           string(entitlementdomain.SourceAddOn),
		"feature_key":    featureKey,
		"billing_period": string(period),
	}
	return s.createOrder(ctx, createOrderArgs{
		userID:     req.UserID,
		sourceType: entitlementdomain.SourceAddOn,
		featureKey: &featureKey,
		period:     period,
		basePrice:  basePrice,
		discount:   req.DiscountCode,
		receipt:    receipt,
		notes:      notes,
		now:        now,
	})
}

func (s *service) CreateBundleOrder(ctx context.Context, req domain.CreateBundleOrderRequest) (*domain.OrderResponse, error) {
	period, err := catalogdomain.ParseBillingPeriod(req.BillingPeriod)
	if err != nil {
		return nil, err
	}

	bundlePrice, err := s.catalogSvc.ResolveBundlePrice(ctx, req.BundleID, period)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ownedAll := true
	for _, key := range bundlePrice.FeatureKeys {
		live, err := s.entitlementRepo.ListLiveByUserFeature(ctx, s.db, req.UserID, key, now)
		if err != nil {
			return nil, err
		}
		if len(live) == 0 {
			ownedAll = false
			break
		}
	}
	if ownedAll {
		return nil, domain.ErrAlreadyOwned
	}

	keys, err := json.Marshal(bundlePrice.FeatureKeys)
	if err != nil {
		return nil, err
	}
	bundleID := bundlePrice.Bundle.ID
	receipt := buildReceipt("bundle", bundlePrice.Bundle.Slug, now)
	notes := map[string]string{
		"user_id":        req.UserID,
		"type":           string(entitlementdomain.SourceBundle),
		"bundle_id":      bundleID.String(),
		"billing_period": string(period),
	}
	return s.createOrder(ctx, createOrderArgs{
		userID:      req.UserID,
		sourceType:  entitlementdomain.SourceBundle,
		bundleID:    &bundleID,
		featureKeys: keys,
		period:      period,
		basePrice:   bundlePrice.Price,
		discount:    req.DiscountCode,
		receipt:     receipt,
		notes:       notes,
		now:         now,
	})
}

type createOrderArgs struct {
	userID      string
	sourceType  entitlementdomain.SourceType
	featureKey  *string
	bundleID    *snowflake.ID
	featureKeys []byte
	period      catalogdomain.BillingPeriod
	basePrice   int64
	discount    string
	receipt     string
	notes       map[string]string
	now         time.Time
}

func (s *service) createOrder(ctx context.Context, args createOrderArgs) (*domain.OrderResponse, error) {
	resolution, err := s.discountSvc.Resolve(ctx, args.discount, args.basePrice)
	if err != nil {
		return nil, err
	}
	finalPrice := args.basePrice - resolution.Amount

	gwOrder, err := s.gateway.CreateOrder(ctx, paymentdomain.OrderRequest{
		AmountPaise: finalPrice * paisePerRupee,
		Currency:    currency,
		Receipt:     args.receipt,
		Notes:       args.notes,
	})
	if err != nil {
		return nil, err
	}

	row := &domain.PendingOrder{
		ID:             s.genID.Generate(),
		OrderID:        gwOrder.ID,
		UserID:         args.userID,
		SourceType:     args.sourceType,
		FeatureKey:     args.featureKey,
		BundleID:       args.bundleID,
		FeatureKeys:    args.featureKeys,
		BillingPeriod:  args.period,
		BasePrice:      args.basePrice,
		DiscountAmount: resolution.Amount,
		FinalPrice:     finalPrice,
		Currency:       gwOrder.Currency,
		Status:         domain.StatusPending,
		CreatedAt:      args.now,
		UpdatedAt:      args.now,
	}
	if resolution.Applied {
		code := resolution.Code
		row.DiscountCode = &code
	}
	if err := s.orderRepo.Insert(ctx, s.db, row); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", gwOrder.ID),
		zap.String("user_id", args.userID),
		zap.String("source_type", string(args.sourceType)),
		zap.Int64("final_price", finalPrice),
		zap.Bool("discount_applied", resolution.Applied),
	)
	return &domain.OrderResponse{
		OrderID:         gwOrder.ID,
		AmountPaise:     gwOrder.AmountPaise,
		Currency:        gwOrder.Currency,
		BasePrice:       args.basePrice,
		DiscountAmount:  resolution.Amount,
		FinalPrice:      finalPrice,
		DiscountApplied: resolution.Applied,
	}, nil
}

func (s *service) VerifyPayment(ctx context.Context, req domain.VerifyRequest) (*domain.VerifyResponse, error) {
	orderID := strings.TrimSpace(req.OrderID)
	paymentID := strings.TrimSpace(req.PaymentID)
	signature := strings.TrimSpace(req.Signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, domain.ErrMissingVerificationField
	}

	order, err := s.orderRepo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		if _, err := s.orderRepo.TransitionFromPending(ctx, s.db, orderID, domain.StatusSignatureFailed, nil, nil); err != nil {
			s.log.Warn("mark signature_failed failed", zap.String("order_id", orderID), zap.Error(err))
		}
		s.log.Warn("payment signature mismatch",
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID),
		)
		return nil, domain.ErrInvalidSignature
	}

	if order.Status != domain.StatusPending {
		return nil, domain.ErrOrderAlreadyProcessed
	}

	now := s.clock.Now()
	var created []entitlementdomain.Entitlement
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.orderRepo.TransitionFromPending(ctx, tx, orderID, domain.StatusCompleted, &paymentID, &now)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.ErrOrderAlreadyProcessed
		}

		created, err = s.writeEntitlements(ctx, tx, order, paymentID, now)
		if err != nil {
			return err
		}

		if order.DiscountCode != nil && order.DiscountAmount > 0 {
			if err := s.discountSvc.IncrementUsage(ctx, tx, *order.DiscountCode); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, domain.ErrOrderAlreadyProcessed) {
			return nil, txErr
		}
		// The charge is verified at this point. Record the failure on
		// the order and report that payment succeeded.
		if _, err := s.orderRepo.TransitionFromPending(ctx, s.db, orderID, domain.StatusEntitlementFailed, &paymentID, nil); err != nil {
			s.log.Error("mark entitlement_failed failed", zap.String("order_id", orderID), zap.Error(err))
		}
		s.log.Error("entitlement activation failed",
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID),
			zap.Error(txErr),
		)
		return nil, &domain.ActivationError{OrderID: orderID, PaymentID: paymentID, Err: txErr}
	}

	s.log.Info("payment verified",
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID),
		zap.Int("entitlements", len(created)),
	)
	return &domain.VerifyResponse{OrderID: orderID, Entitlements: created}, nil
}

// writeEntitlements grants one row per purchased feature. The period is
// anchored at verification time, and a bundle's price is split evenly
// with the remainder on the first row so the sum equals the charge.
func (s *service) writeEntitlements(ctx context.Context, tx *gorm.DB, order *domain.PendingOrder, paymentID string, now time.Time) ([]entitlementdomain.Entitlement, error) {
	var keys []string
	if order.SourceType == entitlementdomain.SourceBundle {
		if err := json.Unmarshal(order.FeatureKeys, &keys); err != nil {
			return nil, domain.ErrOrderCorrupted
		}
	} else if order.FeatureKey != nil {
		keys = []string{*order.FeatureKey}
	}
	if len(keys) == 0 {
		return nil, domain.ErrOrderCorrupted
	}

	share := order.FinalPrice / int64(len(keys))
	remainder := order.FinalPrice % int64(len(keys))
	endDate := order.BillingPeriod.NextEnd(now)

	created := make([]entitlementdomain.Entitlement, 0, len(keys))
	for i, key := range keys {
		if err := s.entitlementRepo.SupersedeLive(ctx, tx, order.UserID, key, now); err != nil {
			return nil, err
		}

		price := share
		if i == 0 {
			price += remainder
		}
		row := entitlementdomain.Entitlement{
			ID:            s.genID.Generate(),
			UserID:        order.UserID,
			FeatureKey:    key,
			SourceType:    order.SourceType,
			BundleID:      order.BundleID,
			BillingPeriod: order.BillingPeriod,
			StartDate:     now,
			EndDate:       endDate,
			PricePaid:     price,
			Status:        entitlementdomain.StatusActive,
			OrderID:       order.OrderID,
			PaymentID:     paymentID,
			PaymentRef:    paymentID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.entitlementRepo.Insert(ctx, tx, &row); err != nil {
			return nil, err
		}
		created = append(created, row)
	}
	return created, nil
}

func buildReceipt(kind, slug string, now time.Time) string {
	receipt := fmt.Sprintf("%s_%s_%d", kind, slug, now.Unix())
	if len(receipt) > maxReceiptLength {
		receipt = receipt[:maxReceiptLength]
	}
	return receipt
}
