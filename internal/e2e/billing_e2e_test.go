package e2e

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	accessservice "github.com/rareminds/skillpassport-billing/internal/access/service"
	"github.com/rareminds/skillpassport-billing/internal/auth"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	catalogrepo "github.com/rareminds/skillpassport-billing/internal/catalog/repository"
	catalogservice "github.com/rareminds/skillpassport-billing/internal/catalog/service"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/config"
	discountdomain "github.com/rareminds/skillpassport-billing/internal/discount/domain"
	discountrepo "github.com/rareminds/skillpassport-billing/internal/discount/repository"
	discountservice "github.com/rareminds/skillpassport-billing/internal/discount/service"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	entitlementrepo "github.com/rareminds/skillpassport-billing/internal/entitlement/repository"
	entitlementservice "github.com/rareminds/skillpassport-billing/internal/entitlement/service"
	"github.com/rareminds/skillpassport-billing/internal/lifecycle"
	"github.com/rareminds/skillpassport-billing/internal/notification/email"
	obsmetrics "github.com/rareminds/skillpassport-billing/internal/observability/metrics"
	orderdomain "github.com/rareminds/skillpassport-billing/internal/order/domain"
	orderrepo "github.com/rareminds/skillpassport-billing/internal/order/repository"
	orderservice "github.com/rareminds/skillpassport-billing/internal/order/service"
	organizationdomain "github.com/rareminds/skillpassport-billing/internal/organization/domain"
	organizationrepo "github.com/rareminds/skillpassport-billing/internal/organization/repository"
	organizationservice "github.com/rareminds/skillpassport-billing/internal/organization/service"
	"github.com/rareminds/skillpassport-billing/internal/payment/razorpay"
	"github.com/rareminds/skillpassport-billing/internal/seed"
	"github.com/rareminds/skillpassport-billing/internal/server"
	subscriptiondomain "github.com/rareminds/skillpassport-billing/internal/subscription/domain"
	subscriptionrepo "github.com/rareminds/skillpassport-billing/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	authSecret     = "e2e_auth_secret"
	systemToken    = "e2e_system_token"
	razorpaySecret = "e2e_razorpay_secret"
)

var dbSeq atomic.Int64

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type env struct {
	db       *gorm.DB
	engine   *gin.Engine
	verifier *auth.Verifier
	node     *snowflake.Node
	now      time.Time
	gateway  *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()

	// Each environment registers fresh Prometheus collectors.
	registry := prometheus.NewRegistry()
	oldRegisterer, oldGatherer := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer, prometheus.DefaultGatherer = registry, registry
	obsmetrics.ResetSchedulerMetricsForTest()
	t.Cleanup(func() {
		prometheus.DefaultRegisterer, prometheus.DefaultGatherer = oldRegisterer, oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	})

	dsn := fmt.Sprintf("file:e2e%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.AddOn{},
		&catalogdomain.Bundle{},
		&catalogdomain.BundleFeature{},
		&discountdomain.DiscountCode{},
		&orderdomain.PendingOrder{},
		&entitlementdomain.Entitlement{},
		&subscriptiondomain.Subscription{},
		&organizationdomain.OrgSubscription{},
		&organizationdomain.LicensePool{},
		&organizationdomain.LicenseAssignment{},
	))
	require.NoError(t, seed.EnsureDemoCatalog(db))

	var paySeq atomic.Int64
	gatewayStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders":
			var req struct {
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]any{
				"id":       fmt.Sprintf("order_e2e_%d", paySeq.Add(1)),
				"amount":   req.Amount,
				"currency": req.Currency,
				"status":   "created",
			})
		case "/payments/create/recurring":
			json.NewEncoder(w).Encode(map[string]any{
				"id":     fmt.Sprintf("pay_e2e_%d", paySeq.Add(1)),
				"status": "captured",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(gatewayStub.Close)

	log := zaptest.NewLogger(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fakeClock := clock.NewFakeClock(now)

	gateway := razorpay.New(razorpay.Config{
		KeyID:     "e2e_key",
		KeySecret: razorpaySecret,
		BaseURL:   gatewayStub.URL,
	}, log)
	notifier := email.New(email.Config{}, log)

	catalogSvc := catalogservice.New(catalogservice.Params{
		DB:   db,
		Log:  log,
		Repo: catalogrepo.Provide(),
	})
	discountSvc := discountservice.New(discountservice.Params{
		DB:    db,
		Log:   log,
		Repo:  discountrepo.Provide(),
		Clock: fakeClock,
	})
	orderSvc := orderservice.New(orderservice.Params{
		DB:              db,
		Log:             log,
		GenID:           node,
		Clock:           fakeClock,
		CatalogSvc:      catalogSvc,
		DiscountSvc:     discountSvc,
		Gateway:         gateway,
		OrderRepo:       orderrepo.Provide(),
		EntitlementRepo: entitlementrepo.Provide(),
	})
	entitlementSvc := entitlementservice.New(entitlementservice.Params{
		DB:    db,
		Log:   log,
		Repo:  entitlementrepo.Provide(),
		Clock: fakeClock,
	})
	organizationSvc := organizationservice.New(organizationservice.Params{
		DB:    db,
		Log:   log,
		Repo:  organizationrepo.Provide(),
		GenID: node,
		Clock: fakeClock,
	})
	accessSvc := accessservice.New(accessservice.Params{
		DB:               db,
		Log:              log,
		Clock:            fakeClock,
		EntitlementRepo:  entitlementrepo.Provide(),
		SubscriptionRepo: subscriptionrepo.Provide(),
		OrganizationSvc:  organizationSvc,
	})
	scheduler, err := lifecycle.New(lifecycle.Params{
		DB:               db,
		Log:              log,
		Clock:            fakeClock,
		Gateway:          gateway,
		Notifier:         notifier,
		CatalogSvc:       catalogSvc,
		EntitlementRepo:  entitlementrepo.Provide(),
		SubscriptionRepo: subscriptionrepo.Provide(),
	})
	require.NoError(t, err)

	cfg := config.Config{
		AuthSecret:  authSecret,
		SystemToken: systemToken,
	}
	verifier := auth.NewVerifier(cfg)

	engine := server.NewEngine(log, obsmetrics.NewHTTPMetrics(obsmetrics.Config{
		ServiceName: "skillpassport-billing",
		Environment: "test",
	}))
	server.NewServer(server.ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		Verifier:        verifier,
		CatalogSvc:      catalogSvc,
		OrderSvc:        orderSvc,
		EntitlementSvc:  entitlementSvc,
		AccessSvc:       accessSvc,
		OrganizationSvc: organizationSvc,
		Scheduler:       scheduler,
	})

	return &env{
		db:       db,
		engine:   engine,
		verifier: verifier,
		node:     node,
		now:      now,
		gateway:  gatewayStub,
	}
}

func (e *env) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func checkoutSignature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(razorpaySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPurchaseFlow(t *testing.T) {
	e := newEnv(t)
	token := e.verifier.Sign("student_1")

	// The seeded catalog is visible without authentication.
	rec := e.request(t, http.MethodGet, "/v1/catalog?role=student", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	catalog := decode[catalogdomain.CatalogResponse](t, rec)
	require.NotEmpty(t, catalog.AddOns)
	require.NotEmpty(t, catalog.Bundles)

	// Ordering requires authentication.
	rec = e.request(t, http.MethodPost, "/v1/orders/addon", "", map[string]string{
		"feature_key":    "resume_builder",
		"billing_period": "monthly",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.request(t, http.MethodPost, "/v1/orders/addon", token, map[string]string{
		"feature_key":    "resume_builder",
		"billing_period": "monthly",
		"discount_code":  "WELCOME10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[orderdomain.OrderResponse](t, rec)
	assert.Equal(t, int64(499), order.BasePrice)
	assert.Equal(t, int64(49), order.DiscountAmount)
	assert.Equal(t, int64(450), order.FinalPrice)
	assert.Equal(t, int64(45000), order.AmountPaise)
	assert.True(t, order.DiscountApplied)

	// No access before the payment is verified.
	rec = e.request(t, http.MethodGet, "/v1/access/features/resume_builder", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]any](t, rec)["has_access"].(bool))

	verify := map[string]string{
		"order_id":   order.OrderID,
		"payment_id": "pay_checkout_1",
		"signature":  checkoutSignature(order.OrderID, "pay_checkout_1"),
	}
	rec = e.request(t, http.MethodPost, "/v1/payments/verify", token, verify)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	verified := decode[orderdomain.VerifyResponse](t, rec)
	require.Len(t, verified.Entitlements, 1)
	assert.Equal(t, "resume_builder", verified.Entitlements[0].FeatureKey)
	assert.Equal(t, e.now.AddDate(0, 1, 0), verified.Entitlements[0].EndDate.UTC())

	// Replaying the callback does not double-activate.
	rec = e.request(t, http.MethodPost, "/v1/payments/verify", token, verify)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var count int64
	require.NoError(t, e.db.Model(&entitlementdomain.Entitlement{}).
		Where("user_id = ? AND feature_key = ?", "student_1", "resume_builder").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rec = e.request(t, http.MethodGet, "/v1/access/features/resume_builder", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decision := decode[map[string]any](t, rec)
	assert.True(t, decision["has_access"].(bool))

	// Unpurchased features stay locked.
	rec = e.request(t, http.MethodGet, "/v1/access/features/talent_search", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]any](t, rec)["has_access"].(bool))

	rec = e.request(t, http.MethodGet, "/v1/entitlements", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBadSignatureDoesNotActivate(t *testing.T) {
	e := newEnv(t)
	token := e.verifier.Sign("student_2")

	rec := e.request(t, http.MethodPost, "/v1/orders/addon", token, map[string]string{
		"feature_key":    "mock_interviews",
		"billing_period": "monthly",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[orderdomain.OrderResponse](t, rec)

	rec = e.request(t, http.MethodPost, "/v1/payments/verify", token, map[string]string{
		"order_id":   order.OrderID,
		"payment_id": "pay_checkout_1",
		"signature":  "forged",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.request(t, http.MethodGet, "/v1/access/features/mock_interviews", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]any](t, rec)["has_access"].(bool))
}

func TestOrganizationLicenseFlow(t *testing.T) {
	e := newEnv(t)
	memberToken := e.verifier.Sign("member_1")

	// Org endpoints reject user tokens.
	rec := e.request(t, http.MethodPost, "/v1/organizations/subscriptions", memberToken, map[string]any{
		"org_id":      "org_1",
		"plan":        "campus",
		"total_seats": 2,
		"end_date":    e.now.AddDate(1, 0, 0),
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.request(t, http.MethodPost, "/v1/organizations/subscriptions", systemToken, map[string]any{
		"org_id":      "org_1",
		"plan":        "campus",
		"total_seats": 2,
		"end_date":    e.now.AddDate(1, 0, 0),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[organizationdomain.OrgSubscription](t, rec)

	rec = e.request(t, http.MethodPost, "/v1/organizations/seats", systemToken, map[string]string{
		"org_subscription_id": sub.ID.String(),
		"user_id":             "member_1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Seat assignment grants platform access.
	rec = e.request(t, http.MethodGet, "/v1/access", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decision := decode[map[string]any](t, rec)
	assert.True(t, decision["has_access"].(bool))
	assert.Equal(t, "organization", decision["source"])

	// A second seat for the same user conflicts.
	rec = e.request(t, http.MethodPost, "/v1/organizations/seats", systemToken, map[string]string{
		"org_subscription_id": sub.ID.String(),
		"user_id":             "member_1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.request(t, http.MethodDelete, "/v1/organizations/seats", systemToken, map[string]string{
		"org_subscription_id": sub.ID.String(),
		"user_id":             "member_1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(t, http.MethodGet, "/v1/access", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[map[string]any](t, rec)["has_access"].(bool))
}

func TestLifecycleRunEndpoint(t *testing.T) {
	e := newEnv(t)

	// An active entitlement past its end date moves to grace on the next
	// lifecycle pass.
	row := entitlementdomain.Entitlement{
		ID:            e.node.Generate(),
		UserID:        "student_3",
		FeatureKey:    "resume_builder",
		SourceType:    entitlementdomain.SourceAddOn,
		BillingPeriod: catalogdomain.BillingPeriodMonthly,
		Status:        entitlementdomain.StatusActive,
		StartDate:     e.now.AddDate(0, -1, -1),
		EndDate:       e.now.Add(-24 * time.Hour),
	}
	require.NoError(t, e.db.Create(&row).Error)

	rec := e.request(t, http.MethodPost, "/internal/lifecycle/run", systemToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved entitlementdomain.Entitlement
	require.NoError(t, e.db.First(&saved, "id = ?", row.ID).Error)
	assert.Equal(t, entitlementdomain.StatusGracePeriod, saved.Status)

	// The user keeps access during grace.
	rec = e.request(t, http.MethodGet, "/v1/access/features/resume_builder", e.verifier.Sign("student_3"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decision := decode[map[string]any](t, rec)
	assert.True(t, decision["has_access"].(bool))
	assert.Equal(t, "grace_period", decision["reason"])
}
