package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/dto/request"
	"travel-booking/internal/payment"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

const (
	testWebhookSecret = "whsec_test"
	testOrdersSecret  = "orders_secret_test"
)

func newTestConfig() *utils.Config {
	return &utils.Config{
		App: utils.AppConfig{
			Name:    "travel-booking-test",
			BaseURL: "http://localhost:8080",
		},
		Checkout: utils.CheckoutConfig{
			SecretKey:     "sk_test",
			WebhookSecret: testWebhookSecret,
		},
		Orders: utils.OrdersConfig{
			KeyID:     "key_test",
			KeySecret: testOrdersSecret,
		},
	}
}

type paymentFixture struct {
	repo       *repository.Repository
	checkout   *fakeGateway
	orders     *fakeGateway
	dispatcher *fakeDispatcher
	svc        PaymentService
	guest      *entity.User
	owner      *entity.User
	subject    *entity.Subject
	res        *entity.Reservation
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	repo := newTestRepo()
	owner := seedUser(t, repo, "owner")
	guest := seedUser(t, repo, "guest")
	subject := seedSubject(t, repo, owner.ID, entity.SubjectKindStay, 1000, 4)

	resSvc := NewReservationService(repo, zap.NewNop())
	if _, err := resSvc.CreateReservation(context.Background(), guest.ID.String(), &request.CreateReservationRequest{
		SubjectID:  subject.ID.String(),
		StartDate:  futureDate(10),
		EndDate:    futureDate(13),
		GuestCount: 2,
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	checkout := newFakeGateway("checkout")
	orders := newFakeGateway("orders")
	dispatcher := &fakeDispatcher{}

	svc := NewPaymentService(repo, map[entity.PaymentMethod]payment.Gateway{
		entity.PaymentMethodCheckout: checkout,
		entity.PaymentMethodOrders:   orders,
	}, dispatcher, newTestConfig(), zap.NewNop())

	fix := &paymentFixture{
		repo:       repo,
		checkout:   checkout,
		orders:     orders,
		dispatcher: dispatcher,
		svc:        svc,
		guest:      guest,
		owner:      owner,
		subject:    subject,
	}

	reservations, _ := repo.Reservation.FindByUserID(context.Background(), guest.ID, 10, 0)
	if len(reservations) != 1 {
		t.Fatalf("expected 1 seeded reservation, got %d", len(reservations))
	}
	fix.res = reservations[0]
	return fix
}

func signWebhook(payload []byte, secret string) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func signOrder(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID))
	mac.Write([]byte("|"))
	mac.Write([]byte(paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateSession_ClaimsOnce(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()

	sess, err := fix.svc.CreateSession(ctx, fix.guest.ID.String(), &request.CreateSessionRequest{
		ReservationID: fix.res.ID.String(),
		Method:        "checkout",
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.SessionID == "" || sess.RedirectURL == "" {
		t.Error("expected session id and redirect URL")
	}

	// The correlation key is set once; a second session is refused.
	_, err = fix.svc.CreateSession(ctx, fix.guest.ID.String(), &request.CreateSessionRequest{
		ReservationID: fix.res.ID.String(),
		Method:        "checkout",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second session, got %v", err)
	}
}

func TestCreateSession_Guards(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()

	t.Run("forbidden for non-owner", func(t *testing.T) {
		_, err := fix.svc.CreateSession(ctx, fix.owner.ID.String(), &request.CreateSessionRequest{
			ReservationID: fix.res.ID.String(),
			Method:        "checkout",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unconfigured gateway", func(t *testing.T) {
		fix.orders.configured = false
		_, err := fix.svc.CreateSession(ctx, fix.guest.ID.String(), &request.CreateSessionRequest{
			ReservationID: fix.res.ID.String(),
			Method:        "orders",
		})
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})
}

func TestCreateSession_WalletPaysImmediately(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()

	if err := fix.repo.Wallet.Credit(ctx, fix.guest.ID, 10000); err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	sess, err := fix.svc.CreateSession(ctx, fix.guest.ID.String(), &request.CreateSessionRequest{
		ReservationID: fix.res.ID.String(),
		Method:        "wallet",
	})
	if err != nil {
		t.Fatalf("wallet CreateSession failed: %v", err)
	}
	if sess.RedirectURL != "" {
		t.Error("wallet payment must not redirect")
	}

	stored, _ := fix.repo.Reservation.FindByID(ctx, fix.res.ID)
	if !stored.IsPaid || stored.Status != entity.ReservationStatusConfirmed {
		t.Errorf("expected confirmed/paid, got %s/%s", stored.Status, stored.PaymentStatus)
	}

	wallet, _ := fix.repo.Wallet.FindByUserID(ctx, fix.guest.ID)
	if wallet.Balance != 10000-fix.res.TotalPrice {
		t.Errorf("expected balance %.2f, got %.2f", 10000-fix.res.TotalPrice, wallet.Balance)
	}

	if fix.dispatcher.count() != 1 {
		t.Errorf("expected exactly 1 confirmation dispatch, got %d", fix.dispatcher.count())
	}
}

func TestCreateSession_WalletInsufficientFunds(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()

	fix.repo.Wallet.Credit(ctx, fix.guest.ID, 10)

	_, err := fix.svc.CreateSession(ctx, fix.guest.ID.String(), &request.CreateSessionRequest{
		ReservationID: fix.res.ID.String(),
		Method:        "wallet",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Nothing changed.
	stored, _ := fix.repo.Reservation.FindByID(ctx, fix.res.ID)
	if stored.IsPaid || stored.ExternalSessionID != nil {
		t.Error("failed wallet payment must not mutate the reservation")
	}
}

// openSession claims a checkout session and returns its id.
func openSession(t *testing.T, fix *paymentFixture) string {
	t.Helper()
	sess, err := fix.svc.CreateSession(context.Background(), fix.guest.ID.String(), &request.CreateSessionRequest{
		ReservationID: fix.res.ID.String(),
		Method:        "checkout",
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return sess.SessionID
}

func TestVerifyPayment_ConfirmsAndIsIdempotent(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()
	sessionID := openSession(t, fix)

	fix.checkout.RetrieveFunc = func(ctx context.Context, id string) (*payment.SessionDetails, error) {
		return &payment.SessionDetails{Status: payment.SessionStatusPaid, PaymentRef: "pi_123"}, nil
	}

	for i := 0; i < 5; i++ {
		resp, err := fix.svc.VerifyPayment(ctx, &request.VerifyPaymentRequest{SessionID: sessionID})
		if err != nil {
			t.Fatalf("VerifyPayment attempt %d failed: %v", i, err)
		}
		if !resp.Reservation.IsPaid {
			t.Fatalf("attempt %d: reservation not paid", i)
		}
	}

	if fix.dispatcher.count() != 1 {
		t.Errorf("expected exactly 1 dispatch across repeats, got %d", fix.dispatcher.count())
	}

	stored, _ := fix.repo.Reservation.FindByID(ctx, fix.res.ID)
	if *stored.ExternalPaymentRef != "pi_123" {
		t.Errorf("expected payment ref pi_123, got %v", stored.ExternalPaymentRef)
	}
}

func TestVerifyPayment_PendingLeavesStateAlone(t *testing.T) {
	fix := newPaymentFixture(t)
	sessionID := openSession(t, fix)

	// Default fake retrieve reports pending.
	resp, err := fix.svc.VerifyPayment(context.Background(), &request.VerifyPaymentRequest{SessionID: sessionID})
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}
	if resp.Reservation.IsPaid {
		t.Error("pending session must not confirm")
	}
	if fix.dispatcher.count() != 0 {
		t.Error("pending session must not dispatch")
	}
}

func TestVerifyPayment_OrderSignature(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()

	sess, err := fix.svc.CreateSession(ctx, fix.guest.ID.String(), &request.CreateSessionRequest{
		ReservationID: fix.res.ID.String(),
		Method:        "orders",
	})
	if err != nil {
		t.Fatalf("orders CreateSession failed: %v", err)
	}

	t.Run("tampered signature rejected", func(t *testing.T) {
		_, err := fix.svc.VerifyPayment(ctx, &request.VerifyPaymentRequest{
			SessionID: sess.SessionID,
			PaymentID: "pay_1",
			Signature: "deadbeef",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if fix.dispatcher.count() != 0 {
			t.Error("bad signature must not dispatch")
		}
	})

	t.Run("valid signature confirms", func(t *testing.T) {
		resp, err := fix.svc.VerifyPayment(ctx, &request.VerifyPaymentRequest{
			SessionID: sess.SessionID,
			PaymentID: "pay_1",
			Signature: signOrder(sess.SessionID, "pay_1", testOrdersSecret),
		})
		if err != nil {
			t.Fatalf("VerifyPayment failed: %v", err)
		}
		if !resp.Reservation.IsPaid {
			t.Error("valid callback must confirm")
		}
		if fix.dispatcher.count() != 1 {
			t.Errorf("expected 1 dispatch, got %d", fix.dispatcher.count())
		}
	})
}

func TestHandleWebhook(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()
	sessionID := openSession(t, fix)

	payloadFor := func(eventType, id string) []byte {
		return []byte(fmt.Sprintf(
			`{"type":%q,"data":{"id":%q,"payment_status":"paid","payment_intent":"pi_wh"}}`,
			eventType, id))
	}

	t.Run("missing signature rejected before lookup", func(t *testing.T) {
		err := fix.svc.HandleWebhook(ctx, payloadFor("checkout.session.completed", sessionID), "")
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		payload := payloadFor("checkout.session.completed", sessionID)
		header := signWebhook(payload, testWebhookSecret)
		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-2] = 'X'
		if err := fix.svc.HandleWebhook(ctx, tampered, header); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown event type acknowledged", func(t *testing.T) {
		payload := payloadFor("charge.updated", sessionID)
		if err := fix.svc.HandleWebhook(ctx, payload, signWebhook(payload, testWebhookSecret)); err != nil {
			t.Fatalf("unknown event must be acked: %v", err)
		}
	})

	t.Run("unknown session acknowledged", func(t *testing.T) {
		payload := payloadFor("checkout.session.completed", "sess_unknown")
		if err := fix.svc.HandleWebhook(ctx, payload, signWebhook(payload, testWebhookSecret)); err != nil {
			t.Fatalf("unmatched webhook must be acked: %v", err)
		}
	})

	t.Run("valid delivery confirms once", func(t *testing.T) {
		payload := payloadFor("checkout.session.completed", sessionID)
		header := signWebhook(payload, testWebhookSecret)

		for i := 0; i < 3; i++ {
			if err := fix.svc.HandleWebhook(ctx, payload, header); err != nil {
				t.Fatalf("delivery %d failed: %v", i, err)
			}
		}

		stored, _ := fix.repo.Reservation.FindByID(ctx, fix.res.ID)
		if !stored.IsPaid {
			t.Error("webhook must confirm the reservation")
		}
		if fix.dispatcher.count() != 1 {
			t.Errorf("expected 1 dispatch over redeliveries, got %d", fix.dispatcher.count())
		}
	})
}

// All three triggers race: the reservation confirms exactly once and
// notifications go out exactly once.
func TestReconcile_RacingTriggers(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()
	sessionID := openSession(t, fix)

	fix.checkout.RetrieveFunc = func(ctx context.Context, id string) (*payment.SessionDetails, error) {
		return &payment.SessionDetails{Status: payment.SessionStatusPaid, PaymentRef: "pi_race"}, nil
	}

	payload := []byte(fmt.Sprintf(
		`{"type":"checkout.session.completed","data":{"id":%q,"payment_intent":"pi_race"}}`,
		sessionID))
	header := signWebhook(payload, testWebhookSecret)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			fix.svc.HandleWebhook(ctx, payload, header)
		}()
		go func() {
			defer wg.Done()
			fix.svc.VerifyPayment(ctx, &request.VerifyPaymentRequest{SessionID: sessionID})
		}()
		go func() {
			defer wg.Done()
			fix.svc.ConfirmRedirect(ctx, sessionID, fix.res.ID.String())
		}()
	}
	wg.Wait()

	stored, _ := fix.repo.Reservation.FindByID(ctx, fix.res.ID)
	if !stored.IsPaid || stored.Status != entity.ReservationStatusConfirmed {
		t.Fatalf("expected confirmed/paid, got %s/%s", stored.Status, stored.PaymentStatus)
	}
	if fix.dispatcher.count() != 1 {
		t.Errorf("expected exactly 1 dispatch across racing triggers, got %d", fix.dispatcher.count())
	}
}

func TestAbandonSession(t *testing.T) {
	fix := newPaymentFixture(t)
	ctx := context.Background()
	sessionID := openSession(t, fix)

	if err := fix.svc.AbandonSession(ctx, sessionID); err != nil {
		t.Fatalf("AbandonSession failed: %v", err)
	}

	stored, _ := fix.repo.Reservation.FindByID(ctx, fix.res.ID)
	if stored.Status != entity.ReservationStatusCancelled {
		t.Errorf("expected cancelled, got %s", stored.Status)
	}
	if stored.PaymentStatus != entity.PaymentStatusFailed {
		t.Errorf("expected failed payment status, got %s", stored.PaymentStatus)
	}

	// Repeat abandonment is a no-op, and a cancelled reservation can no
	// longer be confirmed by a late trigger.
	if err := fix.svc.AbandonSession(ctx, sessionID); err != nil {
		t.Fatalf("second AbandonSession failed: %v", err)
	}

	fix.checkout.RetrieveFunc = func(ctx context.Context, id string) (*payment.SessionDetails, error) {
		return &payment.SessionDetails{Status: payment.SessionStatusPaid, PaymentRef: "pi_late"}, nil
	}
	fix.svc.VerifyPayment(ctx, &request.VerifyPaymentRequest{SessionID: sessionID})

	after, _ := fix.repo.Reservation.FindByID(ctx, fix.res.ID)
	if after.IsPaid || after.Status != entity.ReservationStatusCancelled {
		t.Error("late paid signal must not resurrect a cancelled reservation")
	}
	if fix.dispatcher.count() != 0 {
		t.Error("cancelled reservation must not dispatch")
	}
}
