package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"travel-booking/internal/data/entity"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/notify"
	"travel-booking/internal/payment"

	"github.com/google/uuid"
)

// In-memory fakes for the repository interfaces. The conditional
// transitions mirror the SQL predicates so the race-sensitive paths
// behave like the real store.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.Token.String()] = session
	return nil
}

func (f *fakeSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[token]
	if s == nil || s.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSessionRepo) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

type fakeSubjectRepo struct {
	mu       sync.Mutex
	subjects map[uuid.UUID]*entity.Subject
}

func newFakeSubjectRepo() *fakeSubjectRepo {
	return &fakeSubjectRepo{subjects: make(map[uuid.UUID]*entity.Subject)}
}

func (f *fakeSubjectRepo) Create(ctx context.Context, subject *entity.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects[subject.ID] = subject
	return nil
}

func (f *fakeSubjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subjects[id], nil
}

func (f *fakeSubjectRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Subject
	for _, s := range f.subjects {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSubjectRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.subjects)), nil
}

func (f *fakeSubjectRepo) AppendReservation(ctx context.Context, subjectID, reservationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subjects[subjectID]
	if !ok {
		return fmt.Errorf("subject %s not found", subjectID)
	}
	s.ReservationIDs = append(s.ReservationIDs, reservationID)
	return nil
}

func (f *fakeSubjectRepo) RemoveReservation(ctx context.Context, subjectID, reservationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subjects[subjectID]
	if !ok {
		return fmt.Errorf("subject %s not found", subjectID)
	}
	out := s.ReservationIDs[:0]
	for _, id := range s.ReservationIDs {
		if id != reservationID {
			out = append(out, id)
		}
	}
	s.ReservationIDs = out
	return nil
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*entity.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[uuid.UUID]*entity.Reservation)}
}

func (f *fakeReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *res
	f.reservations[res.ID] = &clone
	return nil
}

func (f *fakeReservationRepo) get(id uuid.UUID) *entity.Reservation {
	if r, ok := f.reservations[id]; ok {
		clone := *r
		return &clone
	}
	return nil
}

func (f *fakeReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id), nil
}

func (f *fakeReservationRepo) FindBySessionID(ctx context.Context, sessionID string) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.reservations {
		if r.ExternalSessionID != nil && *r.ExternalSessionID == sessionID {
			return f.get(id), nil
		}
	}
	return nil, nil
}

func (f *fakeReservationRepo) FindByExternalOrderID(ctx context.Context, orderID string) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.reservations {
		if r.ExternalOrderID != nil && *r.ExternalOrderID == orderID {
			return f.get(id), nil
		}
	}
	return nil, nil
}

func (f *fakeReservationRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Reservation
	for id, r := range f.reservations {
		if r.UserID == userID {
			out = append(out, f.get(id))
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.reservations {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationRepo) FindActiveBySubjectID(ctx context.Context, subjectID uuid.UUID) ([]*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Reservation
	for id, r := range f.reservations {
		if r.SubjectID == subjectID && r.Status != entity.ReservationStatusCancelled {
			out = append(out, f.get(id))
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reservations, id)
	return nil
}

func (f *fakeReservationRepo) ClaimSession(ctx context.Context, id uuid.UUID, method entity.PaymentMethod, sessionID string, orderID *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.ExternalSessionID != nil {
		return false, nil
	}
	r.PaymentMethod = &method
	r.ExternalSessionID = &sessionID
	r.ExternalOrderID = orderID
	return true, nil
}

func (f *fakeReservationRepo) ConfirmPaid(ctx context.Context, id uuid.UUID, paymentRef *string, paidAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.IsPaid || r.Status == entity.ReservationStatusCancelled {
		return false, nil
	}
	r.Status = entity.ReservationStatusConfirmed
	r.PaymentStatus = entity.PaymentStatusPaid
	r.IsPaid = true
	r.PaymentDate = &paidAt
	if paymentRef != nil && r.ExternalPaymentRef == nil {
		r.ExternalPaymentRef = paymentRef
	}
	return true, nil
}

func (f *fakeReservationRepo) CancelPending(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status != entity.ReservationStatusPending {
		return false, nil
	}
	r.Status = entity.ReservationStatusCancelled
	r.PaymentStatus = entity.PaymentStatusFailed
	return true, nil
}

func (f *fakeReservationRepo) CancelWithPaymentStatus(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, note *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Status == entity.ReservationStatusCancelled {
		return false, nil
	}
	r.Status = entity.ReservationStatusCancelled
	r.PaymentStatus = status
	r.RefundNote = note
	return true, nil
}

func (f *fakeReservationRepo) SetPaymentRef(ctx context.Context, id uuid.UUID, paymentRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reservations[id]; ok {
		r.ExternalPaymentRef = &paymentRef
	}
	return nil
}

type fakeWalletRepo struct {
	mu       sync.Mutex
	balances map[uuid.UUID]float64
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{balances: make(map[uuid.UUID]float64)}
}

func (f *fakeWalletRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[userID]
	if !ok {
		return nil, nil
	}
	return &entity.Wallet{UserID: userID, Balance: balance}, nil
}

func (f *fakeWalletRepo) Credit(ctx context.Context, userID uuid.UUID, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += amount
	return nil
}

func (f *fakeWalletRepo) Debit(ctx context.Context, userID uuid.UUID, amount float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < amount {
		return false, nil
	}
	f.balances[userID] -= amount
	return true, nil
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	rows []*entity.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeNotificationRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) DeleteByReservationID(ctx context.Context, reservationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.rows[:0]
	for _, n := range f.rows {
		if n.ReservationID != reservationID {
			out = append(out, n)
		}
	}
	f.rows = out
	return nil
}

// fakeGateway implements payment.Gateway with overridable behavior.
type fakeGateway struct {
	mu            sync.Mutex
	name          string
	configured    bool
	CreateFunc    func(ctx context.Context, req payment.CreateSessionRequest) (*payment.Session, error)
	RetrieveFunc  func(ctx context.Context, sessionID string) (*payment.SessionDetails, error)
	RefundFunc    func(ctx context.Context, paymentRef string, amount float64) (*payment.RefundResult, error)
	RefundCalls   int
	RetrieveCalls int
}

func newFakeGateway(name string) *fakeGateway {
	return &fakeGateway{name: name, configured: true}
}

func (g *fakeGateway) Name() string     { return g.name }
func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) CreateSession(ctx context.Context, req payment.CreateSessionRequest) (*payment.Session, error) {
	if g.CreateFunc != nil {
		return g.CreateFunc(ctx, req)
	}
	return &payment.Session{
		SessionID:   "sess_" + req.ReservationID,
		RedirectURL: "https://pay.example/" + req.ReservationID,
	}, nil
}

func (g *fakeGateway) RetrieveSession(ctx context.Context, sessionID string) (*payment.SessionDetails, error) {
	g.mu.Lock()
	g.RetrieveCalls++
	g.mu.Unlock()
	if g.RetrieveFunc != nil {
		return g.RetrieveFunc(ctx, sessionID)
	}
	return &payment.SessionDetails{Status: payment.SessionStatusPending}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, paymentRef string, amount float64) (*payment.RefundResult, error) {
	g.mu.Lock()
	g.RefundCalls++
	g.mu.Unlock()
	if g.RefundFunc != nil {
		return g.RefundFunc(ctx, paymentRef, amount)
	}
	return &payment.RefundResult{RefundID: "rf_" + paymentRef}, nil
}

// fakeDispatcher counts confirmations synchronously.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []notify.ConfirmedEvent
}

func (d *fakeDispatcher) ReservationConfirmed(evt notify.ConfirmedEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evt)
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func newTestRepo() *repository.Repository {
	return &repository.Repository{
		User:         newFakeUserRepo(),
		Session:      newFakeSessionRepo(),
		Subject:      newFakeSubjectRepo(),
		Reservation:  newFakeReservationRepo(),
		Wallet:       newFakeWalletRepo(),
		Notification: newFakeNotificationRepo(),
	}
}
