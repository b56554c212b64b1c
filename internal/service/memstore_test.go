package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for postgres. Transaction holds one
// global lock for the whole callback and restores a snapshot if the callback
// fails, which gives the same all-or-nothing and serialization guarantees the
// services rely on. Methods that take a tx assume that lock is held.
type memStore struct {
	mu sync.Mutex

	rooms        map[uint]models.Room
	meals        map[uint]models.Meal
	guests       map[uint]models.Guest
	cards        map[uint]models.Card
	reservations map[uint]models.Reservation
	ledger       []models.LedgerEntry
	seq          uint

	// failLedgerCreate, when set, is returned by the next ledger append.
	failLedgerCreate error
	txCount          int
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        map[uint]models.Room{},
		meals:        map[uint]models.Meal{},
		guests:       map[uint]models.Guest{},
		cards:        map[uint]models.Card{},
		reservations: map[uint]models.Reservation{},
	}
}

type memSnapshot struct {
	rooms        map[uint]models.Room
	meals        map[uint]models.Meal
	guests       map[uint]models.Guest
	cards        map[uint]models.Card
	reservations map[uint]models.Reservation
	ledger       []models.LedgerEntry
	seq          uint
}

func cloneMap[V any](m map[uint]V) map[uint]V {
	out := make(map[uint]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedIDs[V any](m map[uint]V) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *memStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	snap := memSnapshot{
		rooms:        cloneMap(s.rooms),
		meals:        cloneMap(s.meals),
		guests:       cloneMap(s.guests),
		cards:        cloneMap(s.cards),
		reservations: cloneMap(s.reservations),
		ledger:       append([]models.LedgerEntry(nil), s.ledger...),
		seq:          s.seq,
	}
	if err := fn(&gorm.DB{}); err != nil {
		s.rooms, s.meals, s.guests = snap.rooms, snap.meals, snap.guests
		s.cards, s.reservations = snap.cards, snap.reservations
		s.ledger, s.seq = snap.ledger, snap.seq
		return err
	}
	return nil
}

func (s *memStore) nextID() uint {
	s.seq++
	return s.seq
}

func mustTx(tx *gorm.DB) {
	if tx == nil {
		panic("memstore: tx-scoped method called without a transaction")
	}
}

// ---- rooms ----

type memRooms struct{ *memStore }

func (r memRooms) Create(ctx context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room.ID = r.nextID()
	r.rooms[room.ID] = *room
	return nil
}

func (r memRooms) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &room, nil
}

func (r memRooms) FindAll(ctx context.Context) ([]models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Room
	for _, id := range sortedIDs(r.rooms) {
		out = append(out, r.rooms[id])
	}
	return out, nil
}

func (r memRooms) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint, noWait bool) (*models.Room, error) {
	mustTx(tx)
	room, ok := r.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &room, nil
}

func (r memRooms) UpdateAvailability(ctx context.Context, tx *gorm.DB, id uint, available bool) error {
	mustTx(tx)
	room := r.rooms[id]
	room.IsAvailable = available
	r.rooms[id] = room
	return nil
}

func (r memRooms) UpsertReference(ctx context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rooms[room.ID]; ok {
		existing.Name = room.Name
		existing.PricePerNight = room.PricePerNight
		r.rooms[room.ID] = existing
		return nil
	}
	r.rooms[room.ID] = *room
	return nil
}

// ---- meals ----

type memMeals struct{ *memStore }

func (m memMeals) Create(ctx context.Context, meal *models.Meal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal.ID = m.nextID()
	m.meals[meal.ID] = *meal
	return nil
}

func (m memMeals) FindByID(ctx context.Context, id uint) (*models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &meal, nil
}

func (m memMeals) FindAll(ctx context.Context) ([]models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Meal
	for _, id := range sortedIDs(m.meals) {
		out = append(out, m.meals[id])
	}
	return out, nil
}

func (m memMeals) Upsert(ctx context.Context, meal *models.Meal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meals[meal.ID] = *meal
	return nil
}

// ---- guests ----

type memGuests struct{ *memStore }

func (g memGuests) FindOrCreate(ctx context.Context, guest *models.Guest) (*models.Guest, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.guests {
		if existing.Email == guest.Email {
			return &existing, false, nil
		}
	}
	for _, existing := range g.guests {
		if existing.Phone == guest.Phone {
			return nil, false, gorm.ErrDuplicatedKey
		}
	}
	guest.ID = g.nextID()
	g.guests[guest.ID] = *guest
	return guest, true, nil
}

func (g memGuests) FindByEmail(ctx context.Context, email string) (*models.Guest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.guests {
		if existing.Email == email {
			return &existing, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ---- cards ----

type memCards struct{ *memStore }

func (c memCards) Create(ctx context.Context, card *models.Card) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.cards {
		if existing.CardNumber == card.CardNumber {
			return gorm.ErrDuplicatedKey
		}
		if card.IsActive && existing.IsActive && card.GuestID != nil && existing.GuestID != nil && *card.GuestID == *existing.GuestID {
			return gorm.ErrDuplicatedKey
		}
	}
	card.ID = c.nextID()
	c.cards[card.ID] = *card
	return nil
}

func (c memCards) FindByID(ctx context.Context, id uint) (*models.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, ok := c.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &card, nil
}

func (c memCards) FindAll(ctx context.Context) ([]models.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Card
	for _, id := range sortedIDs(c.cards) {
		out = append(out, c.cards[id])
	}
	return out, nil
}

func (c memCards) FindByNumberForUpdate(ctx context.Context, tx *gorm.DB, number string) (*models.Card, error) {
	mustTx(tx)
	for _, card := range c.cards {
		if card.CardNumber == number {
			return &card, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (c memCards) UpdateBalance(ctx context.Context, tx *gorm.DB, id uint, balance decimal.Decimal) error {
	mustTx(tx)
	card := c.cards[id]
	card.Balance = balance
	c.cards[id] = card
	return nil
}

// ---- reservations ----

type memReservations struct{ *memStore }

func (r memReservations) withGuest(res models.Reservation) models.Reservation {
	if g, ok := r.guests[res.GuestID]; ok {
		res.Guest = &g
	}
	return res
}

func (r memReservations) Create(ctx context.Context, tx *gorm.DB, res *models.Reservation) error {
	mustTx(tx)
	res.ID = r.nextID()
	stored := *res
	stored.Guest, stored.Room, stored.Meal = nil, nil, nil
	r.reservations[res.ID] = stored
	return nil
}

func (r memReservations) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	res = r.withGuest(res)
	if res.RoomID != nil {
		room := r.rooms[*res.RoomID]
		res.Room = &room
	}
	if res.MealID != nil {
		meal := r.meals[*res.MealID]
		res.Meal = &meal
	}
	return &res, nil
}

func (r memReservations) FindAll(ctx context.Context, status *models.ReservationStatus) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, id := range sortedIDs(r.reservations) {
		res := r.reservations[id]
		if status != nil && res.Status != *status {
			continue
		}
		out = append(out, r.withGuest(res))
	}
	return out, nil
}

func (r memReservations) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error) {
	mustTx(tx)
	res, ok := r.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &res, nil
}

func (r memReservations) TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ReservationStatus) (bool, error) {
	mustTx(tx)
	res, ok := r.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	r.reservations[id] = res
	return true, nil
}

func (r memReservations) FindDueForReminder(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, id := range sortedIDs(r.reservations) {
		res := r.reservations[id]
		if res.Status == models.StatusPending && !res.ReminderSent && !res.CreatedAt.After(cutoff) {
			out = append(out, r.withGuest(res))
		}
	}
	return out, nil
}

func (r memReservations) FindExpired(ctx context.Context, cutoff time.Time, requireReminder bool) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, id := range sortedIDs(r.reservations) {
		res := r.reservations[id]
		if res.Status != models.StatusPending || res.CreatedAt.After(cutoff) {
			continue
		}
		if requireReminder && !res.ReminderSent {
			continue
		}
		out = append(out, r.withGuest(res))
	}
	return out, nil
}

func (r memReservations) MarkReminderSent(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok || res.Status != models.StatusPending || res.ReminderSent {
		return false, nil
	}
	res.ReminderSent = true
	r.reservations[id] = res
	return true, nil
}

// ---- ledger ----

type memLedger struct{ *memStore }

func (l memLedger) Create(ctx context.Context, tx *gorm.DB, entry *models.LedgerEntry) error {
	mustTx(tx)
	if l.failLedgerCreate != nil {
		err := l.failLedgerCreate
		l.failLedgerCreate = nil
		return err
	}
	entry.ID = l.nextID()
	stored := *entry
	stored.Card = nil
	l.ledger = append(l.ledger, stored)
	return nil
}

func (l memLedger) FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.ledger {
		if e.ID == id {
			card := l.cards[e.CardID]
			e.Card = &card
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (l memLedger) FindAll(ctx context.Context) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.LedgerEntry(nil), l.ledger...), nil
}

func (l memLedger) FindByCard(ctx context.Context, cardID uint) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range l.ledger {
		if e.CardID == cardID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l memLedger) SumByCard(ctx context.Context, cardID uint) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := decimal.Zero
	for _, e := range l.ledger {
		if e.CardID == cardID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// ---- clock and notifier ----

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMessage struct {
	Phone string
	Text  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, phone, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{Phone: phone, Text: text})
	return n.err
}

func (n *fakeNotifier) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
