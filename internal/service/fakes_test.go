package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type memoryTicketStore struct {
	mu        sync.Mutex
	seq       int64
	tickets   map[string]*domain.Ticket
	responses []domain.Response
	history   []domain.StatusChange
	listCalls int
}

func newMemoryTicketStore() *memoryTicketStore {
	return &memoryTicketStore{tickets: map[string]*domain.Ticket{}}
}

func (m *memoryTicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ticket.ID = fmt.Sprintf("t-%d", m.seq)
	ticket.Number = m.seq
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	m.tickets[ticket.ID] = &stored
	return nil
}

func (m *memoryTicketStore) Update(_ context.Context, ticket *domain.Ticket, change *domain.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeLocked(ticket); err != nil {
		return err
	}
	m.recordLocked(change)
	return nil
}

func (m *memoryTicketStore) writeLocked(ticket *domain.Ticket) error {
	stored, ok := m.tickets[ticket.ID]
	if !ok || stored.Status.IsTerminal() {
		return repository.ErrStaleTicket
	}
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *memoryTicketStore) recordLocked(change *domain.StatusChange) {
	if change == nil {
		return
	}
	change.ID = fmt.Sprintf("h-%d", len(m.history)+1)
	change.CreatedAt = time.Now()
	m.history = append(m.history, *change)
}

func (m *memoryTicketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (m *memoryTicketStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	result := []domain.Ticket{}
	for _, t := range m.tickets {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *memoryTicketStore) Delete(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tickets[id]
	if !ok || stored.OwnerID != ownerID || stored.Status.IsTerminal() {
		return repository.ErrStaleTicket
	}
	delete(m.tickets, id)
	return nil
}

func (m *memoryTicketStore) AppendResponse(_ context.Context, resp *domain.Response, ticket *domain.Ticket, change *domain.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket != nil {
		if err := m.writeLocked(ticket); err != nil {
			return err
		}
	}
	resp.ID = fmt.Sprintf("r-%d", len(m.responses)+1)
	resp.CreatedAt = time.Now()
	m.responses = append(m.responses, *resp)
	m.recordLocked(change)
	return nil
}

func (m *memoryTicketStore) ListByTicket(_ context.Context, ticketID string) ([]domain.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []domain.Response{}
	for _, r := range m.responses {
		if r.TicketID == ticketID {
			result = append(result, r)
		}
	}
	return result, nil
}

type memoryHistory struct{ store *memoryTicketStore }

func (h memoryHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.StatusChange, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	result := []domain.StatusChange{}
	for _, c := range h.store.history {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	return result, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

type memoryAccounts struct {
	mu        sync.Mutex
	accounts  map[string]*domain.Account
	profiles  map[string]*domain.Profile
	createErr error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: map[string]*domain.Account{}, profiles: map[string]*domain.Profile{}}
}

func (m *memoryAccounts) CreateWithProfile(_ context.Context, account *domain.Account, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return &pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "accounts_email_key"`}
		}
	}
	account.ID = fmt.Sprintf("acc-%d", len(m.accounts)+1)
	account.CreatedAt = time.Now()
	profile.ID = account.ID
	profile.CreatedAt = account.CreatedAt
	storedAccount := *account
	storedProfile := *profile
	m.accounts[account.ID] = &storedAccount
	m.profiles[profile.ID] = &storedProfile
	return nil
}

func (m *memoryAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

type memoryProfiles struct{ store *memoryAccounts }

func (p memoryProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	if profile, ok := p.store.profiles[id]; ok {
		copied := *profile
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (p memoryProfiles) UpdateRole(_ context.Context, id string, role domain.Role, department *string) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	profile, ok := p.store.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	profile.Role = role
	if department != nil {
		profile.Department = department
	}
	return nil
}

func (p memoryProfiles) List(_ context.Context, filter repository.ProfileFilter) ([]domain.Profile, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	result := []domain.Profile{}
	for _, profile := range p.store.profiles {
		if filter.Role != nil && profile.Role != *filter.Role {
			continue
		}
		if filter.Department != nil && (profile.Department == nil || *profile.Department != *filter.Department) {
			continue
		}
		result = append(result, *profile)
	}
	return result, nil
}

type memoryCatalog struct {
	categories []domain.Category
	faq        map[string]*domain.FAQEntry
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{faq: map[string]*domain.FAQEntry{}}
}

func (m *memoryCatalog) Create(_ context.Context, category *domain.Category) error {
	category.ID = fmt.Sprintf("cat-%d", len(m.categories)+1)
	m.categories = append(m.categories, *category)
	return nil
}

func (m *memoryCatalog) List(context.Context) ([]domain.Category, error) {
	return append([]domain.Category{}, m.categories...), nil
}

type memoryFAQ struct{ catalog *memoryCatalog }

func (f memoryFAQ) Create(_ context.Context, entry *domain.FAQEntry) error {
	entry.ID = fmt.Sprintf("faq-%d", len(f.catalog.faq)+1)
	stored := *entry
	f.catalog.faq[entry.ID] = &stored
	return nil
}

func (f memoryFAQ) GetByID(_ context.Context, id string) (*domain.FAQEntry, error) {
	entry, ok := f.catalog.faq[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *entry
	return &copied, nil
}

func (f memoryFAQ) List(context.Context, *string) ([]domain.FAQEntry, error) {
	result := []domain.FAQEntry{}
	for _, e := range f.catalog.faq {
		result = append(result, *e)
	}
	return result, nil
}

func (f memoryFAQ) Sample(ctx context.Context, categoryID *string, limit int) ([]domain.FAQEntry, error) {
	entries, _ := f.List(ctx, categoryID)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f memoryFAQ) IncrementViews(_ context.Context, id string) error {
	entry, ok := f.catalog.faq[id]
	if !ok {
		return pgx.ErrNoRows
	}
	entry.Views++
	return nil
}

func (f memoryFAQ) MarkHelpful(_ context.Context, id string) (*domain.FAQEntry, error) {
	entry, ok := f.catalog.faq[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	entry.Helpful++
	copied := *entry
	return &copied, nil
}
