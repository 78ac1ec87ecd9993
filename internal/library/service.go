package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	"bookshelf/internal/events"

	"github.com/google/uuid"
)

// Resolver maps a candidate to its durable catalog entry.
type Resolver interface {
	Resolve(ctx context.Context, c catalog.Candidate, creatorID string) (catalog.Entry, error)
}

// Service is the ownership ledger and the reading status state machine.
// Every operation runs as the given caller and only sees the caller's
// records.
type Service struct {
	repo      Repository
	resolver  Resolver
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, resolver Resolver, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddToLibrary creates a to_read record for bookID owned by the caller.
func (s *Service) AddToLibrary(ctx context.Context, caller auth.Caller, bookID string) (Record, error) {
	if !caller.Valid() {
		return Record{}, auth.ErrUnauthenticated
	}
	if _, err := uuid.Parse(bookID); err != nil {
		return Record{}, fmt.Errorf("%w: book id must be a uuid", ErrInvalidInput)
	}

	statusID, err := s.statusID(ctx, StatusToRead)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		UserID:    caller.UserID,
		BookID:    bookID,
		Status:    StatusToRead,
		CreatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, &rec, statusID); err != nil {
		return Record{}, err
	}

	s.publish(ctx, events.Event{Type: events.BookAdded, UserID: rec.UserID, RecordID: rec.ID, BookID: rec.BookID, Status: rec.Status})
	return rec, nil
}

// AddFromCandidate resolves c to a catalog entry, creating it with the
// caller as creator if needed, and adds it to the caller's library.
func (s *Service) AddFromCandidate(ctx context.Context, caller auth.Caller, c catalog.Candidate) (Record, error) {
	if !caller.Valid() {
		return Record{}, auth.ErrUnauthenticated
	}
	if strings.TrimSpace(c.Title) == "" {
		return Record{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	entry, err := s.resolver.Resolve(ctx, c, caller.UserID)
	if err != nil {
		return Record{}, err
	}

	rec, err := s.AddToLibrary(ctx, caller, entry.ID)
	if err != nil {
		return Record{}, err
	}
	rec.Book = &entry
	return rec, nil
}

// ListForOwner returns the caller's records with their catalog entries. An
// empty status lists every record.
func (s *Service) ListForOwner(ctx context.Context, caller auth.Caller, status string) ([]Record, error) {
	if !caller.Valid() {
		return nil, auth.ErrUnauthenticated
	}

	var filter *int
	if status = strings.TrimSpace(status); status != "" {
		id, err := s.statusID(ctx, status)
		if err != nil {
			return nil, err
		}
		filter = &id
	}
	return s.repo.List(ctx, caller.UserID, filter)
}

func (s *Service) GetOne(ctx context.Context, caller auth.Caller, id string) (Record, error) {
	if !caller.Valid() {
		return Record{}, auth.ErrUnauthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	rec, ok, err := s.repo.Get(ctx, caller.UserID, id)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Remove deletes the caller's record. Records of other owners are reported
// as ErrNotFound and left in place.
func (s *Service) Remove(ctx context.Context, caller auth.Caller, id string) error {
	if !caller.Valid() {
		return auth.ErrUnauthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	ok, err := s.repo.Delete(ctx, caller.UserID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.publish(ctx, events.Event{Type: events.BookRemoved, UserID: caller.UserID, RecordID: id})
	return nil
}

// UpdateStatus moves the caller's record to status, stamping started_at on
// reading and finished_at on finished, and returns the stored record.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Caller, id, status string) (Record, error) {
	if !caller.Valid() {
		return Record{}, auth.ErrUnauthenticated
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return Record{}, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	statusID, err := s.statusID(ctx, status)
	if err != nil {
		return Record{}, err
	}

	ok, err := s.repo.UpdateStatus(ctx, caller.UserID, id, transitionTo(status, statusID, s.now()))
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}

	rec, ok, err := s.repo.Get(ctx, caller.UserID, id)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		// Removed between the update and the read.
		return Record{}, ErrNotFound
	}

	s.publish(ctx, events.Event{Type: events.StatusChanged, UserID: rec.UserID, RecordID: rec.ID, BookID: rec.BookID, Status: rec.Status})
	return rec, nil
}

func (s *Service) statusID(ctx context.Context, name string) (int, error) {
	id, ok, err := s.repo.StatusID(ctx, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, name)
	}
	return id, nil
}

// publish is best effort. The write it reports on has already committed.
func (s *Service) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish library event failed", "type", e.Type, "record_id", e.RecordID, "error", err)
	}
}
