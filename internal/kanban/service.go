// Package kanban contains the pure business logic for the Tracker service.
// It is transport-agnostic: used by the HTTP handler and the gRPC server.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates all Kanban business logic.
// It has no dependency on net/http and is shared by every transport.
type Service struct {
	store   Store
	pub     Publisher
	metrics *boardMetrics
	now     func() time.Time
}

// NewService returns a configured Service. pub may be nil, in which case no
// board events are published.
func NewService(store Store, pub Publisher) *Service {
	return &Service{
		store:   store,
		pub:     pub,
		metrics: newBoardMetrics(),
		now:     time.Now,
	}
}

// ─── Queries ──────────────────────────────────────────────────────────────────

// ListApplications returns the user's cards ordered by column, then position.
// If statusFilter is non-empty, only that column is returned.
func (s *Service) ListApplications(ctx context.Context, userID, statusFilter string) ([]Application, error) {
	var filter *Status
	if statusFilter != "" {
		st, err := ParseStatus(statusFilter)
		if err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
		filter = &st
	}

	apps, err := s.store.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("listApplications: %w", err)
	}
	return apps, nil
}

// GetApplication returns a single application by ID, validating ownership.
func (s *Service) GetApplication(ctx context.Context, userID, appID string) (*Application, error) {
	return s.store.Get(ctx, userID, appID)
}

// ─── Commands ─────────────────────────────────────────────────────────────────

// CreateApplication adds a card at the bottom of its column. The status
// defaults to Applied.
func (s *Service) CreateApplication(ctx context.Context, userID string, req CreateRequest) (*Application, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = StatusApplied
	}

	now := s.now().UTC()
	app := &Application{
		ID:              uuid.NewString(),
		OwnerID:         userID,
		CompanyName:     req.CompanyName,
		PositionTitle:   req.PositionTitle,
		Status:          status,
		ApplicationDate: req.ApplicationDate,
		SalaryRange:     req.SalaryRange,
		Location:        req.Location,
		Notes:           req.Notes,
		HistoryLog:      []StatusChange{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	app.InterviewStage, app.RejectionStage = ReconcileStages(status, req.InterviewStage, req.RejectionStage)

	err := s.store.WithinOwner(ctx, userID, func(tx Tx) error {
		peers, err := tx.ListPartition(ctx, status)
		if err != nil {
			return fmt.Errorf("createApplication list column: %w", err)
		}
		app.OrderIndex = NextIndex(members(peers))
		if app.OrderIndex > MaxOrderIndex {
			return &ValidationError{Msg: fmt.Sprintf("column %s is full", status)}
		}
		if err := tx.Insert(ctx, app); err != nil {
			return fmt.Errorf("createApplication insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	idx := app.OrderIndex
	s.publish(ctx, Event{
		Type:          EventApplicationCreated,
		ApplicationID: app.ID,
		UserID:        userID,
		To:            app.Status,
		OrderIndex:    &idx,
	})
	return app, nil
}

// MoveCard drops a card into column req.Status at position req.OrderIndex.
//
// Every other card of the destination column at or above the drop position
// moves up by one, whether the card comes from another column or is being
// reordered inside its own. Stage fields are reconciled with the destination
// status. Dropping a card exactly where it already is rewrites its stages and
// touches nothing else.
//
// Returns ErrNotFound if the application does not exist or belong to userID.
func (s *Service) MoveCard(ctx context.Context, userID, appID string, req MoveRequest) (*Application, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	target := *req.OrderIndex

	var (
		app     *Application
		from    Status
		shifted int
	)
	err := s.store.WithinOwner(ctx, userID, func(tx Tx) error {
		cur, err := tx.Get(ctx, appID)
		if err != nil {
			return err
		}
		from = cur.Status

		interview, rejection := ReconcileStages(req.Status, req.InterviewStage, req.RejectionStage)

		if cur.Status != req.Status || cur.OrderIndex != target {
			peers, err := tx.ListPartition(ctx, req.Status)
			if err != nil {
				return fmt.Errorf("moveCard list column: %w", err)
			}
			plan := PlanInsertion(members(peers), cur.ID, target)
			if err := checkShifts(req.Status, plan.Shifts); err != nil {
				return err
			}
			if err := tx.ApplyShifts(ctx, plan.Shifts); err != nil {
				return fmt.Errorf("moveCard shift: %w", err)
			}
			shifted = len(plan.Shifts)
			target = plan.Resolved
		}

		if cur.Status != req.Status {
			cur.HistoryLog = append(cur.HistoryLog, StatusChange{
				From: cur.Status,
				To:   req.Status,
				At:   s.now().UTC(),
			})
		}
		cur.Status = req.Status
		cur.OrderIndex = target
		cur.InterviewStage = interview
		cur.RejectionStage = rejection

		if err := tx.Update(ctx, cur); err != nil {
			return fmt.Errorf("moveCard update: %w", err)
		}
		app = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.recordMove(ctx, from, app.Status, shifted)

	idx := app.OrderIndex
	s.publish(ctx, Event{
		Type:          EventCardMoved,
		ApplicationID: appID,
		UserID:        userID,
		From:          from,
		To:            app.Status,
		OrderIndex:    &idx,
	})
	return app, nil
}

// UpdateApplication edits the descriptive fields of a card. A status change
// appends the card to the bottom of its new column; stage fields are always
// reconciled with the resulting status.
func (s *Service) UpdateApplication(ctx context.Context, userID, appID string, req UpdateRequest) (*Application, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var (
		app  *Application
		from Status
	)
	err := s.store.WithinOwner(ctx, userID, func(tx Tx) error {
		cur, err := tx.Get(ctx, appID)
		if err != nil {
			return err
		}
		from = cur.Status

		if req.CompanyName != nil {
			cur.CompanyName = *req.CompanyName
		}
		if req.PositionTitle != nil {
			cur.PositionTitle = *req.PositionTitle
		}
		if req.ApplicationDate != nil {
			cur.ApplicationDate = *req.ApplicationDate
		}
		if req.SalaryRange != nil {
			cur.SalaryRange = req.SalaryRange
		}
		if req.Location != nil {
			cur.Location = req.Location
		}
		if req.Notes != nil {
			cur.Notes = req.Notes
		}

		interview, rejection := cur.InterviewStage, cur.RejectionStage
		if req.InterviewStage != nil {
			interview = req.InterviewStage
		}
		if req.RejectionStage != nil {
			rejection = req.RejectionStage
		}

		if req.Status != nil && *req.Status != cur.Status {
			peers, err := tx.ListPartition(ctx, *req.Status)
			if err != nil {
				return fmt.Errorf("updateApplication list column: %w", err)
			}
			cur.HistoryLog = append(cur.HistoryLog, StatusChange{
				From: cur.Status,
				To:   *req.Status,
				At:   s.now().UTC(),
			})
			next := NextIndex(members(peers))
			if next > MaxOrderIndex {
				return &ValidationError{Msg: fmt.Sprintf("column %s is full", *req.Status)}
			}
			cur.Status = *req.Status
			cur.OrderIndex = next
		}
		cur.InterviewStage, cur.RejectionStage = ReconcileStages(cur.Status, interview, rejection)

		if err := tx.Update(ctx, cur); err != nil {
			return fmt.Errorf("updateApplication: %w", err)
		}
		app = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	if app.Status != from {
		idx := app.OrderIndex
		s.publish(ctx, Event{
			Type:          EventCardMoved,
			ApplicationID: appID,
			UserID:        userID,
			From:          from,
			To:            app.Status,
			OrderIndex:    &idx,
		})
	}
	return app, nil
}

// DeleteApplication removes a card. The rest of its column keeps its order
// indexes; the gap is closed by the next compaction.
func (s *Service) DeleteApplication(ctx context.Context, userID, appID string) error {
	err := s.store.WithinOwner(ctx, userID, func(tx Tx) error {
		return tx.Delete(ctx, appID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, Event{
		Type:          EventApplicationDeleted,
		ApplicationID: appID,
		UserID:        userID,
	})
	return nil
}

// ─── Compaction ───────────────────────────────────────────────────────────────

// CompactOwner renumbers every column of one user to 0..n-1, keeping the
// relative order of the cards. It runs under the same owner lock as
// MoveCard and returns the number of cards rewritten; a second run right
// after the first rewrites nothing.
func (s *Service) CompactOwner(ctx context.Context, userID string) (int, error) {
	rewritten := 0
	err := s.store.WithinOwner(ctx, userID, func(tx Tx) error {
		rewritten = 0
		for _, st := range Statuses() {
			peers, err := tx.ListPartition(ctx, st)
			if err != nil {
				return fmt.Errorf("compact list %s: %w", st, err)
			}
			shifts := PlanCompaction(members(peers))
			if err := tx.ApplyShifts(ctx, shifts); err != nil {
				return fmt.Errorf("compact %s: %w", st, err)
			}
			rewritten += len(shifts)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.recordCompaction(ctx, rewritten)
	return rewritten, nil
}

// CompactAll compacts the board of every user. A failing user is logged and
// skipped; the joined errors are returned once every user was visited.
func (s *Service) CompactAll(ctx context.Context) (int, error) {
	owners, err := s.store.Owners(ctx)
	if err != nil {
		return 0, fmt.Errorf("compactAll owners: %w", err)
	}

	var (
		total int
		errs  []error
	)
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := s.CompactOwner(ctx, owner)
		if err != nil {
			slog.Warn("compaction failed", "userId", owner, "err", err)
			errs = append(errs, fmt.Errorf("user %s: %w", owner, err))
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// publish forwards an event to the Gateway (non-fatal).
func (s *Service) publish(ctx context.Context, ev Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		slog.Warn("publish failed", "type", ev.Type, "applicationId", ev.ApplicationID, "err", err)
	}
}
