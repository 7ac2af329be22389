package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hyeunung/hanslwebapp-sub000/internal/application/port"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/access"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/view"
)

// BoardQuery selects what the board shows. An empty Employee means the
// viewer's default for the tab; From and To default to the current year.
type BoardQuery struct {
	Tab      string
	Employee string
	Query    string
	From     *time.Time
	To       *time.Time
}

// Board is one rendered board view
type Board struct {
	Tab         view.Tab         `json:"tab"`
	Employee    string           `json:"employee"`
	Query       string           `json:"query,omitempty"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Rows        []view.Row       `json:"rows"`
	OrderCount  int              `json:"order_count"`
	Counts      map[view.Tab]int `json:"counts"`
	Stale       bool             `json:"stale"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// BoardService builds the grouped, filtered order board
type BoardService interface {
	Load(ctx context.Context, actor access.Actor, q BoardQuery) (*Board, error)
}

type boardServiceImpl struct {
	lineRepo port.PurchaseLineRepository
	clock    Clock
	logger   Logger

	mu       sync.RWMutex
	lastGood []*entity.PurchaseLine
}

// NewBoardService creates a new BoardService
func NewBoardService(lineRepo port.PurchaseLineRepository, clock Clock, logger Logger) BoardService {
	return &boardServiceImpl{
		lineRepo: lineRepo,
		clock:    clock,
		logger:   logger,
	}
}

// Load runs employee, search, tab and period filters over the stored lines
// and groups the survivors by order. When storage fails the last good read
// is used instead and the board is flagged stale.
func (s *boardServiceImpl) Load(ctx context.Context, actor access.Actor, q BoardQuery) (*Board, error) {
	tab, ok := view.ParseTab(q.Tab)
	if !ok {
		return nil, fmt.Errorf("%w: unknown tab %q", ErrValidation, q.Tab)
	}

	now := s.clock.Now()
	period := view.DefaultPeriod(now)
	if q.From != nil {
		period.From = q.From.In(now.Location())
	}
	if q.To != nil {
		period.To = q.To.In(now.Location())
	}
	if period.To.Before(period.From) {
		return nil, fmt.Errorf("%w: period ends before it starts", ErrValidation)
	}

	lines, stale, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	employeeFor := func(t view.Tab) string {
		if q.Employee != "" {
			return q.Employee
		}
		return actor.DefaultEmployee(t)
	}

	criteria := view.Criteria{
		Tab:                        tab,
		Employee:                   employeeFor(tab),
		Query:                      q.Query,
		Period:                     period,
		Today:                      now,
		PendingPurchaseRequestOnly: actor.PendingPurchaseRequestOnly(),
	}

	grouping := view.Group(view.Filter(lines, criteria))

	counts := make(map[view.Tab]int, len(view.Tabs))
	for _, t := range view.Tabs {
		c := criteria
		c.Tab = t
		c.Employee = employeeFor(t)
		counts[t] = view.CountOrders(lines, c)
	}

	return &Board{
		Tab:         tab,
		Employee:    criteria.Employee,
		Query:       q.Query,
		From:        period.From.Format("2006-01-02"),
		To:          period.To.Format("2006-01-02"),
		Rows:        grouping.Rows(),
		OrderCount:  grouping.Len(),
		Counts:      counts,
		Stale:       stale,
		GeneratedAt: now,
	}, nil
}

func (s *boardServiceImpl) fetch(ctx context.Context) ([]*entity.PurchaseLine, bool, error) {
	lines, err := s.lineRepo.List(ctx, entity.LineFilter{})
	if err == nil {
		if lines == nil {
			lines = []*entity.PurchaseLine{}
		}
		s.mu.Lock()
		s.lastGood = lines
		s.mu.Unlock()
		return lines, false, nil
	}

	s.mu.RLock()
	snapshot := s.lastGood
	s.mu.RUnlock()

	if snapshot == nil {
		s.logger.Error("Failed to load board", "error", err)
		return nil, false, fmt.Errorf("load board: %w", err)
	}

	s.logger.Error("Failed to load board, serving last good snapshot",
		"error", err,
		"snapshot_lines", len(snapshot))
	return snapshot, true, nil
}
