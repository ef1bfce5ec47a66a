// Package catalog manages the studio's recurring class templates.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fightflight/backend/internal/models"
	"github.com/fightflight/backend/internal/schedule"
)

// Store persists class templates. Templates are never physically deleted.
type Store interface {
	List(ctx context.Context, activeOnly bool) ([]*models.ClassTemplate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClassTemplate, error)
	Create(ctx context.Context, c *models.ClassTemplate) error
	Update(ctx context.Context, c *models.ClassTemplate) error
}

// Input is a create request. Weekday is a day name and Time a 12-hour clock
// such as "6:30 PM".
type Input struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Instructor      string `json:"instructor"`
	Level           string `json:"level"`
	Description     string `json:"description"`
	Weekday         string `json:"weekday"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"durationMinutes"`
	Capacity        int    `json:"capacity"`
	CreditsRequired int    `json:"creditsRequired"`
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Name            *string `json:"name"`
	Type            *string `json:"type"`
	Instructor      *string `json:"instructor"`
	Level           *string `json:"level"`
	Description     *string `json:"description"`
	Weekday         *string `json:"weekday"`
	Time            *string `json:"time"`
	DurationMinutes *int    `json:"durationMinutes"`
	Capacity        *int    `json:"capacity"`
	CreditsRequired *int    `json:"creditsRequired"`
	Active          *bool   `json:"active"`
}

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger
}

func NewService(store Store, loc *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now, log: logger}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ListUpcoming returns active templates whose occurrence this week has not
// started yet, Sunday first and then by time.
func (s *Service) ListUpcoming(ctx context.Context) ([]*models.ClassTemplate, error) {
	all, err := s.store.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return schedule.UpcomingThisWeek(all, s.now().In(s.loc)), nil
}

// List returns templates sorted by weekday and time. Inactive ones are
// included only when activeOnly is false.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*models.ClassTemplate, error) {
	all, err := s.store.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	schedule.SortByWeekdayAndTime(all)
	return all, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.ClassTemplate, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get class %s: %w", id, err)
	}
	return c, nil
}

// Create adds an active template with no seats booked.
func (s *Service) Create(ctx context.Context, in Input) (*models.ClassTemplate, error) {
	c := &models.ClassTemplate{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(in.Name),
		Type:            in.Type,
		Instructor:      strings.TrimSpace(in.Instructor),
		Level:           in.Level,
		Description:     in.Description,
		DurationMinutes: in.DurationMinutes,
		Capacity:        in.Capacity,
		CreditsRequired: in.CreditsRequired,
		Active:          true,
	}
	if err := setSlot(c, in.Weekday, in.Time); err != nil {
		return nil, err
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	s.log.Info("class created", "class_id", c.ID, "name", c.Name, "weekday", c.Weekday, "time", c.WallClockTime)
	return c, nil
}

// Update applies a patch. The booked counter cannot be changed here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*models.ClassTemplate, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get class %s: %w", id, err)
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Instructor != nil {
		c.Instructor = strings.TrimSpace(*p.Instructor)
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.DurationMinutes != nil {
		c.DurationMinutes = *p.DurationMinutes
	}
	if p.Capacity != nil {
		c.Capacity = *p.Capacity
	}
	if p.CreditsRequired != nil {
		c.CreditsRequired = *p.CreditsRequired
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	if p.Weekday != nil || p.Time != nil {
		day, at := c.Weekday.String(), c.WallClockTime
		if p.Weekday != nil {
			day = *p.Weekday
		}
		if p.Time != nil {
			at = *p.Time
		}
		if err := setSlot(c, day, at); err != nil {
			return nil, err
		}
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update class %s: %w", id, err)
	}
	s.log.Info("class updated", "class_id", c.ID)
	return c, nil
}

// Deactivate soft-deletes the template. Existing bookings keep pointing at it.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	inactive := false
	if _, err := s.Update(ctx, id, Patch{Active: &inactive}); err != nil {
		return err
	}
	s.log.Info("class deactivated", "class_id", id)
	return nil
}

func setSlot(c *models.ClassTemplate, weekday, at string) error {
	day, err := schedule.ParseWeekday(weekday)
	if err != nil {
		return err
	}
	wc, err := schedule.ParseWallClock(at)
	if err != nil {
		return err
	}
	c.Weekday = day
	c.WallClockTime = wc.String()
	return nil
}

func validate(c *models.ClassTemplate) error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive", models.ErrValidation)
	case c.CreditsRequired < 1:
		return fmt.Errorf("%w: creditsRequired must be at least 1", models.ErrValidation)
	case c.DurationMinutes <= 0:
		return fmt.Errorf("%w: durationMinutes must be positive", models.ErrValidation)
	}
	return nil
}
