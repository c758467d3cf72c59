package controllers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Desarso/babyzen/logger"
	"github.com/Desarso/babyzen/media"
	"github.com/Desarso/babyzen/metrics"
	"github.com/Desarso/babyzen/models"
)

// ViewFactory builds a fresh view for a route.
type ViewFactory func(route models.Route) View

// NavEntry is one navigation bar item with its active flag.
type NavEntry struct {
	models.NavItem
	Active bool `json:"active"`
}

type ShellSnapshot struct {
	Current models.Route `json:"current"`
	Items   []NavEntry   `json:"items"`
}

// Shell owns the current route. Exactly one view is mounted at a time, and
// leaving a route throws its view away.
type Shell struct {
	factory ViewFactory
	logger  *zap.Logger

	mu      sync.Mutex
	current models.Route
	view    View
}

func NewShell(factory ViewFactory, log *zap.Logger) *Shell {
	return &Shell{factory: factory, logger: logger.OrNop(log)}
}

// Start mounts the home screen.
func (s *Shell) Start(ctx context.Context) View {
	return s.Navigate(ctx, models.DefaultRoute)
}

// Navigate switches to route, falling back to home for unknown routes.
// Navigating to the current route keeps the mounted view.
func (s *Shell) Navigate(ctx context.Context, route models.Route) View {
	route = models.ParseRoute(string(route))

	s.mu.Lock()
	if s.view != nil && s.current == route {
		v := s.view
		s.mu.Unlock()
		return v
	}
	old := s.view
	next := s.factory(route)
	s.current = route
	s.view = next
	s.mu.Unlock()

	if old != nil {
		old.Unmount()
	}
	s.logger.Debug("navigated", zap.String("route", string(route)))
	metrics.Transition("shell", string(route))
	next.Mount(ctx)
	return next
}

// Current returns the mounted view.
func (s *Shell) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Shell) Snapshot() ShellSnapshot {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	items := make([]NavEntry, len(models.NavItems))
	for i, item := range models.NavItems {
		items[i] = NavEntry{NavItem: item, Active: item.Route == current}
	}
	return ShellSnapshot{Current: current, Items: items}
}

// Close unmounts the current view.
func (s *Shell) Close() {
	s.mu.Lock()
	v := s.view
	s.view = nil
	s.mu.Unlock()
	if v != nil {
		v.Unmount()
	}
}

// NewViewFactory builds the standard views. recorder is the session's
// microphone and is shared by every cry view the session mounts.
func NewViewFactory(deps Deps, recorder media.Recorder) ViewFactory {
	return func(route models.Route) View {
		switch route {
		case models.RouteCryAnalyzer:
			return NewCryController(deps, recorder)
		case models.RouteFoodLens:
			return NewFoodController(deps)
		case models.RouteChat:
			return NewChatController(deps)
		default:
			return NewHomeView(deps)
		}
	}
}
