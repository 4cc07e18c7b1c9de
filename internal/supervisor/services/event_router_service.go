// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package services

import "context"

// EventRunner is satisfied by *events.Router.
type EventRunner interface {
	Run(ctx context.Context) error
}

// EventRouterService supervises the UI event router. Each restart builds a
// fresh watermill router inside Run.
type EventRouterService struct {
	router EventRunner
}

// NewEventRouterService wraps router.
func NewEventRouterService(router EventRunner) *EventRouterService {
	return &EventRouterService{router: router}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	return s.router.Run(ctx)
}

// String implements fmt.Stringer.
func (s *EventRouterService) String() string {
	return "event-router"
}
