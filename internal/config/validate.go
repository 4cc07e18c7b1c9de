// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/homeview360/homeview/internal/validation"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks field rules and the cross-field constraints that struct
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return c.validateRecommend()
}

func (c *Config) validateStorage() error {
	if c.Storage.Backend == "badger" && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("%w: storage.path is required when storage.backend=badger", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics.enabled=true", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	for i, tag := range c.Recommend.GenericTags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: recommend.generic_tags[%d] is blank", ErrInvalidConfig, i)
		}
	}
	if c.Recommend.MaxTop > c.Recommend.RecommendedLimit {
		return fmt.Errorf("%w: recommend.max_top (%d) exceeds recommend.recommended_limit (%d)",
			ErrInvalidConfig, c.Recommend.MaxTop, c.Recommend.RecommendedLimit)
	}
	return nil
}
