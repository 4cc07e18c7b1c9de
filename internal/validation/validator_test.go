// HomeView360 - Furniture Catalog Personalization
// Copyright 2026 HomeView360 Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/homeview360/homeview

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	ID      string   `json:"id" validate:"required,nonblank"`
	Price   float64  `json:"price" validate:"gte=0"`
	Backend string   `koanf:"backend" validate:"oneof=badger memory"`
	Tags    []string `json:"tags" validate:"dive,nonblank"`
	Name    string   `json:"name" validate:"omitempty,max=5"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      sample
		wantFields []string
	}{
		{
			name:  "valid",
			input: sample{ID: "sofa-1", Price: 899, Backend: "badger", Tags: []string{"modern"}},
		},
		{
			name:       "missing id",
			input:      sample{Backend: "memory"},
			wantFields: []string{"id"},
		},
		{
			name:       "blank id",
			input:      sample{ID: "   ", Backend: "memory"},
			wantFields: []string{"id"},
		},
		{
			name:       "negative price and bad backend",
			input:      sample{ID: "x", Price: -1, Backend: "redis"},
			wantFields: []string{"price", "backend"},
		},
		{
			name:       "blank tag",
			input:      sample{ID: "x", Backend: "memory", Tags: []string{"ok", " "}},
			wantFields: []string{"tags[1]"},
		},
		{
			name:       "long name",
			input:      sample{ID: "x", Backend: "memory", Name: "sectional"},
			wantFields: []string{"name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			var verrs Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("ValidateStruct() error = %T %v, want Errors", err, err)
			}
			got := strings.Join(verrs.Fields(), ",")
			want := strings.Join(tt.wantFields, ",")
			if got != want {
				t.Errorf("Fields() = %q, want %q", got, want)
			}
		})
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	err := ValidateStruct(&sample{ID: "x", Backend: "redis", Price: -2})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{
		"price must be greater than or equal to 0",
		"backend must be one of: badger memory",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not contain %q", msg, want)
		}
	}
}
