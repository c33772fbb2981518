// Package application manages per-student preferences, including the list
// of favorite instructors.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// FavoriteInstructorsKey holds a JSON array of instructor ids.
const FavoriteInstructorsKey = "favorite_instructors"

// MaxKeyLength bounds preference keys.
const MaxKeyLength = 128

var (
	// ErrInvalidKey is returned for empty, overlong or non-ASCII keys.
	ErrInvalidKey = errors.New("invalid preference key")
	// ErrInvalidStudent is returned for a nil student id.
	ErrInvalidStudent = errors.New("student id is required")
)

// Store persists preference values per student.
type Store interface {
	Get(ctx context.Context, studentID uuid.UUID, key string) (value string, found bool, err error)
	Set(ctx context.Context, studentID uuid.UUID, key, value string) error
	Delete(ctx context.Context, studentID uuid.UUID, key string) error
	All(ctx context.Context, studentID uuid.UUID) (map[string]string, error)
}

// Service manages student preferences.
type Service struct {
	store Store
}

// NewService creates a preferences service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the value for key, or found=false.
func (s *Service) Get(ctx context.Context, studentID uuid.UUID, key string) (string, bool, error) {
	if err := check(studentID, key); err != nil {
		return "", false, err
	}
	return s.store.Get(ctx, studentID, key)
}

// Set stores value under key.
func (s *Service) Set(ctx context.Context, studentID uuid.UUID, key, value string) error {
	if err := check(studentID, key); err != nil {
		return err
	}
	return s.store.Set(ctx, studentID, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Service) Delete(ctx context.Context, studentID uuid.UUID, key string) error {
	if err := check(studentID, key); err != nil {
		return err
	}
	return s.store.Delete(ctx, studentID, key)
}

// All returns every preference of the student.
func (s *Service) All(ctx context.Context, studentID uuid.UUID) (map[string]string, error) {
	if studentID == uuid.Nil {
		return nil, ErrInvalidStudent
	}
	return s.store.All(ctx, studentID)
}

// FavoriteInstructors returns the student's favorites in the order they
// were added.
func (s *Service) FavoriteInstructors(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	raw, found, err := s.Get(ctx, studentID, FavoriteInstructorsKey)
	if err != nil || !found {
		return nil, err
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode favorites of %s: %w", studentID, err)
	}
	return ids, nil
}

// AddFavorite appends instructorID unless it is already a favorite.
func (s *Service) AddFavorite(ctx context.Context, studentID, instructorID uuid.UUID) ([]uuid.UUID, error) {
	if instructorID == uuid.Nil {
		return nil, errors.New("instructor id is required")
	}
	ids, err := s.FavoriteInstructors(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(ids, instructorID) {
		return ids, nil
	}
	ids = append(ids, instructorID)
	return ids, s.saveFavorites(ctx, studentID, ids)
}

// RemoveFavorite drops instructorID from the favorites.
func (s *Service) RemoveFavorite(ctx context.Context, studentID, instructorID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.FavoriteInstructors(ctx, studentID)
	if err != nil {
		return nil, err
	}
	i := slices.Index(ids, instructorID)
	if i < 0 {
		return ids, nil
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		return nil, s.store.Delete(ctx, studentID, FavoriteInstructorsKey)
	}
	return ids, s.saveFavorites(ctx, studentID, ids)
}

func (s *Service) saveFavorites(ctx context.Context, studentID uuid.UUID, ids []uuid.UUID) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, studentID, FavoriteInstructorsKey, string(data))
}

func check(studentID uuid.UUID, key string) error {
	if studentID == uuid.Nil {
		return ErrInvalidStudent
	}
	if key == "" || len(key) > MaxKeyLength || strings.ContainsFunc(key, func(r rune) bool {
		return r <= ' ' || r > '~'
	}) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
