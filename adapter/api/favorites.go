package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	prefsApp "github.com/fsgregorio/driverapp-sub000/internal/preferences/application"
)

// listFavorites handles GET /v1/favorites.
func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ids, err := s.preferences.FavoriteInstructors(r.Context(), actor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoritesBody(ids))
}

// addFavorite handles PUT /v1/favorites/{instructorId}.
func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	instructorID, err := pathUUID(r, "instructorId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ids, err := s.preferences.AddFavorite(r.Context(), actor.ID, instructorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoritesBody(ids))
}

// removeFavorite handles DELETE /v1/favorites/{instructorId}.
func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	instructorID, err := pathUUID(r, "instructorId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ids, err := s.preferences.RemoveFavorite(r.Context(), actor.ID, instructorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoritesBody(ids))
}

// clearFavorites handles DELETE /v1/favorites.
func (s *Server) clearFavorites(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.preferences.Delete(r.Context(), actor.ID, prefsApp.FavoriteInstructorsKey); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func favoritesBody(ids []uuid.UUID) map[string]any {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return map[string]any{"instructorIds": ids}
}
