// Package httpapi carries the static CRUD surface next to the relay:
// registration, meeting create/read/patch and profile updates. The
// client session also fetches its Live snapshot from here.
package httpapi

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"meetsync/auth"
	"meetsync/domain"
	"meetsync/errors"
	"meetsync/protocol"
	"meetsync/repositories"
	"meetsync/services"
)

type contextKey string

const userContextKey contextKey = "authorizedUser"

type Server struct {
	log      *slog.Logger
	accounts services.IAccountService
	meetings services.IMeetingService
	users    repositories.IUserRepository
}

func NewServer(log *slog.Logger, accounts services.IAccountService,
	meetings services.IMeetingService, users repositories.IUserRepository) *Server {
	return &Server{log: log, accounts: accounts, meetings: meetings, users: users}
}

// Routes builds the API mux. The websocket endpoint is mounted here as
// well so the whole surface shares one listener; it performs its own
// in-band authentication and bypasses the header middleware result.
func (s *Server) Routes(syncHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/meetings", s.handleCreateMeeting)
	mux.HandleFunc("GET /api/meetings/{meetingId}", s.handleGetMeeting)
	mux.HandleFunc("PATCH /api/meetings/{meetingId}", s.handleUpdateMeeting)
	mux.HandleFunc("PATCH /api/users/me", s.handleUpdateUser)
	mux.Handle("GET /api/meetings/{meetingId}/connect", syncHandler)

	return s.withAuthorizedUser(mux)
}

// withAuthorizedUser resolves the "userId##secret" Authorization header
// and attaches the user to the request context. A missing or invalid
// header does not fail the request here; handlers that need the user
// reject on their own.
func (s *Server) withAuthorizedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header != "" {
			userID, secret, ok := strings.Cut(header, "##")
			if !ok {
				s.log.Debug("Malformed authorization header", "path", r.URL.Path)
			} else if user, err := s.users.GetUserByToken(domain.UserID(userID), secret); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
			} else {
				s.log.Debug("Authorization rejected", "path", r.URL.Path, "error", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func authorizedUser(r *http.Request) (domain.User, bool) {
	user, ok := r.Context().Value(userContextKey).(domain.User)
	return user, ok
}

type tokenResponse struct {
	Token      string `json:"token"`
	Expiration int64  `json:"expiration"`
}

type registerResponse struct {
	ID    string        `json:"id"`
	Token tokenResponse `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Register()
	if err != nil {
		s.log.Error("Registration failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, statusBody(http.StatusInternalServerError))
		return
	}

	token := user.Tokens[0]
	s.writeJSON(w, http.StatusOK, registerResponse{
		ID: string(user.ID),
		Token: tokenResponse{
			Token:      token.Secret,
			Expiration: token.ExpiresAt.UnixMilli(),
		},
	})
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorizedUser(r); !ok {
		s.writeUnauthorized(w)
		return
	}

	meeting, err := s.meetings.Create()
	if err != nil {
		s.log.Error("Meeting creation failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, statusBody(http.StatusInternalServerError))
		return
	}
	s.writeJSON(w, http.StatusOK, protocol.FromDomainMeeting(meeting))
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := s.meetings.Get(domain.MeetingID(r.PathValue("meetingId")))
	if err != nil {
		s.writeMeetingError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, protocol.FromDomainMeeting(meeting))
}

func (s *Server) handleUpdateMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := authorizedUser(r)
	if !ok {
		s.writeUnauthorized(w)
		return
	}

	var payload protocol.UpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, statusBody(http.StatusBadRequest))
		return
	}

	meeting, err := s.meetings.Update(domain.MeetingID(r.PathValue("meetingId")), user, payload.ToDomain())
	if err != nil {
		s.writeMeetingError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, protocol.FromDomainMeeting(meeting))
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := authorizedUser(r)
	if !ok {
		s.writeUnauthorized(w)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, statusBody(http.StatusBadRequest))
		return
	}

	updated, err := s.accounts.UpdateProfile(user, auth.UpdateUserRequest{Name: req.Name, Email: req.Email})
	if err != nil {
		if goerrors.Is(err, errors.ErrInvalidRequest) {
			s.writeJSON(w, http.StatusBadRequest, statusBody(http.StatusBadRequest))
			return
		}
		s.log.Error("Profile update failed", "user_id", user.ID, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, statusBody(http.StatusInternalServerError))
		return
	}

	s.writeJSON(w, http.StatusOK, userResponse{
		ID:    string(updated.ID),
		Name:  updated.Name,
		Email: updated.Email,
	})
}

func (s *Server) writeMeetingError(w http.ResponseWriter, err error) {
	if goerrors.Is(err, errors.ErrMeetingNotFound) {
		s.writeJSON(w, http.StatusNotFound, statusBody(http.StatusNotFound))
		return
	}
	s.log.Error("Meeting store failure", "error", err)
	s.writeJSON(w, http.StatusInternalServerError, statusBody(http.StatusInternalServerError))
}

func (s *Server) writeUnauthorized(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "unauthorized"})
}

func statusBody(code int) map[string]int {
	return map[string]int{"status": code}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Debug("Response write failed", "error", err)
	}
}
