package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const userIDKey contextKey = "userID"

// requester returns the authenticated user id set by the bearer middleware.
func requester(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/healthcheck", h.Healthcheck)

	r.Route("/api", func(r chi.Router) {
		// Public routes: everything else requires a live bearer token.
		r.Post("/register", h.Register)
		r.Post("/auth", h.Authenticate)

		r.Group(func(r chi.Router) {
			r.Use(h.BearerAuth)

			r.Post("/updatePassword", h.UpdatePassword)
			r.Post("/logout", h.Logout)
			r.Post("/deleteAccount", h.DeleteAccount)

			r.Post("/createChat", h.CreateChat)
			r.Post("/createChatMessage", h.CreateChatMessage)
			r.Post("/getChatMessages", h.GetChatMessages)
			r.Post("/getInvolvedChats", h.GetInvolvedChats)
			r.Post("/getChatUsers", h.GetChatUsers)
			r.Post("/joinChat", h.JoinChat)
			r.Post("/leaveChat", h.LeaveChat)
			r.Post("/deleteChat", h.DeleteChat)
			r.Post("/deleteChatMessage", h.DeleteChatMessage)

			r.Post("/follow", h.Follow)
			r.Post("/unfollow", h.Unfollow)
			r.Post("/setIcon", h.SetIcon)
			r.Post("/awardBanner", h.AwardBanner)
			r.Post("/transferBanner", h.TransferBanner)
			r.Post("/suspend", h.Suspend)
		})
	})

	return r
}

// BearerAuth resolves the Authorization header to a user before any handler
// runs. Missing, unknown and expired codes are all rejected with 401.
func (h *Handler) BearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		code := ""
		if strings.HasPrefix(header, "Bearer ") {
			code = strings.TrimPrefix(header, "Bearer ")
		}

		userID, err := h.sessions.Resolve(code)
		if err != nil {
			h.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
