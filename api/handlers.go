// Package api is the thin HTTP glue: request decoding, the bearer-token
// middleware and the mapping from typed service errors to status codes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperr "chat-vault/errors"

	"chat-vault/auth"
	"chat-vault/services"
)

type Handler struct {
	authService *services.AuthService
	chatService *services.ChatService
	userService *services.UserService
	sessions    *auth.Registry
	log         *slog.Logger
}

func NewHandler(as *services.AuthService, cs *services.ChatService, us *services.UserService, sessions *auth.Registry, log *slog.Logger) *Handler {
	return &Handler{
		authService: as,
		chatService: cs,
		userService: us,
		sessions:    sessions,
		log:         log,
	}
}

// writeError is the single place typed errors become status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrAuthMissing),
		errors.Is(err, apperr.ErrAuthInvalid),
		errors.Is(err, apperr.ErrAuthExpired),
		errors.Is(err, apperr.ErrInvalidCredentials),
		errors.Is(err, apperr.ErrPermission):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	default:
		h.log.Error("internal error", "error", err)
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AuthCode  string `json:"authCode"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AuthCode: token.AuthCode, ExpiresAt: token.ExpiresAt.UnixMilli()})
}

func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AuthCode: token.AuthCode, ExpiresAt: token.ExpiresAt.UnixMilli()})
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	token, err := h.authService.UpdatePassword(requester(r), req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AuthCode: token.AuthCode, ExpiresAt: token.ExpiresAt.UnixMilli()})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(requester(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	chat, err := h.chatService.CreateChat(req.Name, requester(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"chatId": chat.ID})
}

type chatRequest struct {
	ChatID string `json:"chatId"`
}

func (h *Handler) CreateChatMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID  string `json:"chatId"`
		Content string `json:"content"`
		ReplyID string `json:"replyId,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	message, err := h.chatService.PostMessage(req.ChatID, requester(r), req.Content, req.ReplyID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func (h *Handler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	messages, err := h.chatService.ListMessages(req.ChatID, requester(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) GetInvolvedChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatService.ListChatsFor(requester(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *Handler) GetChatUsers(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	members, err := h.chatService.ChatMembers(req.ChatID, requester(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) JoinChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.chatService.JoinChat(req.ChatID, requester(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) LeaveChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.chatService.LeaveChat(req.ChatID, requester(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.chatService.DeleteChat(req.ChatID, requester(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteChatMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID    string `json:"chatId"`
		MessageID string `json:"messageId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.chatService.DeleteMessage(req.ChatID, req.MessageID, requester(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type userRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.userService.Follow(requester(r), req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.userService.Unfollow(requester(r), req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) SetIcon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Icon string `json:"icon"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.userService.SetIcon(requester(r), req.Icon); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) AwardBanner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		Caption string `json:"caption"`
		Rarity  string `json:"rarity"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.userService.AwardBanner(requester(r), req.UserID, req.Caption, req.Rarity); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) TransferBanner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromID string `json:"fromId"`
		ToID   string `json:"toId"`
		Index  int    `json:"index"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.userService.TransferBanner(requester(r), req.FromID, req.ToID, req.Index); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Level  int    `json:"level"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.userService.Suspend(requester(r), req.UserID, req.Level); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteAccount hard-deletes the caller with full cascading cleanup.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.DeleteUser(requester(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
