package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"maggram/internal/apperr"
	"maggram/internal/common"
	"maggram/internal/dbmysql"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	UserSvc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{UserSvc: svc}
}

type authResponse struct {
	User  *dbmysql.User `json:"user"`
	Token string        `json:"token"`
}

func pathUserID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["userID"], 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidArg("invalid user ID")
	}
	return id, nil
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle   string `json:"handle"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	user, token, err := h.UserSvc.RegisterUser(r.Context(), req.Handle, req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle   string `json:"handle"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	user, token, err := h.UserSvc.LoginUser(r.Context(), req.Handle, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserSvc.GetProfile(r.Context(), common.ViewerID(r.Context()))
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Bio   string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	if err := h.UserSvc.UpdateProfile(r.Context(), common.ViewerID(r.Context()), req.Email, req.Bio); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	user, err := h.UserSvc.GetProfile(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.UserSvc.FollowUser(r.Context(), common.ViewerID(r.Context()), userID); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "following"})
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.UserSvc.UnfollowUser(r.Context(), common.ViewerID(r.Context()), userID); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "unfollowed"})
}

func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	users, err := h.UserSvc.ListFollowers(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	users, err := h.UserSvc.ListFollowing(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, users)
}
