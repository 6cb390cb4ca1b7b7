package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"maggram/internal/apperr"
	"maggram/internal/chat/service"
	"maggram/internal/common"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	ChatSvc service.ChatService
}

func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{ChatSvc: svc}
}

// CreateConversation handles POST /conversations with a member_ids
// list; the caller is always included.
func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberIDs []uint64 `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	conv, err := h.ChatSvc.CreateConversation(r.Context(), common.ViewerID(r.Context()), req.MemberIDs)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, conv)
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.ChatSvc.ListConversations(r.Context(), common.ViewerID(r.Context()))
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, convs)
}

// SendMessage handles multipart POST /conversations/{id}/messages with
// a "body" field and optional "files".
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationID"]

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		common.WriteError(w, apperr.InvalidArg("invalid multipart form"))
		return
	}

	body := r.FormValue("body")

	var files []service.FileUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			file, err := header.Open()
			if err != nil {
				common.WriteError(w, apperr.InvalidArg("unreadable file upload"))
				return
			}
			defer file.Close()
			files = append(files, service.FileUpload{
				FileName: header.Filename,
				MimeType: header.Header.Get("Content-Type"),
				Content:  file,
			})
		}
	}

	msg, err := h.ChatSvc.SendMessage(r.Context(), common.ViewerID(r.Context()), conversationID, body, files)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationID"]

	messages, err := h.ChatSvc.GetMessageHistory(r.Context(), common.ViewerID(r.Context()), conversationID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, messages)
}

// DownloadAttachment streams the file bytes, gated by conversation
// membership.
func (h *ChatHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	attachmentID := mux.Vars(r)["attachmentID"]

	rc, att, err := h.ChatSvc.DownloadAttachment(r.Context(), common.ViewerID(r.Context()), attachmentID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	defer rc.Close()

	if att.MimeType != "" {
		w.Header().Set("Content-Type", att.MimeType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(att.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
	io.Copy(w, rc)
}

func (h *ChatHandler) AttachmentMeta(w http.ResponseWriter, r *http.Request) {
	attachmentID := mux.Vars(r)["attachmentID"]

	att, err := h.ChatSvc.AttachmentMeta(r.Context(), common.ViewerID(r.Context()), attachmentID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, att)
}
