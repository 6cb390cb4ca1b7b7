package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"maggram/internal/apperr"
	"maggram/internal/common"
	"maggram/internal/dbmongo"

	"github.com/gorilla/mux"
)

// MediaReader is the slice of GridFS storage the media route needs.
type MediaReader interface {
	DownloadImage(ctx context.Context, fileID string) (io.Reader, *dbmongo.MediaFile, error)
}

type FeedHandlers struct {
	FeedSvc FeedUsecase
	Media   MediaReader
}

func NewFeedHandlers(svc FeedUsecase, media MediaReader) *FeedHandlers {
	return &FeedHandlers{FeedSvc: svc, Media: media}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArg("invalid " + name)
	}
	return id, nil
}

// GetFeed handles GET /feed?mode=forYou|popular|following. Auth is
// optional; following mode rejects anonymous viewers downstream.
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	mode := ParseMode(r.URL.Query().Get("mode"))
	viewerID := common.ViewerID(r.Context())

	views, err := h.FeedSvc.GetFeed(r.Context(), viewerID, mode)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if views == nil {
		views = []PostView{}
	}

	common.WriteJSON(w, http.StatusOK, views)
}

// CreatePost handles multipart POST /posts with a "code" field and
// optional "images" files.
func (h *FeedHandlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		common.WriteError(w, apperr.InvalidArg("invalid multipart form"))
		return
	}

	code := r.FormValue("code")
	language := r.FormValue("language")

	var images []ImageUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				common.WriteError(w, apperr.InvalidArg("unreadable image upload"))
				return
			}
			defer file.Close()
			images = append(images, ImageUpload{
				FileName: header.Filename,
				MimeType: header.Header.Get("Content-Type"),
				Content:  file,
			})
		}
	}

	view, err := h.FeedSvc.CreatePost(r.Context(), common.ViewerID(r.Context()), code, language, images)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, view)
}

func (h *FeedHandlers) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	view, err := h.FeedSvc.GetPost(r.Context(), common.ViewerID(r.Context()), postID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, view)
}

func (h *FeedHandlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.FeedSvc.DeletePost(r.Context(), common.ViewerID(r.Context()), postID); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

func (h *FeedHandlers) LikePost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.FeedSvc.LikePost(r.Context(), common.ViewerID(r.Context()), postID); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "liked"})
}

func (h *FeedHandlers) UnlikePost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.FeedSvc.UnlikePost(r.Context(), common.ViewerID(r.Context()), postID); err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "unliked"})
}

func (h *FeedHandlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	comment, err := h.FeedSvc.AddComment(r.Context(), common.ViewerID(r.Context()), postID, req.Body)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusCreated, comment)
}

func (h *FeedHandlers) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		common.WriteError(w, err)
		return
	}

	comments, err := h.FeedSvc.ListComments(r.Context(), postID)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, comments)
}

// ServeMedia streams a post image out of GridFS.
func (h *FeedHandlers) ServeMedia(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileID"]
	if fileID == "" {
		common.WriteError(w, apperr.InvalidArg("invalid file ID"))
		return
	}

	stream, meta, err := h.Media.DownloadImage(r.Context(), fileID)
	if err != nil {
		common.WriteError(w, apperr.NotFound("media not found"))
		return
	}

	if meta.MimeType != "" {
		w.Header().Set("Content-Type", meta.MimeType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	io.Copy(w, stream)
}
