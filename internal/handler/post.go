package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/service"
)

// maxPostForm bounds the whole multipart body of a new post.
const maxPostForm = model.MaxPostMediaCount*model.MaxMediaSize + 1<<20

type PostHandler struct {
	users UserLookup
	posts *service.PostService
	log   *logrus.Entry
}

func NewPostHandler(users UserLookup, posts *service.PostService, log *logrus.Entry) *PostHandler {
	return &PostHandler{users: users, posts: posts, log: log}
}

// Create handles POST /posts
// Multipart form: "caption", "coach_only" and any number of "files". The media
// kind of each file comes from its Content-Type.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	author, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPostForm)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteDomainError(w, model.ErrFileTooLarge)
			return
		}
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := service.CreatePostInput{}
	if caption := r.FormValue("caption"); caption != "" {
		in.Caption = &caption
	}
	if v := r.FormValue("coach_only"); v != "" {
		coachOnly, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid coach_only value")
			return
		}
		in.CoachOnly = coachOnly
	}

	for _, fh := range r.MultipartForm.File["files"] {
		upload, err := readUpload(fh)
		if err != nil {
			writeError(w, h.log, "CreatePost", err)
			return
		}
		in.Media = append(in.Media, upload)
	}

	post, err := h.posts.Create(r.Context(), author, in)
	if err != nil {
		writeError(w, h.log, "CreatePost", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

func readUpload(fh *multipart.FileHeader) (service.MediaUpload, error) {
	if fh.Size > model.MaxMediaSize {
		return service.MediaUpload{}, model.ErrFileTooLarge
	}

	var kind model.MediaKind
	contentType := fh.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		kind = model.MediaImage
	case strings.HasPrefix(contentType, "video/"):
		kind = model.MediaVideo
	default:
		return service.MediaUpload{}, model.ErrInvalidFieldValue
	}

	f, err := fh.Open()
	if err != nil {
		return service.MediaUpload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, model.MaxMediaSize+1))
	if err != nil {
		return service.MediaUpload{}, err
	}
	return service.MediaUpload{Kind: kind, Data: data}, nil
}

// GetByID handles GET /posts/{id}
// Coach-only posts are reported as missing to non-coach viewers.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "GetPost", err)
		return
	}
	if !service.CanView(optionalViewer(r, h.users), *post) {
		httputil.WriteNotFound(w, "Post not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, "DeletePost", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /posts/{id}/save
func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	updated, err := h.posts.SavePost(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "SavePost", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// Unsave handles DELETE /posts/{id}/save
func (h *PostHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	updated, err := h.posts.UnsavePost(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "UnsavePost", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}
