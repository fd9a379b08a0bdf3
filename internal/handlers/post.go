package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-blog/blogserver/internal/services"
	"github.com/inkwell-blog/blogserver/internal/store"
	"github.com/inkwell-blog/blogserver/types"
)

const (
	maxMultipartMemory = 8 << 20
	maxImageBytes      = 16 << 20
	formFieldImage     = "featured_image"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler constructs a handler with the provided service.
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostRouter registers post routes on the given router. Reads are
// public; every mutation goes through the auth middleware.
func PostRouter(r chi.Router, postService *services.PostService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewPostHandler(postService)

	r.Get("/", handler.ListPosts)
	r.With(authMiddleware).Post("/create/", handler.CreatePost)
	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.GetPost)
		r.With(authMiddleware).Put("/update/", handler.UpdatePost)
		r.With(authMiddleware).Delete("/delete/", handler.DeletePost)
		r.With(authMiddleware).Post("/image/", handler.UploadFeaturedImage)
	})
}

type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ListPosts returns all posts, filtered by the optional ?search= query
// param (case-insensitive substring match on title or content).
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	posts, err := h.postService.List(r.Context(), search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, summaries(posts))
}

// RecentPosts returns the five newest posts, newest-first.
func (h *PostHandler) RecentPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.Recent(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, summaries(posts))
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.postService.Create(r.Context(), userID, services.PostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create post")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.postService.Update(r.Context(), userID, id, services.PostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, err, "failed to update post")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.postService.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err, "failed to delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadFeaturedImage attaches a cover image to the caller's own post.
func (h *PostHandler) UploadFeaturedImage(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	filename, contentType, data, err := parseImageFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.postService.AttachFeaturedImage(r.Context(), userID, id, filename, contentType, data)
	if err != nil {
		writeServiceError(w, err, "failed to store featured image")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func summaries(posts []types.Post) []types.PostSummary {
	items := make([]types.PostSummary, 0, len(posts))
	for _, post := range posts {
		items = append(items, post.Summary())
	}
	return items
}

func parsePostID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "postID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid post id")
	}
	return id, nil
}

func parseImageFile(form *multipart.Form) (filename, contentType string, data []byte, err error) {
	if form == nil {
		return "", "", nil, errors.New("missing form data")
	}

	files := form.File[formFieldImage]
	if len(files) == 0 {
		return "", "", nil, errors.New("featured_image file is required")
	}
	if len(files) > 1 {
		return "", "", nil, errors.New("only one featured_image file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", "", nil, errors.New("failed to read uploaded file")
	}
	data, err = readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return "", "", nil, err
	}

	contentType = fileHeader.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(data)
	}
	return fileHeader.Filename, contentType, data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
