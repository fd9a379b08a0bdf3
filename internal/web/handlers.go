package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-blog/blogserver/internal/web/client"
	"github.com/inkwell-blog/blogserver/types"
)

// connectivityMessage is the generic user-visible text for a failed
// backend call. The underlying error goes to the log, not the page.
const connectivityMessage = "The blog service is currently unavailable. Please try again later."

type pageData struct {
	Username      string
	Notifications template.HTML
	APIError      string
}

func (s *Server) page(r *http.Request) pageData {
	return pageData{
		Username:      s.username(r.Context()),
		Notifications: s.renderNotifications(r.Context()),
	}
}

func (s *Server) render(w http.ResponseWriter, t *template.Template, data any) {
	if err := t.Execute(w, data); err != nil {
		s.logger.Error("failed to render template", "error", err)
	}
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// handleAuthFailure clears the stored credential after the backend
// rejected it and sends the browser back to the login page.
func (s *Server) handleAuthFailure(w http.ResponseWriter, r *http.Request) {
	s.clearCredentials(r.Context())
	s.Danger(r.Context(), "Your session has expired. Please log in again.")
	s.redirect(w, r, "/login/")
}

// requireLogin redirects anonymous sessions to the login page.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.loggedIn(r.Context()) {
			s.Danger(r.Context(), "Please log in first.")
			s.redirect(w, r, "/login/")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type homeData struct {
	pageData
	Posts []types.PostSummary
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	data := homeData{pageData: s.page(r)}

	posts, err := s.api.RecentPosts(r.Context())
	if err != nil {
		s.logger.Error("failed to fetch recent posts", "error", err)
		data.APIError = connectivityMessage
	} else {
		data.Posts = posts
	}

	s.render(w, homeTmpl, data)
}

type postsData struct {
	pageData
	Posts  []types.PostSummary
	Search string
}

func (s *Server) allPosts(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	data := postsData{pageData: s.page(r), Search: search}

	posts, err := s.api.ListPosts(r.Context(), search)
	if err != nil {
		s.logger.Error("failed to fetch posts", "error", err)
		data.APIError = connectivityMessage
	} else {
		data.Posts = posts
	}

	s.render(w, postsTmpl, data)
}

type postDetailData struct {
	pageData
	Post     types.Post
	ImageURL string
	Owned    bool
}

type errorData struct {
	pageData
	Message string
}

func (s *Server) postDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		s.render(w, errorTmpl, errorData{pageData: s.page(r), Message: "Post not found."})
		return
	}

	post, err := s.api.GetPost(r.Context(), id)
	if err != nil {
		s.renderPostError(w, r, err)
		return
	}

	data := postDetailData{
		pageData: s.page(r),
		Post:     post,
		Owned:    post.Author.Username != "" && post.Author.Username == s.username(r.Context()),
	}
	if post.FeaturedImage != "" {
		data.ImageURL = s.apiBaseURL + "/api/media/" + post.FeaturedImage
	}

	s.render(w, postDetailTmpl, data)
}

type loginData struct {
	pageData
	FormUsername string
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var username string

	if r.Method == http.MethodPost {
		username = strings.TrimSpace(r.PostFormValue("username"))
		password := r.PostFormValue("password")

		pair, err := s.api.Token(r.Context(), username, password)
		switch {
		case err == nil:
			s.storeCredentials(r.Context(), pair, username)
			s.Success(r.Context(), "Welcome back, %s.", username)
			s.redirect(w, r, "/")
			return
		case errors.Is(err, client.ErrUnauthenticated):
			s.Danger(r.Context(), "Wrong username or password.")
		case errors.Is(err, client.ErrConnectivity):
			s.logger.Error("login failed", "error", err)
			s.Danger(r.Context(), connectivityMessage)
		default:
			s.logger.Error("login failed", "error", err)
			s.Danger(r.Context(), "Login failed. Please try again.")
		}
		// keep POST data for the username field
	}

	s.render(w, loginTmpl, loginData{pageData: s.page(r), FormUsername: username})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.clearCredentials(r.Context())
	s.Success(r.Context(), "Goodbye.")
	s.redirect(w, r, "/login/")
}

type registerData struct {
	pageData
	Form client.RegisterInput
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var form client.RegisterInput

	if r.Method == http.MethodPost {
		form = client.RegisterInput{
			Username:  strings.TrimSpace(r.PostFormValue("username")),
			Email:     strings.TrimSpace(r.PostFormValue("email")),
			Password:  r.PostFormValue("password"),
			FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
			LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		}

		_, err := s.api.Register(r.Context(), form)
		if err == nil {
			s.Success(r.Context(), "Account created. You can log in now.")
			s.redirect(w, r, "/login/")
			return
		}
		s.flashAPIError(r, err, "Registration failed. Please try again.")
	}

	s.render(w, registerTmpl, registerData{pageData: s.page(r), Form: form})
}

type postFormData struct {
	pageData
	Heading string
	Title   string
	Content string
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var title, content string

	if r.Method == http.MethodPost {
		title = strings.TrimSpace(r.PostFormValue("title"))
		content = r.PostFormValue("content")

		post, err := s.api.CreatePost(r.Context(), s.accessToken(r.Context()), title, content)
		if err == nil {
			s.Success(r.Context(), "Post created.")
			s.redirect(w, r, fmt.Sprintf("/posts/%d/", post.ID))
			return
		}
		if errors.Is(err, client.ErrUnauthenticated) {
			s.handleAuthFailure(w, r)
			return
		}
		s.flashAPIError(r, err, "Could not create the post.")
	}

	s.render(w, postFormTmpl, postFormData{
		pageData: s.page(r),
		Heading:  "New Post",
		Title:    title,
		Content:  content,
	})
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		s.render(w, errorTmpl, errorData{pageData: s.page(r), Message: "Post not found."})
		return
	}

	post, err := s.api.GetPost(r.Context(), id)
	if err != nil {
		s.renderPostError(w, r, err)
		return
	}

	title, content := post.Title, post.Content

	if r.Method == http.MethodPost {
		title = strings.TrimSpace(r.PostFormValue("title"))
		content = r.PostFormValue("content")

		_, err := s.api.UpdatePost(r.Context(), s.accessToken(r.Context()), id, title, content)
		if err == nil {
			s.Success(r.Context(), "Post updated.")
			s.redirect(w, r, fmt.Sprintf("/posts/%d/", id))
			return
		}
		if errors.Is(err, client.ErrUnauthenticated) {
			s.handleAuthFailure(w, r)
			return
		}
		s.flashAPIError(r, err, "Could not update the post.")
	}

	s.render(w, postFormTmpl, postFormData{
		pageData: s.page(r),
		Heading:  "Edit Post",
		Title:    title,
		Content:  content,
	})
}

type deleteData struct {
	pageData
	Post types.Post
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		s.render(w, errorTmpl, errorData{pageData: s.page(r), Message: "Post not found."})
		return
	}

	post, err := s.api.GetPost(r.Context(), id)
	if err != nil {
		s.renderPostError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		err := s.api.DeletePost(r.Context(), s.accessToken(r.Context()), id)
		if err == nil {
			s.Success(r.Context(), "Post deleted.")
			s.redirect(w, r, "/posts/")
			return
		}
		if errors.Is(err, client.ErrUnauthenticated) {
			s.handleAuthFailure(w, r)
			return
		}
		s.flashAPIError(r, err, "Could not delete the post.")
		s.redirect(w, r, fmt.Sprintf("/posts/%d/", id))
		return
	}

	s.render(w, deleteTmpl, deleteData{pageData: s.page(r), Post: post})
}

type profileData struct {
	pageData
	Profile types.Author
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	token := s.accessToken(r.Context())

	if r.Method == http.MethodPost {
		email := strings.TrimSpace(r.PostFormValue("email"))
		firstName := strings.TrimSpace(r.PostFormValue("first_name"))
		lastName := strings.TrimSpace(r.PostFormValue("last_name"))

		_, err := s.api.UpdateProfile(r.Context(), token, client.ProfileUpdateInput{
			Email:     &email,
			FirstName: &firstName,
			LastName:  &lastName,
		})
		if err == nil {
			s.Success(r.Context(), "Profile updated.")
			s.redirect(w, r, "/profile/")
			return
		}
		if errors.Is(err, client.ErrUnauthenticated) {
			s.handleAuthFailure(w, r)
			return
		}
		s.flashAPIError(r, err, "Could not update the profile.")
	}

	user, err := s.api.Profile(r.Context(), token)
	if err != nil {
		if errors.Is(err, client.ErrUnauthenticated) {
			s.handleAuthFailure(w, r)
			return
		}
		s.logger.Error("failed to fetch profile", "error", err)
		data := profileData{pageData: s.page(r)}
		data.APIError = connectivityMessage
		s.render(w, profileTmpl, data)
		return
	}

	s.render(w, profileTmpl, profileData{pageData: s.page(r), Profile: user})
}

// renderPostError maps a failed post fetch onto a page: 404 for a
// missing post, a connectivity banner for everything else.
func (s *Server) renderPostError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		w.WriteHeader(http.StatusNotFound)
		s.render(w, errorTmpl, errorData{pageData: s.page(r), Message: "Post not found."})
		return
	}

	s.logger.Error("failed to fetch post", "error", err)
	data := s.page(r)
	data.APIError = connectivityMessage
	s.render(w, errorTmpl, errorData{pageData: data, Message: connectivityMessage})
}

// flashAPIError turns a backend error into flash notifications,
// preferring field-level validation detail when present.
func (s *Server) flashAPIError(r *http.Request, err error, fallback string) {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		if len(apiErr.Fields) > 0 {
			for field, message := range apiErr.Fields {
				s.Danger(r.Context(), "%s: %s", field, message)
			}
			return
		}
		if apiErr.Status == http.StatusForbidden {
			s.Danger(r.Context(), "You do not have permission to do that.")
			return
		}
		s.Danger(r.Context(), "%s", fallback)
	case errors.Is(err, client.ErrConnectivity):
		s.logger.Error("backend call failed", "error", err)
		s.Danger(r.Context(), connectivityMessage)
	default:
		s.logger.Error("backend call failed", "error", err)
		s.Danger(r.Context(), "%s", fallback)
	}
}

func parsePostID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "postID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid post id")
	}
	return id, nil
}
