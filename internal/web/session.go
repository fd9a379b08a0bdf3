package web

import (
	"context"
	"encoding/gob"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/inkwell-blog/blogserver/internal/auth"
)

const (
	sessionKeyAccess        = "access_token"
	sessionKeyRefresh       = "refresh_token"
	sessionKeyUsername      = "username"
	sessionKeyNotifications = "notifications"
)

// Notification is a one-shot flash message rendered on the next page.
type Notification struct {
	Message string
	Style   string
}

func init() {
	gob.Register([]Notification{}) // required for storing Notifications in a session
}

func newSessionManager() *scs.SessionManager {
	manager := scs.New()
	manager.Cookie.Path = "/"
	manager.Cookie.Persist = false // don't keep the cookie across browser sessions
	manager.Cookie.SameSite = http.SameSiteLaxMode
	manager.Cookie.Secure = false // running on localhost or behind an http proxy
	manager.IdleTimeout = 12 * time.Hour
	manager.Lifetime = 24 * time.Hour
	return manager
}

// storeCredentials moves the session to the Authenticated state.
func (s *Server) storeCredentials(ctx context.Context, pair auth.TokenPair, username string) {
	s.sessions.Put(ctx, sessionKeyAccess, pair.Access)
	s.sessions.Put(ctx, sessionKeyRefresh, pair.Refresh)
	s.sessions.Put(ctx, sessionKeyUsername, username)
}

// clearCredentials moves the session back to the Anonymous state. It is
// called on logout and whenever the backend rejects the stored credential,
// so a stale token can never wedge the browser in an invalid-session loop.
func (s *Server) clearCredentials(ctx context.Context) {
	s.sessions.Remove(ctx, sessionKeyAccess)
	s.sessions.Remove(ctx, sessionKeyRefresh)
	s.sessions.Remove(ctx, sessionKeyUsername)
}

func (s *Server) accessToken(ctx context.Context) string {
	return s.sessions.GetString(ctx, sessionKeyAccess)
}

func (s *Server) username(ctx context.Context) string {
	return s.sessions.GetString(ctx, sessionKeyUsername)
}

func (s *Server) loggedIn(ctx context.Context) bool {
	return s.accessToken(ctx) != ""
}

// Success adds a "success" notification to the session.
func (s *Server) Success(ctx context.Context, format string, args ...any) {
	s.addNotification(ctx, fmt.Sprintf(format, args...), "success")
}

// Danger adds a "danger" notification to the session.
func (s *Server) Danger(ctx context.Context, format string, args ...any) {
	s.addNotification(ctx, fmt.Sprintf(format, args...), "danger")
}

func (s *Server) addNotification(ctx context.Context, message, style string) {
	notifications, _ := s.sessions.Get(ctx, sessionKeyNotifications).([]Notification)
	notifications = append(notifications, Notification{Message: message, Style: style})
	s.sessions.Put(ctx, sessionKeyNotifications, notifications)
}

// renderNotifications removes all notifications from the session and
// renders them into an HTML fragment.
func (s *Server) renderNotifications(ctx context.Context) template.HTML {
	var out string
	notifications, _ := s.sessions.Pop(ctx, sessionKeyNotifications).([]Notification)
	for _, n := range notifications {
		out += `<div class="alert alert-` + n.Style + `" role="alert">` + template.HTMLEscapeString(n.Message) + `</div>`
	}
	return template.HTML(out)
}
