package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/RaghavVerma19/ride-share-backend/internal/app"
	"github.com/RaghavVerma19/ride-share-backend/internal/store"
	"github.com/RaghavVerma19/ride-share-backend/pkg/auth"
)

type AuthAPI struct {
	DB  *store.Postgres
	JWT *auth.JWT
	Cfg app.Config
}

type registerReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type googleReq struct {
	Credential string `json:"credential"` // Google ID token from the frontend
}
type tokenResp struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         authUserDTO `json:"user"`
}
type authUserDTO struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Register handles user signup and returns a token pair
func (a *AuthAPI) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	// Basic validation
	if req.FullName == "" || len(req.Password) < 8 || !strings.Contains(req.Email, "@") {
		http.Error(w, "invalid name, email or weak password", http.StatusBadRequest)
		return
	}

	u, err := a.DB.CreateUser(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		http.Error(w, "email already in use", http.StatusConflict)
		return
	}

	a.issueTokens(w, r, u)
}

// Login verifies credentials and returns a token pair
func (a *AuthAPI) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	u, err := a.DB.VerifyUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	a.issueTokens(w, r, u)
}

// Google signs a user in from a Google ID token, creating the account
// on first sight. The token is checked against Google's tokeninfo
// endpoint.
func (a *AuthAPI) Google(w http.ResponseWriter, r *http.Request) {
	var req googleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credential == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	info, err := verifyGoogleToken(r.Context(), req.Credential)
	if err != nil {
		http.Error(w, "invalid google credential", http.StatusUnauthorized)
		return
	}

	u, err := a.DB.UpsertGoogleUser(r.Context(), info.Sub, info.Name, info.Email, info.Picture)
	if err != nil {
		http.Error(w, "could not sign in", http.StatusInternalServerError)
		return
	}

	a.issueTokens(w, r, u)
}

// Refresh rotates the token pair using a valid stored refresh token
func (a *AuthAPI) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		// fall back to cookie
		if c, cerr := r.Cookie("refreshToken"); cerr == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		http.Error(w, "no refresh token", http.StatusUnauthorized)
		return
	}

	id, err := a.JWT.Verify(req.RefreshToken)
	if err != nil {
		http.Error(w, "bad refresh token", http.StatusUnauthorized)
		return
	}

	// Refresh must match the one on record (rotation invalidates old ones)
	stored, err := a.DB.GetRefreshToken(r.Context(), id.UserID)
	if err != nil || stored != req.RefreshToken {
		http.Error(w, "refresh token revoked", http.StatusUnauthorized)
		return
	}

	u, err := a.DB.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}
	a.issueTokens(w, r, u)
}

// Logout clears the stored refresh token and cookies
func (a *AuthAPI) Logout(w http.ResponseWriter, r *http.Request) {
	id := auth.User(r.Context())
	if id.UserID != "" {
		_ = a.DB.SaveRefreshToken(r.Context(), id.UserID, "")
	}
	clearCookie(w, "accessToken")
	clearCookie(w, "refreshToken")
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user's profile
func (a *AuthAPI) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.User(r.Context())
	if id.UserID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	u, err := a.DB.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, authUserDTO{ID: u.ID, FullName: u.FullName, Email: u.Email, AvatarURL: u.AvatarURL})
}

// ListUsers returns all users for the people picker
func (a *AuthAPI) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.DB.ListUsers(r.Context(), 200)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]authUserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, authUserDTO{ID: u.ID, FullName: u.FullName, Email: u.Email, AvatarURL: u.AvatarURL})
	}
	writeJSON(w, out)
}

func (a *AuthAPI) issueTokens(w http.ResponseWriter, r *http.Request, u store.User) {
	id := auth.Identity{UserID: u.ID, UserName: u.FullName}
	access, _ := a.JWT.Sign(id, a.Cfg.AccessTTL)
	refresh, _ := a.JWT.Sign(id, a.Cfg.RefreshTTL)
	_ = a.DB.SaveRefreshToken(r.Context(), u.ID, refresh)

	setCookie(w, "accessToken", access, a.Cfg.AccessTTL)
	setCookie(w, "refreshToken", refresh, a.Cfg.RefreshTTL)
	writeJSON(w, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         authUserDTO{ID: u.ID, FullName: u.FullName, Email: u.Email, AvatarURL: u.AvatarURL},
	})
}

func setCookie(w http.ResponseWriter, name, val string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name: name, Value: val, Path: "/",
		MaxAge: int(ttl.Seconds()), HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
