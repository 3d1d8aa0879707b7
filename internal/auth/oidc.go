package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	oidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDC drives the operator authorization-code+PKCE login flow. Login only
// establishes identity; the exact owner-email-list check is applied
// per-request in middleware.go against every /api route, not at login
// time.
type OIDC struct {
	Provider         *oidc.Provider
	OAuth2Config     *oauth2.Config
	Verifier         *oidc.IDTokenVerifier
	Store            *Store
	CookieName       string
	StateTTL         time.Duration
	TempCookieSecure bool
	Issuer           string
}

type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func NewOIDC(ctx context.Context, issuer, clientID, clientSecret, redirectURL string, store *Store, cookieName string, stateTTLSeconds int, tempCookieSecure bool) (*OIDC, error) {
	prov, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     prov.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	v := prov.Verifier(&oidc.Config{ClientID: clientID})
	if cookieName == "" {
		cookieName = "retentionloop_session"
	}
	ttl := time.Duration(stateTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OIDC{Provider: prov, OAuth2Config: conf, Verifier: v, Store: store, CookieName: cookieName, StateTTL: ttl, TempCookieSecure: tempCookieSecure, Issuer: issuer}, nil
}

// LoginHandler begins the OIDC authorization code flow with PKCE.
func (o *OIDC) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, _ := randToken(16)
		cv, _ := randToken(32)
		cChallenge := pkceChallenge(cv)
		https := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
		secure := o.TempCookieSecure && https
		setTempCookie(w, "oidc_state", state, o.StateTTL, secure)
		setTempCookie(w, "oidc_code_verifier", cv, o.StateTTL, secure)
		authURL := o.OAuth2Config.AuthCodeURL(state, oauth2.SetAuthURLParam("code_challenge", cChallenge), oauth2.SetAuthURLParam("code_challenge_method", "S256"))
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// CallbackHandler completes the OIDC authorization, upserts the operator,
// and creates a session. It does not check the owner list: login succeeds
// for any verified identity, and the owner-list+dev-password gate applies
// per-request to every /api route.
func (o *OIDC) CallbackHandler(cookieSecure bool, cookieDomain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := r.URL.Query().Get("state")
		cc := r.URL.Query().Get("code")
		if st == "" || cc == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		sc, err := r.Cookie("oidc_state")
		if err != nil || sc.Value != st {
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		}
		cvc, err := r.Cookie("oidc_code_verifier")
		if err != nil || cvc.Value == "" {
			http.Error(w, "missing code verifier", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		tok, err := o.OAuth2Config.Exchange(ctx, cc, oauth2.SetAuthURLParam("code_verifier", cvc.Value))
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadRequest)
			return
		}
		rawID, ok := tok.Extra("id_token").(string)
		if !ok {
			http.Error(w, "missing id_token", http.StatusBadRequest)
			return
		}
		idt, err := o.Verifier.Verify(ctx, rawID)
		if err != nil {
			http.Error(w, "verify failed", http.StatusUnauthorized)
			return
		}
		var c Claims
		if err := idt.Claims(&c); err != nil {
			http.Error(w, "claims decode", http.StatusBadRequest)
			return
		}
		if c.Email == "" {
			http.Error(w, "email required", http.StatusForbidden)
			return
		}
		u := &User{Email: c.Email, Name: c.Name, Picture: c.Picture, Subject: idt.Subject}
		u, err = o.Store.UpsertUser(ctx, u)
		if err != nil {
			http.Error(w, "user upsert", http.StatusInternalServerError)
			return
		}
		sess, err := o.Store.CreateSession(ctx, u.ID)
		if err != nil {
			http.Error(w, "session create", http.StatusInternalServerError)
			return
		}
		cookie := &http.Cookie{
			Name:     o.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   cookieSecure,
			SameSite: http.SameSiteLaxMode,
		}
		if cookieDomain != "" {
			cookie.Domain = cookieDomain
		}
		http.SetCookie(w, cookie)
		_ = o.Store.SetSessionIDToken(ctx, sess.ID, rawID)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// LogoutHandler deletes the session, clears the cookie, and performs
// RP-initiated logout against the provider.
func (o *OIDC) LogoutHandler(cookieSecure bool, cookieDomain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var idToken string
		c, err := r.Cookie(o.CookieName)
		if err == nil && c != nil && c.Value != "" {
			if sess, _, err := o.Store.GetSession(r.Context(), c.Value); err == nil && sess != nil {
				idToken = sess.IDToken
			}
			_ = o.Store.DeleteSession(r.Context(), c.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     o.CookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cookieSecure,
			SameSite: http.SameSiteLaxMode,
			Domain:   cookieDomain,
		})
		next := r.URL.Query().Get("next")
		if next == "" {
			next = "/auth/login"
		}
		absNext := absoluteRedirectURL(r, next, "/auth/login")
		logoutBase := strings.TrimSuffix(o.Issuer, "/") + "/protocol/openid-connect/logout"
		q := url.Values{}
		q.Set("client_id", o.OAuth2Config.ClientID)
		q.Set("post_logout_redirect_uri", absNext)
		if idToken != "" {
			q.Set("id_token_hint", idToken)
		}
		http.Redirect(w, r, logoutBase+"?"+q.Encode(), http.StatusFound)
	}
}

// MeHandler returns basic info about the current operator.
func (o *OIDC) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if u, ok := CurrentUser(r.Context()); ok && u != nil {
			_, _ = w.Write([]byte(`{"email":"` + u.Email + `","name":"` + u.Name + `","picture":"` + u.Picture + `"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}
}
