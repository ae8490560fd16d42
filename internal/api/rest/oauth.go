package rest

import (
	"net/http"

	"github.com/WOOWTECH/paas-operator/internal/oauth"
)

// writeRFCError writes an RFC 6749 §5.2 error body with its status code.
func writeRFCError(w http.ResponseWriter, e *oauth.RFCError) {
	if e.Code == oauth.ErrInvalidClient && e.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="paas-operator"`)
	}
	respondJSON(w, e.Status, e)
}

// clientCredentials extracts client_id/client_secret from HTTP Basic auth
// or, failing that, from the form body.
func clientCredentials(r *http.Request) (string, string) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret
	}
	return r.PostFormValue("client_id"), r.PostFormValue("client_secret")
}

// AuthorizeGet handles GET /oauth2/authorize: the entry point of the
// authorization-code flow. Validates the request and returns the consent
// payload the platform frontend renders for the signed-in user.
func (h *Handler) AuthorizeGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	client, scope, rfcerr := h.oauth.ValidateAuthorize(r.Context(),
		q.Get("response_type"), q.Get("client_id"), q.Get("redirect_uri"), q.Get("scope"))
	if rfcerr != nil {
		writeRFCError(w, rfcerr)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"client_id":             client.ClientID,
		"client_name":           client.Name,
		"redirect_uri":          q.Get("redirect_uri"),
		"scope":                 scope,
		"state":                 q.Get("state"),
		"code_challenge":        q.Get("code_challenge"),
		"code_challenge_method": q.Get("code_challenge_method"),
	})
}

// AuthorizePost handles POST /oauth2/authorize: the consent decision sent
// by the platform frontend on behalf of the authenticated user. Approval
// issues a single-use code; denial redirects with error=access_denied.
func (h *Handler) AuthorizePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	redirectURI := r.PostFormValue("redirect_uri")
	state := r.PostFormValue("state")

	client, scope, rfcerr := h.oauth.ValidateAuthorize(r.Context(),
		"code", r.PostFormValue("client_id"), redirectURI, r.PostFormValue("scope"))
	if rfcerr != nil {
		writeRFCError(w, rfcerr)
		return
	}

	if r.PostFormValue("approve") != "true" {
		respondJSON(w, http.StatusOK, map[string]string{"redirect_to": oauth.Deny(redirectURI, state)})
		return
	}

	userID := r.PostFormValue("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required for approval")
		return
	}
	redirectTo, err := h.oauth.Approve(r.Context(), client, userID, redirectURI, scope,
		r.PostFormValue("code_challenge"), r.PostFormValue("code_challenge_method"), state)
	if err != nil {
		if rfcerr, ok := err.(*oauth.RFCError); ok {
			writeRFCError(w, rfcerr)
			return
		}
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"redirect_to": redirectTo})
}

// TokenEndpoint handles POST /oauth2/token.
func (h *Handler) TokenEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeRFCError(w, &oauth.RFCError{
			Code: oauth.ErrInvalidRequest, Description: "malformed form body", Status: http.StatusBadRequest,
		})
		return
	}
	clientID, clientSecret := clientCredentials(r)
	resp, rfcerr := h.oauth.Token(r.Context(), oauth.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
		Scope:        r.PostFormValue("scope"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if rfcerr != nil {
		writeRFCError(w, rfcerr)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	respondJSON(w, http.StatusOK, resp)
}

// IntrospectEndpoint handles POST /oauth2/introspect (RFC 7662). Requires
// client authentication; unknown or invalid tokens yield {"active": false}.
func (h *Handler) IntrospectEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeRFCError(w, &oauth.RFCError{
			Code: oauth.ErrInvalidRequest, Description: "malformed form body", Status: http.StatusBadRequest,
		})
		return
	}
	clientID, clientSecret := clientCredentials(r)
	client, rfcerr := h.oauth.AuthenticateClient(r.Context(), clientID, clientSecret)
	if rfcerr != nil {
		writeRFCError(w, rfcerr)
		return
	}
	respondJSON(w, http.StatusOK, h.oauth.Introspect(r.Context(), r.PostFormValue("token"), client))
}

// RevokeEndpoint handles POST /oauth2/revoke (RFC 7009). Always 200 for an
// authenticated client, whether or not the token existed.
func (h *Handler) RevokeEndpoint(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeRFCError(w, &oauth.RFCError{
			Code: oauth.ErrInvalidRequest, Description: "malformed form body", Status: http.StatusBadRequest,
		})
		return
	}
	clientID, clientSecret := clientCredentials(r)
	client, rfcerr := h.oauth.AuthenticateClient(r.Context(), clientID, clientSecret)
	if rfcerr != nil {
		writeRFCError(w, rfcerr)
		return
	}
	h.oauth.Revoke(r.Context(), r.PostFormValue("token"), client)
	w.WriteHeader(http.StatusOK)
}
