package render

import (
	"net/http"

	transferstate "github.com/transfer-state/transfer-state"
	"github.com/transfer-state/transfer-state/client"
	"github.com/transfer-state/transfer-state/session"
)

// Pass is the scope of one render pass. Everything in it is owned by the
// current request: the state, the fetch client and the credential it forwards
// are created for this pass and discarded with it.
type Pass struct {
	// Client is the pass-scoped cached fetch client. Fetches made through it
	// end up in the embedded state snapshot.
	Client *client.Client
	// State is the transfer state that will be embedded into the document.
	State *transferstate.Cache
	// Locale the document is rendered for.
	Locale Locale
	// BaseHref the renderer should prefix links with.
	BaseHref string
	// Session resolved from the incoming session cookie, or nil when no
	// session store is configured or the visitor is signed out.
	Session *session.Session
	// Request is the incoming document request.
	Request *http.Request
}

// requestCredential is the pass-scoped ambient credential: the raw Cookie
// header of the incoming request, captured at pass start. It never outlives
// the pass and is never shared across concurrent requests.
type requestCredential string

func (c requestCredential) Credential() (string, bool) {
	return string(c), c != ""
}

func credentialFromRequest(r *http.Request) client.CredentialSource {
	return requestCredential(r.Header.Get("Cookie"))
}
