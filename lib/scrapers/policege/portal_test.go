package policege

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	_ "embed"
)

//go:embed testdata/login.html
var loginPage string

//go:embed testdata/login_rejected.html
var loginRejectedPage string

//go:embed testdata/protocols.html
var protocolsPage string

//go:embed testdata/protocol_media.html
var protocolMediaPage string

//go:embed testdata/protocol_media_onclick.html
var protocolMediaOnclickPage string

//go:embed testdata/protocol_media_unknown.html
var protocolMediaUnknownPage string

var captchaImage = []byte("\x89PNG\r\n\x1a\ncaptcha")

const (
	testDocumentNumber = "AB1234567"
	testVehicleNumber  = "AA-123-BB"
	testCaptchaAnswer  = "x7k2p"
	testCdn            = "https://cdn.example.test"
)

// fakePortal imitates the parts of the portal the scraper touches, sessions
// only become authenticated after a correct login submission.
type fakePortal struct {
	server *httptest.Server
	// served on / and /index.php
	login string

	mu            sync.Mutex
	sessions      int
	authenticated map[string]bool
	// detail pages by protocol id
	details map[string]string
	// media paths that respond with 404
	missing map[string]bool
	fetched []string

	loginPages atomic.Int64
	submits    atomic.Int64
	listings   atomic.Int64
}

func newFakePortal(t testing.TB) *fakePortal {
	p := &fakePortal{
		login:         loginPage,
		authenticated: map[string]bool{},
		details: map[string]string{
			"GA1234567": protocolMediaPage,
			"GB0000042": protocolMediaOnclickPage,
		},
		missing: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", p.handleRoot)
	mux.HandleFunc("/captcha.php", p.handleCaptcha)
	mux.HandleFunc("/submit-index.php", p.handleSubmit)
	mux.HandleFunc("/protocols.php", p.requireSession(p.handleListing))
	mux.HandleFunc("/protocol.php", p.requireSession(p.handleDetail))
	mux.HandleFunc("/photos/", p.requireSession(p.handleMedia))

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePortal) URL() string {
	return p.server.URL
}

// authenticatedSession registers a session the portal already accepts.
func (p *fakePortal) authenticatedSession() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions++
	id := fmt.Sprintf("preexisting-%d", p.sessions)
	p.authenticated[id] = true
	return id
}

func (p *fakePortal) isAuthenticated(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.authenticated[id]
}

func (p *fakePortal) fetchedMedia() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.fetched...)
}

func sessionOf(r *http.Request) string {
	cookie, err := r.Cookie("PHPSESSID")
	if err != nil {
		return ""
	}
	return cookie.Value
}

func writeHtml(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(page))
}

func (p *fakePortal) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !p.isAuthenticated(sessionOf(r)) {
			http.Redirect(w, r, "/index.php?lang=ge", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (p *fakePortal) handleRoot(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/" || r.URL.Path == "/index.php":
		p.handleLogin(w, r)
	case strings.HasPrefix(r.URL.Path, "/oggvideo-"):
		p.requireSession(p.handleMedia)(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	p.loginPages.Add(1)
	if sessionOf(r) == "" {
		p.mu.Lock()
		p.sessions++
		id := fmt.Sprintf("session-%d", p.sessions)
		p.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: id, Path: "/"})
	}
	writeHtml(w, p.login)
}

func (p *fakePortal) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Write(captchaImage)
}

func (p *fakePortal) handleSubmit(w http.ResponseWriter, r *http.Request) {
	p.submits.Add(1)
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session := sessionOf(r)
	valid := session != "" &&
		r.PostForm.Get("csrf_token") == "csrf-7f3a91" &&
		r.PostForm.Get("documentNo") == testDocumentNumber &&
		r.PostForm.Get("vehicleNo2") == testVehicleNumber &&
		r.PostForm.Get("captcha_code") == testCaptchaAnswer &&
		r.Header.Get("Origin") == p.server.URL
	if !valid {
		writeHtml(w, loginRejectedPage)
		return
	}

	p.mu.Lock()
	p.authenticated[session] = true
	p.mu.Unlock()
	http.Redirect(w, r, "/protocols.php", http.StatusFound)
}

func (p *fakePortal) handleListing(w http.ResponseWriter, r *http.Request) {
	p.listings.Add(1)
	writeHtml(w, protocolsPage)
}

func (p *fakePortal) handleDetail(w http.ResponseWriter, r *http.Request) {
	page, ok := p.details[r.URL.Query().Get("id")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeHtml(w, strings.ReplaceAll(page, testCdn, p.server.URL))
}

func (p *fakePortal) handleMedia(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.fetched = append(p.fetched, r.URL.Path)
	missing := p.missing[r.URL.Path]
	p.mu.Unlock()

	if missing {
		http.NotFound(w, r)
		return
	}
	w.Write(mediaBlob(r.URL.Path))
}

func mediaBlob(path string) []byte {
	return []byte("blob:" + path)
}
