package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/embedportal/astratoui/app"
	"github.com/embedportal/astratoui/environment"
	"github.com/embedportal/astratoui/gateway/astrato"
)

// stubProvider fakes the two Astrato endpoints and counts every call so tests
// can assert that validation failures never reach the provider.
type stubProvider struct {
	mu           sync.Mutex
	tokenCalls   int
	setupCalls   int
	tokenStatus  int
	setupStatus  int
	accessToken  string
	ticket       string
	lastSetupRaw []byte

	server *httptest.Server
}

func newStubProvider(t *testing.T) *stubProvider {
	p := &stubProvider{
		tokenStatus: 200,
		setupStatus: 200,
		accessToken: "T",
		ticket:      "K",
	}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()

		switch r.URL.Path {
		case "/auth/proxy/m2m/token":
			p.tokenCalls++
			if p.tokenStatus != 200 {
				w.WriteHeader(p.tokenStatus)
				w.Write([]byte(`{"message": "token endpoint unavailable"}`))
				return
			}
			w.Write([]byte(`{"access_token": "` + p.accessToken + `"}`))
		case "/oem/setup":
			p.setupCalls++
			p.lastSetupRaw, _ = io.ReadAll(r.Body)
			if p.setupStatus != 200 {
				w.WriteHeader(p.setupStatus)
				w.Write([]byte(`{"message": "setup failed"}`))
				return
			}
			w.Write([]byte(`{"ticket": "` + p.ticket + `"}`))
		default:
			w.WriteHeader(404)
		}
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *stubProvider) baseUrl() string {
	return p.server.URL + "/"
}

func (p *stubProvider) calls() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls, p.setupCalls
}

func (p *stubProvider) failTokenWith(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStatus = status
}

func (p *stubProvider) lastSetup(t *testing.T) map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	var setup map[string]interface{}
	if err := json.Unmarshal(p.lastSetupRaw, &setup); err != nil {
		t.Fatalf("bad setup body %q: %v", p.lastSetupRaw, err)
	}
	return setup
}

func newTestEnv(defaults astrato.Config) *environment.State {
	return &environment.State{
		Defaults: defaults,
		Client:   http.DefaultClient,
	}
}

func newTestRouter(env *environment.State) *gin.Engine {
	return newTestRouterWithStore(env, cookie.NewStore([]byte("test-secret")))
}

// newTestRouterWithStore mirrors the wiring in main.go minus the csrf
// adapter, which would reject the raw form posts the tests send.
func newTestRouterWithStore(env *environment.State, store sessions.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := gin.New()
	r.Use(app.RequestId())
	r.Use(app.RequestLogger(logger))
	r.Use(sessions.Sessions("astratoui", store))
	r.LoadHTMLGlob("../views/*")

	routes := map[string]environment.Route{
		"/":                 {URL: "/", LogId: "astratoui://"},
		"/login":            {URL: "/login", LogId: "astratoui://login"},
		"/logout":           {URL: "/logout", LogId: "astratoui://logout"},
		"/external-relogin": {URL: "/external-relogin", LogId: "astratoui://external-relogin"},
	}

	r.GET(routes["/"].URL, ShowDashboard(env, routes["/"]))
	r.GET(routes["/login"].URL, ShowLogin(env, routes["/login"]))
	r.POST(routes["/login"].URL, SubmitLogin(env, routes["/login"]))
	r.GET(routes["/logout"].URL, Logout(env, routes["/logout"]))
	r.POST(routes["/external-relogin"].URL, SubmitRelogin(env, routes["/external-relogin"]))

	return r
}

// browser is a minimal cookie jar around the test router so a test can walk
// the login → home → relogin flow the way a real browser would.
type browser struct {
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newBrowser(router *gin.Engine) *browser {
	return &browser{router: router, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(request *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		request.AddCookie(c)
	}

	recorder := httptest.NewRecorder()
	b.router.ServeHTTP(recorder, request)

	for _, c := range recorder.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return recorder
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	request := httptest.NewRequest("GET", path, nil)
	return b.do(request)
}

func (b *browser) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	request := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(request)
}

func (b *browser) post(path string) *httptest.ResponseRecorder {
	request := httptest.NewRequest("POST", path, nil)
	return b.do(request)
}
