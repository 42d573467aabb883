package echoportal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/masomo-portal/apps/portal/echo"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/services/authapi"
	"github.com/trezcool/masomo-portal/services/credstore"
	"github.com/trezcool/masomo-portal/tests"
)

type portal struct {
	Server
	auth  *testutil.AuthServer
	mgr   *session.Manager
	store *credstore.Memory
}

// setup starts a portal in front of auth. A non-zero usr is logged in through a bootstrapped token.
func setup(t *testing.T, auth *testutil.AuthServer, usr user.User) *portal {
	var store *credstore.Memory
	if usr.IsZero() {
		store = credstore.NewMemory()
	} else {
		store = credstore.NewMemory(auth.Token(usr))
	}
	p := newPortal(t, auth, store, 100*time.Millisecond)
	if s := p.mgr.Bootstrap(context.Background()); !usr.IsZero() && !s.IsAuthenticated() {
		t.Fatalf("setup(): bootstrap ended %v", s.Status)
	}
	return p
}

func newPortal(t *testing.T, auth *testutil.AuthServer, store *credstore.Memory, pendingWait time.Duration) *portal {
	logger := testutil.NewLogger(t)
	mgr := session.NewManager(session.Deps{
		Store:  store,
		Auth:   authapi.NewClient(auth.URL, nil),
		Logger: logger,
	})

	conf := &core.Config{Env: "TEST", TestMode: true}
	conf.API.BaseURL = auth.URL
	conf.Portal.PendingWait = pendingWait

	return &portal{
		Server: NewServer(ServerDeps{Conf: conf, Logger: logger, Manager: mgr}),
		auth:   auth,
		mgr:    mgr,
		store:  store,
	}
}

func (p *portal) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	p.ServeHTTP(rec, req)
	return rec
}

const localAddr = "127.0.0.1:52000"

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.RemoteAddr = localAddr
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.Equal(t, j2, j1), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantLocation string) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if loc := rec.Header().Get("Location"); loc != wantLocation {
		t.Errorf("failed! location = %q; wantLocation %q", loc, wantLocation)
	}
}
