package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-portal/core/user"
)

const (
	LoginPath   = "/api/auth/login"
	VerifyPath  = "/api/auth/verify"
	CoursesPath = "/api/courses"
)

// Claims mirror the masomo API JWT claims.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type account struct {
	usr          user.User
	passwordHash []byte
}

// AuthServer is a fake masomo auth server issuing HS256 JWTs.
type AuthServer struct {
	*httptest.Server

	t         *testing.T
	secretKey []byte

	mutex    sync.Mutex
	accounts map[string]account // by email
	revoked  map[string]bool
	holds    map[string]*hold // by path

	loginCalls  int32
	verifyCalls int32
}

type hold struct {
	started chan struct{}
	release chan struct{}
}

func NewAuthServer(t *testing.T) *AuthServer {
	srv := &AuthServer{
		t:         t,
		secretKey: []byte("secret"),
		accounts:  make(map[string]account),
		revoked:   make(map[string]bool),
		holds:     make(map[string]*hold),
	}

	app := echo.New()
	app.HideBanner = true
	app.HTTPErrorHandler = func(err error, ctx echo.Context) {
		code, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		_ = ctx.JSON(code, echo.Map{"error": msg})
	}

	jwtAuth := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    srv.secretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	})

	app.POST(LoginPath, srv.login)
	app.GET(VerifyPath, srv.verify, jwtAuth)
	app.GET(CoursesPath, srv.courses, jwtAuth)

	srv.Server = httptest.NewServer(app)
	t.Cleanup(srv.Close)
	return srv
}

// AddUser registers usr with the given password.
func (srv *AuthServer) AddUser(usr user.User, pwd string) user.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
	if err != nil {
		srv.t.Fatalf("AddUser() failed: %v", err)
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	srv.accounts[usr.Email] = account{usr: usr, passwordHash: hash}
	return usr
}

// Token issues a valid token for usr, as a successful login would.
func (srv *AuthServer) Token(usr user.User) string {
	token, err := srv.generateToken(usr, time.Hour)
	if err != nil {
		srv.t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// ExpiredToken issues a token for usr that expired a minute ago.
func (srv *AuthServer) ExpiredToken(usr user.User) string {
	token, err := srv.generateToken(usr, -time.Minute)
	if err != nil {
		srv.t.Fatalf("ExpiredToken() failed: %v", err)
	}
	return token
}

// Revoke makes verify reject token.
func (srv *AuthServer) Revoke(token string) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	srv.revoked[token] = true
}

// Hold blocks requests to path until release is called; started receives one value per held request.
func (srv *AuthServer) Hold(path string) (started <-chan struct{}, release func()) {
	h := &hold{started: make(chan struct{}, 16), release: make(chan struct{})}
	srv.mutex.Lock()
	srv.holds[path] = h
	srv.mutex.Unlock()

	var once sync.Once
	return h.started, func() {
		once.Do(func() {
			srv.mutex.Lock()
			delete(srv.holds, path)
			srv.mutex.Unlock()
			close(h.release)
		})
	}
}

func (srv *AuthServer) LoginCalls() int {
	return int(atomic.LoadInt32(&srv.loginCalls))
}

func (srv *AuthServer) VerifyCalls() int {
	return int(atomic.LoadInt32(&srv.verifyCalls))
}

func (srv *AuthServer) wait(path string) {
	srv.mutex.Lock()
	h := srv.holds[path]
	srv.mutex.Unlock()
	if h != nil {
		h.started <- struct{}{}
		<-h.release
	}
}

func (srv *AuthServer) generateToken(usr user.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    "Masomo",
			Subject:   usr.ID,
			Audience:  "Academia",
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: usr.Email,
		Role:  usr.Role.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(srv.secretKey)
}

func (srv *AuthServer) login(ctx echo.Context) error {
	atomic.AddInt32(&srv.loginCalls, 1)
	srv.wait(LoginPath)

	var data struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	}

	srv.mutex.Lock()
	acc, ok := srv.accounts[data.Email]
	srv.mutex.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(data.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
	}

	token, err := srv.generateToken(acc.usr, time.Hour)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token, "user": acc.usr})
}

func (srv *AuthServer) contextUser(ctx echo.Context) (user.User, error) {
	token, ok := ctx.Get("userToken").(*jwt.Token)
	if !ok {
		return user.User{}, echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return user.User{}, echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	}

	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	if srv.revoked[token.Raw] {
		return user.User{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	}
	for _, acc := range srv.accounts {
		if acc.usr.ID == claims.Subject {
			return acc.usr, nil
		}
	}
	return user.User{}, echo.NewHTTPError(http.StatusUnauthorized, "user not found")
}

func (srv *AuthServer) verify(ctx echo.Context) error {
	atomic.AddInt32(&srv.verifyCalls, 1)
	srv.wait(VerifyPath)

	usr, err := srv.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": usr})
}

// courses stands for any backend resource a dashboard screen fetches.
func (srv *AuthServer) courses(ctx echo.Context) error {
	usr, err := srv.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"owner": usr.ID, "courses": []string{"Maths", "Physics"}})
}
