package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

const (
	loginPath  = "/api/auth/login"
	verifyPath = "/api/auth/verify"

	maxBodySize = 1 << 20
)

var _ session.Authenticator = (*Client)(nil)

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	VerifyResponse struct {
		User user.User `json:"user"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}

	apiRequest struct {
		method      string
		path        string
		bearerToken string
		reqBodyObj  interface{}
		respObj     interface{}
		// statuses meaning the credentials were rejected
		rejectedCodes []int
		rejectedKind  session.Kind
	}
)

// Client calls the masomo auth server. Every failure it returns is a *session.Error.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for the auth server at baseURL; httpClient defaults to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login exchanges credentials for a bearer token and the user record.
// 401 (and 400, which the masomo API answers to failed authentications) are invalid credentials.
func (c *Client) Login(ctx context.Context, email, password string) (string, user.User, error) {
	var resp LoginResponse
	err := c.executeAPIRequest(ctx, apiRequest{
		method:        http.MethodPost,
		path:          loginPath,
		reqBodyObj:    LoginRequest{Email: email, Password: password},
		respObj:       &resp,
		rejectedCodes: []int{http.StatusUnauthorized, http.StatusBadRequest},
		rejectedKind:  session.KindInvalidCredentials,
	})
	if err != nil {
		return "", user.User{}, err
	}
	return resp.Token, resp.User, nil
}

// Verify resolves the user a bearer token belongs to.
func (c *Client) Verify(ctx context.Context, token string) (user.User, error) {
	var resp VerifyResponse
	err := c.executeAPIRequest(ctx, apiRequest{
		method:        http.MethodGet,
		path:          verifyPath,
		bearerToken:   token,
		respObj:       &resp,
		rejectedCodes: []int{http.StatusUnauthorized, http.StatusForbidden},
		rejectedKind:  session.KindTokenInvalidOrExpired,
	})
	if err != nil {
		return user.User{}, err
	}
	return resp.User, nil
}

func (c *Client) executeAPIRequest(ctx context.Context, apiReq apiRequest) error {
	var reqBodyReader io.Reader
	if apiReq.reqBodyObj != nil {
		reqBodyBytes, err := json.Marshal(apiReq.reqBodyObj)
		if err != nil {
			return session.NewError(session.KindUnexpectedResponse, 0, errors.Wrap(err, "error marshaling request body"))
		}
		reqBodyReader = bytes.NewReader(reqBodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, apiReq.method, c.baseURL+apiReq.path, reqBodyReader)
	if err != nil {
		return session.NewError(
			session.KindUnexpectedResponse, 0,
			errors.Wrapf(err, "error creating request %s %s", apiReq.method, apiReq.path),
		)
	}
	req.Header.Set("Accept", "application/json")
	if reqBodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiReq.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+apiReq.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.NewError(session.KindNetworkFailure, 0, errors.Wrap(err, "error invoking auth API"))
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return session.NewError(session.KindNetworkFailure, resp.StatusCode, errors.Wrap(err, "error reading response body"))
	}

	if resp.StatusCode != http.StatusOK {
		kind := session.KindUnexpectedResponse
		for _, code := range apiReq.rejectedCodes {
			if resp.StatusCode == code {
				kind = apiReq.rejectedKind
				break
			}
		}
		return session.NewError(kind, resp.StatusCode, responseError(resp.StatusCode, bodyBytes))
	}

	if err = json.Unmarshal(bodyBytes, apiReq.respObj); err != nil {
		return session.NewError(session.KindUnexpectedResponse, resp.StatusCode, errors.Wrap(err, "error unmarshaling response body"))
	}
	return nil
}

// responseError extracts the API error message ({"error": "..."}) if any.
func responseError(code int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errors.New(errResp.Error)
	}
	return errors.Errorf("received %d from auth API", code)
}
