package authstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// API routes relative to the base URL.
const (
	routeLogin        = "/auth/login"
	routeUpdateUser   = "/users/me"
	routeUpdateStatus = "/tasks/status"
)

// LoginRequest is the credential payload sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the payload before it goes on the wire.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

// UpdateUserRequest is the profile payload; the service answers with a
// re-issued token reflecting the new claims.
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks the payload before it goes on the wire.
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// UpdateStatusRequest moves a task through its workflow.
type UpdateStatusRequest struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Remark string `json:"remark,omitempty"`
}

// Validate checks the payload before it goes on the wire.
func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TaskID, validation.Required),
		validation.Field(&r.Status, validation.Required),
	)
}

// apiResponse is the success envelope the service returns.
type apiResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// ClientOption customizes APIClient construction.
type ClientOption func(*APIClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(a *APIClient) {
		if c != nil {
			a.http = c
		}
	}
}

// WithClientLogger overrides the logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(a *APIClient) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSessionService attaches a session service; tokens received from the
// API are handed to it so both storage adapters pick them up immediately.
func WithSessionService(s *SessionService) ClientOption {
	return func(a *APIClient) {
		a.session = s
	}
}

// APIClient talks to the JSON REST endpoints the app consumes: login, user
// update, status update. Server errors come back as a JSON body with a
// message field; the client surfaces that message, never the raw transport
// error, to keep UI behavior consistent with the rest of the library.
type APIClient struct {
	baseURL string
	http    *http.Client
	logger  Logger
	session *SessionService
}

// NewAPIClient builds a client for the given base URL.
func NewAPIClient(baseURL string, opts ...ClientOption) *APIClient {
	a := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Login exchanges credentials for a token. On success the token is written
// through the attached session service (when present) and returned.
func (a *APIClient) Login(ctx context.Context, payload LoginRequest) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	resp, err := a.post(ctx, routeLogin, "", payload)
	if err != nil {
		a.logger.Error("login request failed: %v", err)
		return "", err
	}

	if resp.Token == "" {
		return "", goerrors.New("login response carried no token", goerrors.CategoryAuth)
	}

	if a.session != nil {
		state := a.session.SetToken(ctx, resp.Token)
		if !state.IsAuthenticated {
			a.logger.Warn("login token failed local validation after store")
		}
	}

	return resp.Token, nil
}

// UpdateUser updates the profile and returns the re-issued token, storing it
// through the session service when one is attached.
func (a *APIClient) UpdateUser(ctx context.Context, token string, payload UpdateUserRequest) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user payload")
	}

	resp, err := a.post(ctx, routeUpdateUser, token, payload)
	if err != nil {
		return "", err
	}

	if resp.Token != "" && a.session != nil {
		a.session.SetToken(ctx, resp.Token)
	}

	return resp.Token, nil
}

// UpdateStatus moves a task through its workflow.
func (a *APIClient) UpdateStatus(ctx context.Context, token string, payload UpdateStatusRequest) error {
	if err := payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid status payload")
	}

	_, err := a.post(ctx, routeUpdateStatus, token, payload)
	return err
}

func (a *APIClient) post(ctx context.Context, route, token string, payload any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := a.http.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "request failed")
	}
	defer res.Body.Close()

	out := &apiResponse{}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode response")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		message := out.Message
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", res.StatusCode)
		}

		category := goerrors.CategoryOperation
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			category = goerrors.CategoryAuth
		}

		return nil, goerrors.New(message, category)
	}

	return out, nil
}
