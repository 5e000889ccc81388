package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/cartsync-backend/pkg/errors"
	"github.com/angelmondragon/cartsync-backend/pkg/logger"
)

const (
	defaultTimeout          = 15 * time.Second
	responseBodyLimit int64 = 4 << 20

	idempotencyHeader = "Idempotency-Key"
	nextCursorHeader  = "X-Next-Cursor"
)

// Session carries everything a store needs to reach the cart service on
// behalf of one signed-in user.
type Session struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logg       *logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithLogger sets the logger used for reverted mutations.
func WithLogger(logg *logger.Logger) Option {
	return func(s *Session) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// NewSession builds a session against baseURL authenticated with token.
func NewSession(baseURL, token string, opts ...Option) *Session {
	s := &Session{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

type response struct {
	status int
	header http.Header
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details,omitempty"`
}

// do sends req and decodes the data envelope into out. Non-2xx answers are
// returned as *pkgerrors.Error carrying the server's code.
func (s *Session) do(ctx context.Context, req request, out any) (*response, error) {
	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
		}
		payload = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, s.baseURL+req.path, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "cart service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "read response")
	}
	meta := &response{status: resp.StatusCode, header: resp.Header}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return meta, decodeError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return meta, nil
	}

	var env dataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return meta, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode response")
	}
	if len(env.Data) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return meta, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode response data")
	}
	return meta, nil
}

func decodeError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Code == "" {
		return pkgerrors.New(codeForStatus(status), fmt.Sprintf("unexpected status %d", status))
	}
	msg := env.Error
	if msg == "" {
		msg = pkgerrors.MetadataFor(pkgerrors.Code(env.Code)).PublicMessage
	}
	apiErr := pkgerrors.New(pkgerrors.Code(env.Code), msg)
	if len(env.Details) > 0 {
		apiErr = apiErr.WithDetails(env.Details)
	}
	return apiErr
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		return pkgerrors.CodeUpstream
	}
}
