package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultKeyPrefix  = "negotiation:customer:"
	defaultSessionTTL = 2 * time.Hour
	maxReplyBytes     = 2 << 20
)

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func (c UpstashRedisConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

type StoreOption func(*UpstashRedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashRedisStore) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.keyPrefix = p
		}
	}
}

// WithTTL sets the session expiry applied on every save. Zero disables expiry.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) { s.ttl = ttl }
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.rest.http = client
		}
	}
}

// UpstashRedisStore keeps sessions as JSON strings in Upstash Redis, so an
// open negotiation survives restarts and is shared between replicas.
type UpstashRedisStore struct {
	rest      restClient
	keyPrefix string
	ttl       time.Duration
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if endpoint == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid upstash redis url: %w", err)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := &UpstashRedisStore{
		rest:      restClient{endpoint: endpoint, token: token, http: &http.Client{Timeout: timeout}},
		keyPrefix: defaultKeyPrefix,
		ttl:       defaultSessionTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.ttl < 0 {
		return nil, errors.New("session ttl must be >= 0")
	}
	return s, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, customerID int64) (*NegotiationSession, error) {
	key, err := s.redisKey(customerID)
	if err != nil {
		return nil, err
	}

	reply, err := s.rest.do(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	if isNil(reply) {
		return nil, ErrStateNotFound
	}

	var payload string
	if err := json.Unmarshal(reply, &payload); err != nil {
		return nil, fmt.Errorf("decode session payload: %w", err)
	}
	return decodeSession([]byte(payload))
}

func (s *UpstashRedisStore) Save(ctx context.Context, session *NegotiationSession) error {
	if err := session.Validate(); err != nil {
		return err
	}
	key, err := s.redisKey(session.CustomerID)
	if err != nil {
		return err
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal negotiation session: %w", err)
	}

	args := []any{key, string(payload)}
	if s.ttl > 0 {
		args = append(args, "EX", expirySeconds(s.ttl))
	}
	_, err = s.rest.do(ctx, "SET", args...)
	return err
}

func (s *UpstashRedisStore) Delete(ctx context.Context, customerID int64) error {
	key, err := s.redisKey(customerID)
	if err != nil {
		return err
	}
	_, err = s.rest.do(ctx, "DEL", key)
	return err
}

func (s *UpstashRedisStore) redisKey(customerID int64) (string, error) {
	if customerID <= 0 {
		return "", fmt.Errorf("%w: customer id must be > 0", ErrInvalidSession)
	}
	prefix := s.keyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return prefix + strconv.FormatInt(customerID, 10), nil
}

func decodeSession(raw []byte) (*NegotiationSession, error) {
	var session NegotiationSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal negotiation session: %w", err)
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("stored negotiation session: %w", err)
	}
	return &session, nil
}

// expirySeconds rounds up so a sub-second TTL still expires.
func expirySeconds(ttl time.Duration) int64 {
	return int64(math.Max(1, math.Ceil(ttl.Seconds())))
}

// restClient sends single commands to the Upstash Redis REST endpoint.
type restClient struct {
	endpoint string
	token    string
	http     *http.Client
}

type restReply struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func (c restClient) do(ctx context.Context, command string, args ...any) (json.RawMessage, error) {
	if c.endpoint == "" || c.token == "" {
		return nil, errors.New("upstash redis client is not configured")
	}

	body, err := json.Marshal(append([]any{command}, args...))
	if err != nil {
		return nil, fmt.Errorf("marshal redis %s: %w", command, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis %s: %w", command, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("redis %s: %w", command, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis %s reply: %w", command, err)
	}

	var reply restReply
	if jsonErr := json.Unmarshal(raw, &reply); jsonErr != nil || resp.StatusCode >= http.StatusMultipleChoices {
		if reply.Error != "" {
			return nil, fmt.Errorf("redis %s: %s", command, reply.Error)
		}
		return nil, fmt.Errorf("redis %s: status=%d body=%s", command, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("redis %s: %s", command, reply.Error)
	}
	return reply.Result, nil
}

func isNil(reply json.RawMessage) bool {
	trimmed := bytes.TrimSpace(reply)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
