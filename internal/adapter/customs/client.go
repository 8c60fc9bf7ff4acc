package customs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/reservation-service/internal/domain"
)

// Типы номеров для запроса статуса растаможки.
const (
	TypeHBL   = "hbl"
	TypeMBL   = "mbl"
	TypeCargo = "carg"
)

// ErrNotConfigured — не задан ключ API UNIPASS.
var ErrNotConfigured = errors.New("customs api key is not configured")

const maxBody = 4 << 20

// Client — прокси к сервису статуса таможенного оформления UNIPASS.
type Client struct {
	BaseURL   string
	APIKey    string
	HTTP      *http.Client
	UserAgent string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
		UserAgent: "sunwoo-takbae/1.0",
	}
}

// Query — параметры запроса. Для hbl и mbl обязателен год BlYy.
type Query struct {
	Type string
	No   string
	BlYy string
}

// Response — ответ UNIPASS без изменений.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func (q Query) normalized() (Query, error) {
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	if q.Type == "" {
		q.Type = TypeHBL
	}
	q.No = strings.TrimSpace(q.No)
	q.BlYy = strings.TrimSpace(q.BlYy)
	switch q.Type {
	case TypeHBL, TypeMBL, TypeCargo:
	default:
		return q, fmt.Errorf("%w: unknown type %q", domain.ErrBadInput, q.Type)
	}
	if q.No == "" {
		return q, fmt.Errorf("%w: missing no", domain.ErrBadInput)
	}
	if q.Type != TypeCargo && q.BlYy == "" {
		return q, fmt.Errorf("%w: missing blYy", domain.ErrBadInput)
	}
	return q, nil
}

func (c *Client) Lookup(ctx context.Context, q Query) (Response, error) {
	if c.APIKey == "" {
		return Response{}, ErrNotConfigured
	}
	q, err := q.normalized()
	if err != nil {
		return Response{}, err
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return Response{}, fmt.Errorf("customs base url: %w", err)
	}
	params := u.Query()
	params.Set("crkyCn", c.APIKey)
	switch q.Type {
	case TypeCargo:
		params.Set("cargMtNo", q.No)
	case TypeMBL:
		params.Set("mblNo", q.No)
		params.Set("blYy", q.BlYy)
	default:
		params.Set("hblNo", q.No)
		params.Set("blYy", q.BlYy)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/xml,text/xml,application/json,text/plain,*/*")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("customs request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Response{}, fmt.Errorf("customs read body: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "text/plain; charset=utf-8"
	}
	return Response{Status: resp.StatusCode, ContentType: ct, Body: body}, nil
}
