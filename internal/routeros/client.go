package routeros

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Deliberately short: these are interactive admin actions, a hung
	// device must fail fast instead of blocking the caller.
	connectTimeout = 3 * time.Second
	requestTimeout = 5 * time.Second
)

// Credentials identifies a RouterOS device and the account used to reach
// its REST control plane.
type Credentials struct {
	Host     string
	Username string
	Password string
	Port     int
	UseTLS   bool
}

// Client is a synchronous wrapper around the RouterOS REST API under
// {scheme}://{host}:{port}/rest. It keeps no device state; every call goes
// to the wire.
type Client struct {
	creds   Credentials
	baseURL string
	httpc   *http.Client
}

// NewClient creates a REST client for one device. TLS certificate
// verification is disabled: RouterOS devices almost always present a
// self-signed certificate.
func NewClient(creds Credentials) *Client {
	if creds.Port <= 0 {
		if creds.UseTLS {
			creds.Port = 443
		} else {
			creds.Port = 80
		}
	}

	scheme := "http"
	if creds.UseTLS {
		scheme = "https"
	}

	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
	}

	return &Client{
		creds:   creds,
		baseURL: fmt.Sprintf("%s://%s:%d/rest", scheme, creds.Host, creds.Port),
		httpc: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
		},
	}
}

// Request performs one REST call and returns the decoded JSON body.
// A 2xx DELETE with an empty or non-JSON body returns (nil, nil): the device
// sends no body for successful deletes.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (interface{}, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &ProtocolError{Op: method + " " + path, Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &ProtocolError{Op: method + " " + path, Err: err}
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		zap.L().Warn("router request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &ConnectionError{Host: c.creds.Host, Port: c.creds.Port, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Host: c.creds.Host, Port: c.creds.Port, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{Status: resp.StatusCode, RemoteMessage: remoteMessage(raw)}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if method == http.MethodDelete {
			return nil, nil
		}
		return nil, &ProtocolError{Op: method + " " + path, Err: err}
	}
	return decoded, nil
}

// Execute posts a console command to the /execute endpoint. Used only for
// operations the REST collections cannot express (service enable/disable,
// default-profile assignment, config export).
func (c *Client) Execute(ctx context.Context, script string) (interface{}, error) {
	zap.L().Debug("executing console command", zap.String("script", script))
	return c.Request(ctx, http.MethodPost, "/execute", map[string]string{"script": script})
}

// remoteMessage extracts the error text from a RouterOS error body.
func remoteMessage(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg, ok := body["message"].(string); ok && msg != "" {
		return msg
	}
	if msg, ok := body["detail"].(string); ok {
		return msg
	}
	return ""
}

// list fetches a collection path and returns it as raw records. An empty
// collection yields an empty slice, never an error.
func (c *Client) list(ctx context.Context, path string) ([]map[string]interface{}, error) {
	res, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return toRecords(res, "GET "+path)
}

// record fetches a single-object path. RouterOS sometimes answers these
// with a one-element array instead of an object; both shapes are accepted.
func (c *Client) record(ctx context.Context, path string) (map[string]interface{}, error) {
	res, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return toRecord(res, "GET "+path)
}

func toRecords(res interface{}, op string) ([]map[string]interface{}, error) {
	switch v := res.(type) {
	case nil:
		return []map[string]interface{}{}, nil
	case []interface{}:
		records := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, &ProtocolError{Op: op, Err: fmt.Errorf("collection item is %T, expected object", item)}
			}
			records = append(records, m)
		}
		return records, nil
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	default:
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("unexpected body type %T", res)}
	}
}

func toRecord(res interface{}, op string) (map[string]interface{}, error) {
	switch v := res.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, nil
		}
		m, ok := v[0].(map[string]interface{})
		if !ok {
			return nil, &ProtocolError{Op: op, Err: fmt.Errorf("collection item is %T, expected object", v[0])}
		}
		return m, nil
	case nil:
		return nil, nil
	default:
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("unexpected body type %T", res)}
	}
}
