package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the Pinata pinning API. Blobs and JSON documents go in,
// content addresses come out; everything the minted NFT references lives
// behind these CIDs.
type Client struct {
	baseURL    string
	gateway    string
	jwt        string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, gateway, jwt string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		gateway: strings.TrimSuffix(gateway, "/"),
		jwt:     jwt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// PinResult is the subset of the Pinata response we use.
type PinResult struct {
	CID string `json:"IpfsHash"`
}

// PinFile uploads a binary blob under the given filename and returns its CID.
func (c *Client) PinFile(ctx context.Context, filename string, data []byte) (*PinResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/pinning/pinFileToIPFS", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	return c.do(req)
}

// PinJSON pins a JSON document (NFT metadata) and returns its CID.
func (c *Client) PinJSON(ctx context.Context, name string, content any) (*PinResult, error) {
	payload, err := json.Marshal(map[string]any{
		"pinataContent":  content,
		"pinataMetadata": map[string]any{"name": name},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/pinning/pinJSONToIPFS", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*PinResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinning service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pinning service returned %d: %s", resp.StatusCode, string(body))
	}

	var result PinResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode pinning response: %w", err)
	}
	if result.CID == "" {
		return nil, fmt.Errorf("pinning response missing IpfsHash")
	}
	return &result, nil
}

// FileURI is the canonical ipfs:// form stored in session metadata.
func FileURI(cid string) string {
	return "ipfs://" + cid
}

// GatewayURL is the HTTP form embedded in NFT metadata, so wallets that do
// not resolve ipfs:// can still fetch the content.
func (c *Client) GatewayURL(cid string) string {
	return fmt.Sprintf("https://%s/ipfs/%s", c.gateway, cid)
}
