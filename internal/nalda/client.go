// Package nalda is the typed wrapper over the two marketplace transports:
// the JSON order endpoint and the CSV feed upload channel. Calls are
// synchronous with fixed timeouts and no retry; a failed call surfaces as an
// aborted run and the next scheduled tick retries.
package nalda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/sellbridge/nalda-sync/internal/models"
	"github.com/sellbridge/nalda-sync/pkg/encoding"
)

// FeedType selects the CSV channel a file is uploaded to.
type FeedType string

const (
	FeedProducts FeedType = "products"
	FeedOrders   FeedType = "orders"
)

const (
	fetchTimeout  = 60 * time.Second
	uploadTimeout = 30 * time.Second
)

// Client talks to the Nalda marketplace on behalf of one shop.
type Client struct {
	apiURL     string
	uploadURL  string
	shopDomain string
	licenseKey string
	fetch      *http.Client
	upload     *http.Client
	logger     *slog.Logger
}

// NewClient builds a client for the given endpoints. licenseKey and
// shopDomain identify the shop on the upload channel.
func NewClient(apiURL, uploadURL, shopDomain, licenseKey string, logger *slog.Logger) *Client {
	return &Client{
		apiURL:     apiURL,
		uploadURL:  uploadURL,
		shopDomain: shopDomain,
		licenseKey: licenseKey,
		fetch:      &http.Client{Timeout: fetchTimeout},
		upload:     &http.Client{Timeout: uploadTimeout},
		logger:     logger,
	}
}

type fetchRequest struct {
	Range string `json:"range"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type fetchResponse struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Result  []models.NaldaOrderLine `json:"result"`
}

// FetchOrderLines returns all order lines Nalda reports for the window.
// Success requires HTTP 200 and the success flag in the body; anything else
// is a transport-level failure.
func (c *Client) FetchOrderLines(ctx context.Context, apiKey string, from, to time.Time) ([]models.NaldaOrderLine, error) {
	body, err := json.Marshal(fetchRequest{
		Range: "custom",
		From:  from.Format("2006-01-02"),
		To:    to.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("encode fetch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := c.fetch.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("order fetch returned HTTP %d", resp.StatusCode)
	}

	var parsed fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode order fetch response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("order fetch rejected by marketplace: %s", parsed.Message)
	}

	c.logger.Debug("Fetched order lines from Nalda",
		"count", len(parsed.Result),
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
	)

	return parsed.Result, nil
}

// UploadCSV ships one feed file over the transfer channel. The payload is
// converted to Windows-1252 before upload; the channel does not speak UTF-8.
func (c *Client) UploadCSV(ctx context.Context, creds models.SyncCredentials, feedType FeedType, filename string, data []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"license_key":  c.licenseKey,
		"domain":       c.shopDomain,
		"csv_type":     string(feedType),
		"ftp_host":     creds.Host,
		"ftp_port":     strconv.Itoa(creds.Port),
		"ftp_user":     creds.Username,
		"ftp_password": creds.Secret,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("build upload form: %w", err)
		}
	}

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(encoding.ToWindows1252(data)); err != nil {
		return fmt.Errorf("write upload payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL+"/upload", &buf)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.upload.Do(req)
	if err != nil {
		return fmt.Errorf("csv upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("csv upload returned HTTP %d: %s", resp.StatusCode, encoding.ToUTF8(msg))
	}

	c.logger.Info("Uploaded CSV feed to Nalda",
		"type", feedType,
		"filename", filename,
		"bytes", len(data),
	)

	return nil
}

// TestAPIConnectivity probes the order endpoint with an empty window. Used
// by the settings UI's "test connection" action only.
func (c *Client) TestAPIConnectivity(ctx context.Context, apiKey string) error {
	today := time.Now()
	_, err := c.FetchOrderLines(ctx, apiKey, today, today)
	return err
}

// TestTransferConnectivity probes the feed channel credentials without
// shipping a real feed.
func (c *Client) TestTransferConnectivity(ctx context.Context, creds models.SyncCredentials) error {
	return c.UploadCSV(ctx, creds, FeedOrders, "probe.csv", nil)
}
