// Package cloud sends image messages through the WhatsApp Cloud API.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"greetsend/pkg/config"
	"greetsend/pkg/contacts"
	"greetsend/pkg/errors"
	"greetsend/pkg/logger"
	"greetsend/pkg/media"
	"greetsend/pkg/sender"
)

// Name is the backend name used in configuration
const Name = config.BackendCloud

// Graph API error codes that mean the recipient cannot be messaged
var recipientErrorCodes = map[int]bool{
	131026: true, // message undeliverable
	131030: true, // recipient not in allowed list
	131021: true, // recipient cannot be sender
	100:    true, // invalid parameter, usually the "to" number
}

func init() {
	sender.Register(Name, func(cfg *config.Config, deps sender.Deps) (sender.Sender, error) {
		return New(Options{
			BaseURL:       cfg.Cloud.BaseURL,
			APIVersion:    cfg.Cloud.APIVersion,
			PhoneNumberID: cfg.Cloud.PhoneNumberID,
			AccessToken:   cfg.Cloud.AccessToken,
		}, deps.HTTPClient, deps.Logger)
	})
}

// Options identifies the sending business number
type Options struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
}

// Client talks to the Graph API on behalf of one business phone number
type Client struct {
	httpClient *http.Client
	opts       Options
	headers    map[string]string
	logger     logger.Logger
}

// New creates a Cloud API client. It fails with an auth error when no
// token or phone number ID is configured.
func New(opts Options, httpClient *http.Client, log logger.Logger) (*Client, error) {
	if opts.AccessToken == "" || opts.PhoneNumberID == "" {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "cloud backend needs an access token and phone number ID; run 'greetsend auth login' or set GREETSEND_CLOUD_TOKEN and GREETSEND_CLOUD_PHONE_NUMBER_ID",
		}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.GetLogger()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Client{
		httpClient: httpClient,
		opts:       opts,
		headers: map[string]string{
			"Authorization": "Bearer " + opts.AccessToken,
			"Accept":        "application/json",
		},
		logger: log.WithField("component", "cloud_client"),
	}, nil
}

// SetHeader sets a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *Client) endpoint(resource string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.opts.BaseURL, c.opts.APIVersion, c.opts.PhoneNumberID, resource)
}

// Send uploads the image and sends it with the caption
func (c *Client) Send(ctx context.Context, msg sender.Message) error {
	mediaID, err := c.UploadMedia(ctx, msg.ImagePath)
	if err != nil {
		return err
	}
	_, err = c.SendImage(ctx, msg.Phone, mediaID, msg.Caption)
	return err
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type uploadResponse struct {
	ID string `json:"id"`
}

// UploadMedia uploads a local image and returns its media ID
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeMedia, fmt.Sprintf("failed to read image '%s'", path), err)
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := media.ContentType(path, head)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("messaging_product", "whatsapp")
	_ = w.WriteField("type", contentType)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(path)))
	partHeader.Set("Content-Type", contentType)
	part, err := w.CreatePart(partHeader)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("media"), w.FormDataContentType(), &body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &errors.Error{Type: errors.ErrorTypeServer, Message: "media upload returned no id"}
	}

	c.logger.DebugWithFields("uploaded image", map[string]interface{}{
		"path":     path,
		"media_id": resp.ID,
		"bytes":    len(data),
	})
	return resp.ID, nil
}

type imageObject struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

type messageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Image            imageObject `json:"image"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendImage sends an uploaded image to phone and returns the message ID
func (c *Client) SendImage(ctx context.Context, phone, mediaID, caption string) (string, error) {
	payload, err := json.Marshal(messageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               contacts.Digits(phone),
		Type:             "image",
		Image:            imageObject{ID: mediaID, Caption: caption},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("messages"), "application/json", bytes.NewReader(payload), &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", &errors.Error{Type: errors.ErrorTypeServer, Message: "message accepted without an id"}
	}
	return resp.Messages[0].ID, nil
}

// do performs a request and decodes a JSON response into target
func (c *Client) do(ctx context.Context, method, url, contentType string, body io.Reader, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.DebugWithFields("making HTTP request", map[string]interface{}{
		"method": method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method": method,
			"url":    url,
			"error":  err.Error(),
		})
		return errors.Wrap(errors.ErrorTypeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := c.checkResponseStatus(resp, data); err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		preview := string(data)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"body_preview": preview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeServer,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}
	return nil
}

type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// checkResponseStatus maps non-2xx responses onto typed errors, using the
// Graph API error body when there is one
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var ge graphError
	_ = json.Unmarshal(body, &ge)
	message := ge.Error.Message
	if message == "" {
		message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	fields := map[string]interface{}{
		"status":     resp.StatusCode,
		"url":        resp.Request.URL.String(),
		"graph_code": ge.Error.Code,
		"fbtrace_id": ge.Error.FBTraceID,
	}

	var errType errors.ErrorType
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		errType = errors.ErrorTypeAuth
	case recipientErrorCodes[ge.Error.Code]:
		errType = errors.ErrorTypeRecipient
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		errType = errors.ErrorTypeServer
	default:
		errType = errors.ErrorTypeUnknown
	}

	if errType == errors.ErrorTypeServer {
		c.logger.ErrorWithFields("server error", fields)
	} else {
		c.logger.WarnWithFields("API error", fields)
	}

	return &errors.Error{Type: errType, Message: message, Code: resp.StatusCode, APICode: ge.Error.Code}
}
