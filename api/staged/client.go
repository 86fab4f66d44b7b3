package staged

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/open-cli-collective/shopify-cli/api"
)

// FileField is the form field that carries the file content.
const FileField = "file"

// Client creates staged upload targets and performs uploads.
type Client struct {
	api        *api.Client
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig contains configuration for creating a new staged upload client.
type ClientConfig struct {
	// API is the GraphQL client used to create targets (required)
	API *api.Client
	// HTTPClient performs uploads (optional, defaults to the API client's HTTP client)
	HTTPClient *http.Client
}

// New creates a new staged upload client.
func New(cfg ClientConfig) (*Client, error) {
	if cfg.API == nil {
		return nil, errors.New("API client is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cfg.API.HTTPClient()
	}

	return &Client{
		api:        cfg.API,
		httpClient: httpClient,
		logger:     cfg.API.Logger().Named("staged"),
	}, nil
}

const stagedUploadsCreateMutation = `mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}`

type createPayload struct {
	StagedTargets []Target       `json:"stagedTargets"`
	UserErrors    api.UserErrors `json:"userErrors"`
}

// CreateTargets requests one upload target per input. User errors are
// returned as api.UserErrors.
func (c *Client) CreateTargets(ctx context.Context, inputs []Input) ([]Target, error) {
	wire := lo.Map(inputs, func(in Input, _ int) inputWire {
		w := inputWire{
			Resource:   in.Resource,
			Filename:   in.Filename,
			MimeType:   in.MimeType,
			HTTPMethod: in.HTTPMethod,
		}
		if in.FileSize > 0 {
			w.FileSize = strconv.FormatInt(in.FileSize, 10)
		}
		return w
	})

	payload, err := api.Execute[createPayload](ctx, c.api, stagedUploadsCreateMutation,
		map[string]any{"input": wire},
		api.Path{api.Key("data"), api.Key("stagedUploadsCreate")})
	if err != nil {
		return nil, err
	}
	if len(payload.UserErrors) > 0 {
		return nil, payload.UserErrors
	}
	return payload.StagedTargets, nil
}

// CreateTarget requests a single upload target.
func (c *Client) CreateTarget(ctx context.Context, in Input) (*Target, error) {
	targets, err := c.CreateTargets(ctx, []Input{in})
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, api.Other("no staged target")
	}
	return &targets[0], nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload posts file to target as multipart/form-data: every target parameter
// as a text field, in order and unmodified, followed by the file part. The
// target is single use so the upload is not retried.
func (c *Client) Upload(ctx context.Context, target Target, file File) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range target.Parameters {
		if err := w.WriteField(p.Name, p.Value); err != nil {
			return &api.Error{Kind: api.KindOther, Message: "failed to build upload form", Err: err}
		}
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FileField, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", mimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return &api.Error{Kind: api.KindOther, Message: "failed to build upload form", Err: err}
	}
	if _, err := part.Write(file.Content); err != nil {
		return &api.Error{Kind: api.KindOther, Message: "failed to build upload form", Err: err}
	}
	if err := w.Close(); err != nil {
		return &api.Error{Kind: api.KindOther, Message: "failed to build upload form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &buf)
	if err != nil {
		return &api.Error{Kind: api.KindConnectionFailed, Message: "failed to create upload request", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.logger.Debug("uploading staged file",
		zap.String("url", target.URL),
		zap.Strings("parameters", target.ParameterNames()),
		zap.Int("size", len(file.Content)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &api.Error{Kind: api.KindConnectionFailed, Message: "upload failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &api.Error{Kind: api.KindResponseBroken, Message: "failed to read upload response", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &api.Error{
			Kind:       api.KindOther,
			Message:    "staged upload rejected",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	return nil
}
