// Package staged creates staged upload targets and uploads files to them.
package staged

import (
	"github.com/samber/lo"
)

// Resource is the kind of file a staged target accepts.
type Resource string

// Staged upload resources.
const (
	ResourceBulkMutationVariables Resource = "BULK_MUTATION_VARIABLES"
	ResourceCollectionImage       Resource = "COLLECTION_IMAGE"
	ResourceFile                  Resource = "FILE"
	ResourceImage                 Resource = "IMAGE"
	ResourceModel3D               Resource = "MODEL_3D"
	ResourceProductImage          Resource = "PRODUCT_IMAGE"
	ResourceReturnLabel           Resource = "RETURN_LABEL"
	ResourceShopImage             Resource = "SHOP_IMAGE"
	ResourceURLRedirectImport     Resource = "URL_REDIRECT_IMPORT"
	ResourceVideo                 Resource = "VIDEO"
)

// HTTPMethod is the method the upload must use.
type HTTPMethod string

// Upload methods.
const (
	HTTPMethodPost HTTPMethod = "POST"
	HTTPMethodPut  HTTPMethod = "PUT"
)

// Input describes a file to stage.
type Input struct {
	Resource   Resource   `json:"resource"`
	Filename   string     `json:"filename"`
	MimeType   string     `json:"mimeType"`
	HTTPMethod HTTPMethod `json:"httpMethod,omitempty"`
	// FileSize is a size hint in bytes, sent as a decimal string when set.
	FileSize int64 `json:"-"`
}

type inputWire struct {
	Resource   Resource   `json:"resource"`
	Filename   string     `json:"filename"`
	MimeType   string     `json:"mimeType"`
	HTTPMethod HTTPMethod `json:"httpMethod,omitempty"`
	FileSize   string     `json:"fileSize,omitempty"`
}

// Parameter is a form field that must be replayed verbatim with the upload.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Target is an upload destination returned by the platform.
type Target struct {
	URL         string      `json:"url"`
	ResourceURL string      `json:"resourceUrl,omitempty"`
	Parameters  []Parameter `json:"parameters"`
}

// Key returns the value of the "key" parameter, which identifies the uploaded
// object to later operations. It returns "" when the target has no key.
func (t Target) Key() string {
	p, ok := lo.Find(t.Parameters, func(p Parameter) bool {
		return p.Name == "key"
	})
	if !ok {
		return ""
	}
	return p.Value
}

// ParameterNames returns the parameter names in order.
func (t Target) ParameterNames() []string {
	return lo.Map(t.Parameters, func(p Parameter, _ int) string {
		return p.Name
	})
}

// StagedPath returns the reference later operations use for the uploaded
// file: the key parameter, falling back to the resource URL and then the
// upload URL.
func (t Target) StagedPath() string {
	if key := t.Key(); key != "" {
		return key
	}
	if t.ResourceURL != "" {
		return t.ResourceURL
	}
	return t.URL
}

// File is the content to upload.
type File struct {
	// Name is sent as the filename of the file part.
	Name string
	// MimeType is the Content-Type of the file part (defaults to application/octet-stream).
	MimeType string
	Content  []byte
}
