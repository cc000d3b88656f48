package restmachinery

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/krancour/guestflow/internal/version"
	"github.com/krancour/guestflow/sdk/meta"
	"github.com/pkg/errors"
)

// APIPathPrefix is prepended to the path of every outbound request.
const APIPathPrefix = "/api/v1"

// OutboundRequest models of an outbound API call.
type OutboundRequest struct {
	// Method specifies the HTTP method to be used.
	Method string
	// Path specifies a path (relative to the API prefix) to the resource.
	Path string
	// QueryParams optionally specifies query parameters to be included in the
	// URL.
	QueryParams map[string]string
	// AuthHeaders optionally specifies authentication headers.
	AuthHeaders map[string]string
	// ReqBodyObj optionally provides an object that can be marshaled to create
	// the body of the HTTP request.
	ReqBodyObj interface{}
	// SuccessCode, when non-zero, pins the one HTTP status code that indicates
	// a successful request. When zero, any 2xx status is a success.
	SuccessCode int
	// RespObj optionally provides an object into which the HTTP response body
	// can be unmarshaled. It is left untouched by a 204 response.
	RespObj interface{}
}

// BaseClient provides "API machinery" used by all the specialized API
// clients. Its various functions remove the tedium from common API-related
// operations like setting auth headers and mapping error bodies to errors.
type BaseClient struct {
	APIAddress string
	HTTPClient *http.Client
}

// NewBaseClient returns a BaseClient for the API server at the given address.
func NewBaseClient(apiAddress string, allowInsecure bool) *BaseClient {
	return &BaseClient{
		APIAddress: strings.TrimSuffix(apiAddress, "/"),
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: allowInsecure, // nolint: gosec
				},
			},
		},
	}
}

// BearerTokenAuthHeaders returns a map of HTTP authentication headers that
// are appropriate for the given bearer token. No header is produced for an
// empty token.
func (b *BaseClient) BearerTokenAuthHeaders(token string) map[string]string {
	if token == "" {
		return map[string]string{}
	}
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// ExecuteRequest accepts one argument-- an OutboundRequest-- that models all
// aspects of a single API call in a succinct fashion. Based on this
// information, this function prepares and executes an HTTP request, then
// unmarshals the response body into the OutboundRequest's RespObj. Any
// non-success response is returned as a *meta.ErrAPI.
func (b *BaseClient) ExecuteRequest(
	ctx context.Context,
	req OutboundRequest,
) error {
	resp, err := b.SubmitRequest(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent || req.RespObj == nil {
		return nil
	}
	respBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "error reading response body")
	}
	if err := json.Unmarshal(respBodyBytes, req.RespObj); err != nil {
		return errors.Wrap(err, "error unmarshaling response body")
	}
	return nil
}

// SubmitRequest accepts one argument-- an OutboundRequest-- that models all
// aspects of a single API call in a succinct fashion. Based on this
// information, this function prepares and executes an HTTP request and
// returns the HTTP response. Callers are responsible for closing the body of
// a successful response.
func (b *BaseClient) SubmitRequest(
	ctx context.Context,
	req OutboundRequest,
) (*http.Response, error) {
	var reqBodyReader io.Reader
	if req.ReqBodyObj != nil {
		switch rb := req.ReqBodyObj.(type) {
		case []byte:
			reqBodyReader = bytes.NewBuffer(rb)
		default:
			reqBodyBytes, err := json.Marshal(req.ReqBodyObj)
			if err != nil {
				return nil, errors.Wrap(err, "error marshaling request body")
			}
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	r, err := http.NewRequest(req.Method, b.URL(req.Path), reqBodyReader)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error creating request %s %s",
			req.Method,
			req.Path,
		)
	}
	r = r.WithContext(ctx)
	if len(req.QueryParams) > 0 {
		q := r.URL.Query()
		for k, v := range req.QueryParams {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("User-Agent", version.UserAgent())
	for k, v := range req.AuthHeaders {
		r.Header.Set(k, v)
	}

	resp, err := b.HTTPClient.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "error invoking API")
	}

	if (req.SuccessCode == 0 &&
		(resp.StatusCode < http.StatusOK || resp.StatusCode > 299)) ||
		(req.SuccessCode != 0 && resp.StatusCode != req.SuccessCode) {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}
	return resp, nil
}

// URL returns the absolute URL for the given API path.
func (b *BaseClient) URL(path string) string {
	return fmt.Sprintf(
		"%s%s/%s",
		b.APIAddress,
		APIPathPrefix,
		strings.TrimPrefix(path, "/"),
	)
}

// errorFromResponse derives a display-ready *meta.ErrAPI from a non-success
// response. A string detail is used as is, a list of field errors contributes
// its first message, and anything else falls back to the HTTP status text.
func errorFromResponse(resp *http.Response) *meta.ErrAPI {
	apiErr := &meta.ErrAPI{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	bodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}
	errBody := struct {
		Detail json.RawMessage `json:"detail"`
	}{}
	if err := json.Unmarshal(bodyBytes, &errBody); err != nil ||
		len(errBody.Detail) == 0 {
		return apiErr
	}
	var detail string
	if err := json.Unmarshal(errBody.Detail, &detail); err == nil {
		if detail != "" {
			apiErr.Message = detail
		}
		return apiErr
	}
	var fieldErrs []meta.FieldError
	if err := json.Unmarshal(errBody.Detail, &fieldErrs); err == nil &&
		len(fieldErrs) > 0 {
		apiErr.Details = fieldErrs
		if fieldErrs[0].Msg != "" {
			apiErr.Message = fieldErrs[0].Msg
		}
	}
	return apiErr
}
