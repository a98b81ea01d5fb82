package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/internal/http"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
)

// FlowsClient implements prophet.FlowsClient.
type FlowsClient struct {
	httpClient *http.Client
}

// NewFlowsClient creates a new flows client.
func NewFlowsClient(httpClient *http.Client) *FlowsClient {
	return &FlowsClient{
		httpClient: httpClient,
	}
}

// Query implements prophet.FlowsClient.Query.
func (c *FlowsClient) Query(q *prophet.FlowQuery) (*prophet.FlowIterator, error) {
	req, err := q.SearchRequest()
	if err != nil {
		return nil, err
	}

	return prophet.NewFlowIterator(c, req), nil
}

// FetchFlowPage implements prophet.FlowsClient.FetchFlowPage. The response
// is keyed by instance ID; only the first requested instance is returned,
// as an empty page when the server left it out.
func (c *FlowsClient) FetchFlowPage(ctx context.Context, req *prophet.SearchRequest) (*prophet.FlowPage, error) {
	if req == nil || len(req.InstanceIDs) == 0 {
		return nil, &prophet.ValidationError{
			Message: prophet.ErrInstancesRequired.Error(),
			Field:   "instance_ids",
			Err:     prophet.ErrInstancesRequired,
		}
	}

	body := *req
	if body.Module == "" {
		body.Module = constants.SearchModuleFlows
	}

	if body.Size == 0 {
		body.Size = constants.DefaultFlowPageSize
	}

	resp, err := c.httpClient.Post(ctx, constants.SearchPath, &body)
	if err != nil {
		return nil, searchError(resp, err)
	}

	if resp.StatusCode != 200 {
		return nil, searchError(resp, nil)
	}

	var byInstance map[string]json.RawMessage

	err = json.Unmarshal(resp.Body, &byInstance)
	if err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	instanceID := body.InstanceIDs[0]

	raw, ok := byInstance[instanceID]
	if !ok || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}

	var page prophet.FlowPage

	err = json.Unmarshal(raw, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing flow page: %w", err)
	}

	page.InstanceID = instanceID

	return &page, nil
}

// searchError keeps authentication and validation failures as mapped by the
// transport and reports every other status as a failed search.
func searchError(resp *http.Response, err error) error {
	if resp == nil || resp.StatusCode == 400 || resp.StatusCode == 401 {
		return fmt.Errorf("searching flows: %w", err)
	}

	apiErr := &prophet.APIError{
		Message:    fmt.Sprintf("Search request failed with status %d", resp.StatusCode),
		StatusCode: resp.StatusCode,
		ErrorType:  prophet.ErrorTypeAPI,
	}

	mapped := &prophet.APIError{}
	if err != nil && errors.As(err, &mapped) {
		apiErr.ErrorType = mapped.ErrorType
		apiErr.Details = mapped.Details
	}

	return apiErr
}
