package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/internal/http"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
)

// DeploymentsClient implements prophet.DeploymentsClient.
type DeploymentsClient struct {
	httpClient *http.Client
}

// NewDeploymentsClient creates a new deployments client.
func NewDeploymentsClient(httpClient *http.Client) *DeploymentsClient {
	return &DeploymentsClient{
		httpClient: httpClient,
	}
}

// List implements prophet.DeploymentsClient.List. An empty parentID lists
// the sub-deployments of the authenticated customer.
func (c *DeploymentsClient) List(ctx context.Context, parentID string) (*prophet.DeploymentList, error) {
	body := map[string]string{}
	if parentID != "" {
		body["parent_id"] = parentID
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method: "GET",
		Path:   constants.DeploymentsPath,
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}

	var list prophet.DeploymentList

	err = json.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing deployments list: %w", err)
	}

	return &list, nil
}

// Get implements prophet.DeploymentsClient.Get by listing and matching on
// customer ID.
func (c *DeploymentsClient) Get(ctx context.Context, customerID, parentID string) (*prophet.Deployment, error) {
	if customerID == "" {
		return nil, &prophet.ValidationError{
			Message: prophet.ErrCustomerIDRequired.Error(),
			Field:   "customer_id",
			Err:     prophet.ErrCustomerIDRequired,
		}
	}

	list, err := c.List(ctx, parentID)
	if err != nil {
		return nil, err
	}

	for i := range list.Deployments {
		if list.Deployments[i].CustomerID == customerID {
			return &list.Deployments[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", prophet.ErrDeploymentNotFound, customerID)
}

// Create implements prophet.DeploymentsClient.Create.
func (c *DeploymentsClient) Create(ctx context.Context, req *prophet.DeploymentCreate) (*prophet.CreatedDeployment, error) {
	err := req.Validate()
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(ctx, constants.DeploymentsPath, req)
	if err != nil {
		return nil, fmt.Errorf("creating deployment: %w", err)
	}

	var created struct {
		Deployment prophet.CreatedDeployment `json:"deployment"`
	}

	err = json.Unmarshal(resp.Body, &created)
	if err != nil {
		return nil, fmt.Errorf("parsing deployment response: %w", err)
	}

	return &created.Deployment, nil
}

// Delete implements prophet.DeploymentsClient.Delete.
func (c *DeploymentsClient) Delete(ctx context.Context, customerID, parentID string) (*prophet.DeploymentDeleteResult, error) {
	req := &prophet.DeploymentDelete{CustomerID: customerID, ParentID: parentID}

	err := req.Validate()
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Delete(ctx, constants.DeploymentsPath, req)
	if err != nil {
		return nil, fmt.Errorf("deleting deployment: %w", err)
	}

	var result prophet.DeploymentDeleteResult

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing delete response: %w", err)
	}

	return &result, nil
}
