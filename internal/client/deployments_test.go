package client_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deploymentList = map[string]interface{}{
	"parent": map[string]string{"customer_id": "parent-123", "name": "MSP", "handle": "msp"},
	"deployments": []map[string]interface{}{
		{"customer_id": "sub-1", "name": "ACME", "handle": "acme", "deployment": map[string]string{"status": "deployed"}},
		{"customer_id": "sub-2", "name": "Globex", "handle": "globex"},
	},
	"count": 2,
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestDeploymentsClient_List(t *testing.T) {
	t.Parallel()
	t.Run("with parent", func(t *testing.T) {
		t.Parallel()

		api := newAPIServer(t)
		api.handle("GET /deployments/1.0", respond(http.StatusOK, deploymentList))

		list, err := api.client(t).Deployments().List(context.Background(), "parent-123")
		require.NoError(t, err)
		assert.Equal(t, "parent-123", list.Parent.CustomerID)
		assert.Equal(t, 2, list.Count)
		require.Len(t, list.Deployments, 2)
		assert.Equal(t, "deployed", list.Deployments[0].Status())

		bodies := api.bodies()
		require.Len(t, bodies, 1)
		assert.Equal(t, map[string]interface{}{"parent_id": "parent-123"}, bodies[0])
	})

	t.Run("without parent sends empty body", func(t *testing.T) {
		t.Parallel()

		api := newAPIServer(t)
		api.handle("GET /deployments/1.0", respond(http.StatusOK, deploymentList))

		_, err := api.client(t).Deployments().List(context.Background(), "")
		require.NoError(t, err)

		bodies := api.bodies()
		require.Len(t, bodies, 1)
		assert.Empty(t, bodies[0])
	})

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()

		api := newAPIServer(t)
		api.handle("GET /deployments/1.0", respond(http.StatusForbidden, map[string]string{"error": "god_mode required"}))

		_, err := api.client(t).Deployments().List(context.Background(), "someone-else")
		require.Error(t, err)
		assert.True(t, prophet.IsForbidden(err))

		apiErr := &prophet.APIError{}
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "god_mode required", apiErr.Message)
		assert.Equal(t, prophet.ErrorTypeAuthorization, apiErr.ErrorType)
	})
}

func TestDeploymentsClient_Get(t *testing.T) {
	t.Parallel()

	api := newAPIServer(t)
	api.handle("GET /deployments/1.0", respond(http.StatusOK, deploymentList))

	deployments := api.client(t).Deployments()

	deployment, err := deployments.Get(context.Background(), "sub-2", "parent-123")
	require.NoError(t, err)
	assert.Equal(t, "Globex", deployment.Name)

	_, err = deployments.Get(context.Background(), "sub-9", "parent-123")
	require.ErrorIs(t, err, prophet.ErrDeploymentNotFound)
	assert.True(t, prophet.IsNotFound(err))

	_, err = deployments.Get(context.Background(), "", "parent-123")
	require.ErrorIs(t, err, prophet.ErrCustomerIDRequired)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestDeploymentsClient_Create(t *testing.T) {
	t.Parallel()
	t.Run("creates", func(t *testing.T) {
		t.Parallel()

		api := newAPIServer(t)
		api.handle("POST /deployments/1.0", respond(http.StatusCreated, map[string]interface{}{
			"deployment": map[string]interface{}{
				"customer": map[string]string{"customer_id": "sub-9", "name": "ACME", "handle": "acme", "org_code": "org_1"},
				"org":      map[string]string{"code": "org_1", "name": "ACME", "handle": "acme"},
			},
		}))

		created, err := api.client(t).Deployments().Create(context.Background(), &prophet.DeploymentCreate{
			Name:      "ACME",
			Handle:    "acme",
			ParentID:  "parent-123",
			Subdomain: "acme",
		})
		require.NoError(t, err)
		assert.Equal(t, "sub-9", created.Customer.CustomerID)
		assert.Equal(t, "org_1", created.Org.Code)

		bodies := api.bodies()
		require.Len(t, bodies, 1)
		assert.Equal(t, map[string]interface{}{
			"name":      "ACME",
			"handle":    "acme",
			"parent_id": "parent-123",
			"subdomain": "acme",
		}, bodies[0])
	})

	t.Run("validates before sending", func(t *testing.T) {
		t.Parallel()

		api := newAPIServer(t)

		_, err := api.client(t).Deployments().Create(context.Background(), &prophet.DeploymentCreate{Name: "ACME"})
		require.ErrorIs(t, err, prophet.ErrHandleRequired)
		assert.Empty(t, api.bodies())
		assert.Equal(t, int32(0), api.tokenFetches.Load())
	})

	t.Run("server validation", func(t *testing.T) {
		t.Parallel()

		api := newAPIServer(t)
		api.handle("POST /deployments/1.0", respond(http.StatusBadRequest, map[string]string{"error": "handle already taken"}))

		_, err := api.client(t).Deployments().Create(context.Background(), &prophet.DeploymentCreate{
			Name: "ACME", Handle: "acme", ParentID: "parent-123",
		})

		valErr := &prophet.ValidationError{}
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "handle already taken", valErr.Message)
	})
}

func TestDeploymentsClient_Delete(t *testing.T) {
	t.Parallel()

	api := newAPIServer(t)
	api.handle("DELETE /deployments/1.0", respond(http.StatusOK, map[string]interface{}{
		"message": "Deployment deleted",
		"deleted": map[string]string{"customer_id": "sub-1", "name": "ACME", "handle": "acme"},
	}))

	deployments := api.client(t).Deployments()

	result, err := deployments.Delete(context.Background(), "sub-1", "parent-123")
	require.NoError(t, err)
	assert.Equal(t, "Deployment deleted", result.Message)
	assert.Equal(t, "sub-1", result.Deleted.CustomerID)

	bodies := api.bodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, map[string]interface{}{"customer_id": "sub-1", "parent_id": "parent-123"}, bodies[0])

	_, err = deployments.Delete(context.Background(), "sub-1", "")
	require.ErrorIs(t, err, prophet.ErrParentIDRequired)
	assert.Len(t, api.bodies(), 1)
}
