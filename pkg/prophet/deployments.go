package prophet

import (
	"encoding/json"
)

// ParentInfo identifies the parent MSP of a deployment list.
type ParentInfo struct {
	CustomerID string `json:"customer_id" yaml:"customer_id"`
	Name       string `json:"name"        yaml:"name"`
	Handle     string `json:"handle"      yaml:"handle"`
}

// Deployment is a sub-deployment (child tenant) under a parent MSP.
type Deployment struct {
	CustomerID string                 `json:"customer_id"          yaml:"customer_id"`
	Name       string                 `json:"name"                 yaml:"name"`
	Handle     string                 `json:"handle"               yaml:"handle"`
	Type       string                 `json:"type,omitempty"       yaml:"type,omitempty"`
	Parent     string                 `json:"parent,omitempty"     yaml:"parent,omitempty"`
	Subdomain  string                 `json:"subdomain,omitempty"  yaml:"subdomain,omitempty"`
	Deployment map[string]interface{} `json:"deployment,omitempty" yaml:"deployment,omitempty"`
	CreatedAt  string                 `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Status returns deployment.status, e.g. "deployed".
func (d *Deployment) Status() string {
	s, _ := d.Deployment["status"].(string)

	return s
}

// DeploymentList is the response of listing sub-deployments.
type DeploymentList struct {
	Parent      ParentInfo   `json:"parent"      yaml:"parent"`
	Deployments []Deployment `json:"deployments" yaml:"deployments"`
	Count       int          `json:"count"       yaml:"count"`
}

// UnmarshalJSON defaults count to the number of deployments.
func (l *DeploymentList) UnmarshalJSON(data []byte) error {
	var raw struct {
		Parent      ParentInfo   `json:"parent"`
		Deployments []Deployment `json:"deployments"`
		Count       *int         `json:"count"`
	}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	l.Parent = raw.Parent
	l.Deployments = raw.Deployments
	l.Count = len(raw.Deployments)

	if l.Deployments == nil {
		l.Deployments = []Deployment{}
	}

	if raw.Count != nil {
		l.Count = *raw.Count
	}

	return nil
}

// DeploymentCreate is the request to create a sub-deployment.
type DeploymentCreate struct {
	Name      string `json:"name"                yaml:"name"`
	Handle    string `json:"handle"              yaml:"handle"`
	ParentID  string `json:"parent_id"           yaml:"parent_id"`
	Subdomain string `json:"subdomain,omitempty" yaml:"subdomain,omitempty"`
}

// Validate checks required fields before any request is made.
func (r *DeploymentCreate) Validate() error {
	switch {
	case r.Name == "":
		return &ValidationError{Message: ErrNameRequired.Error(), Field: "name", Err: ErrNameRequired}
	case r.Handle == "":
		return &ValidationError{Message: ErrHandleRequired.Error(), Field: "handle", Err: ErrHandleRequired}
	case r.ParentID == "":
		return &ValidationError{Message: ErrParentIDRequired.Error(), Field: "parent_id", Err: ErrParentIDRequired}
	}

	return nil
}

// DeploymentDelete is the request to delete a sub-deployment.
type DeploymentDelete struct {
	CustomerID string `json:"customer_id"`
	ParentID   string `json:"parent_id"`
}

// Validate requires both the customer and the parent ID.
func (r *DeploymentDelete) Validate() error {
	switch {
	case r.CustomerID == "":
		return &ValidationError{Message: ErrCustomerIDRequired.Error(), Field: "customer_id", Err: ErrCustomerIDRequired}
	case r.ParentID == "":
		return &ValidationError{Message: ErrParentIDRequired.Error(), Field: "parent_id", Err: ErrParentIDRequired}
	}

	return nil
}

// DeploymentOrg is the identity provider organization of a new deployment.
type DeploymentOrg struct {
	Code   string `json:"code"   yaml:"code"`
	Name   string `json:"name"   yaml:"name"`
	Handle string `json:"handle" yaml:"handle"`
}

// CreatedDeploymentCustomer is the customer record of a new deployment.
type CreatedDeploymentCustomer struct {
	Deployment `yaml:",inline"`

	OrgCode string `json:"org_code,omitempty" yaml:"org_code,omitempty"`
}

// CreatedDeployment is returned by Create.
type CreatedDeployment struct {
	Customer CreatedDeploymentCustomer `json:"customer" yaml:"customer"`
	Org      DeploymentOrg             `json:"org"      yaml:"org"`
}

// DeletedDeployment identifies the deployment that was removed.
type DeletedDeployment struct {
	CustomerID string `json:"customer_id" yaml:"customer_id"`
	Name       string `json:"name"        yaml:"name"`
	Handle     string `json:"handle"      yaml:"handle"`
}

// DeploymentDeleteResult is returned by Delete.
type DeploymentDeleteResult struct {
	Message string            `json:"message" yaml:"message"`
	Deleted DeletedDeployment `json:"deleted" yaml:"deleted"`
}
