package transport

import "time"

type CreateAgentRequest struct {
	ProviderAgentID string `json:"providerAgentId" validate:"required"`
	Name            string `json:"name" validate:"required,min=2,max=120"`
	Description     string `json:"description" validate:"max=500"`
	Voice           string `json:"voice" validate:"max=80"`
	CallerNumber    string `json:"callerNumber" validate:"required"`
	// RequiresAddress marks agents whose campaigns need a property address per
	// lead. When omitted it is derived from the agent name.
	RequiresAddress *bool `json:"requiresAddress"`
}

type UpdateAgentRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	Voice           *string `json:"voice" validate:"omitempty,max=80"`
	CallerNumber    *string `json:"callerNumber"`
	RequiresAddress *bool   `json:"requiresAddress"`
	IsActive        *bool   `json:"isActive"`
}

type AssignAgentRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type AgentResponse struct {
	ID              string    `json:"id"`
	ProviderAgentID string    `json:"providerAgentId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Voice           string    `json:"voice"`
	CallerNumber    string    `json:"callerNumber"`
	RequiresAddress bool      `json:"requiresAddress"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
