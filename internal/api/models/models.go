// Package models defines the request and response bodies of the HTTP API.
package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// ActionData reports the outcome of a state-changing request.
type ActionData struct {
	Status  string `json:"status" example:"started" doc:"Outcome"`
	Message string `json:"message,omitempty" example:"Server process started" doc:"Human-readable detail"`
}

type ActionResponse struct {
	Body ActionData
}
