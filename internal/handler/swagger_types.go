package handler

import (
	"daicho/internal/classify"
	"daicho/internal/domain"
	"daicho/internal/service"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Records []domain.RawRecord `json:"records" binding:"required,min=1"`
	// Master names the hierarchy master to classify against. Empty
	// uses the active or configured default master.
	Master string `json:"master" example:"kanagawa-r6"`
}

// NormalizeRequest is the body of POST /normalize.
type NormalizeRequest struct {
	Records []domain.ClassifiedRecord `json:"records" binding:"required,min=1"`
	// Threshold overrides the unification majority share (0 keeps the
	// default).
	Threshold float64 `json:"threshold" binding:"omitempty,gt=0,lte=1" example:"0.6"`
	// UnifyPathFields and UnifyStations toggle the two unification
	// passes; nil keeps them enabled.
	UnifyPathFields *bool `json:"unifyPathFields"`
	UnifyStations   *bool `json:"unifyStations"`
	// ProtectedFiles lists file names unification must never rewrite.
	ProtectedFiles []string `json:"protectedFiles"`
}

// LayoutPlanRequest is the body of POST /layout/plan.
type LayoutPlanRequest struct {
	Records       []domain.ClassifiedRecord `json:"records" binding:"required,min=1"`
	PhotosPerPage int                       `json:"photosPerPage" binding:"omitempty,oneof=2 3" example:"3"`
}

// CreateRunRequest documents the body of POST /runs.
type CreateRunRequest struct {
	Source        string  `json:"source" binding:"required" example:"s3://daicho-photos/site-a/2026-07"`
	MasterName    string  `json:"masterName" example:"kanagawa-r6"`
	Title         string  `json:"title" example:"工事写真台帳"`
	PhotosPerPage int     `json:"photosPerPage" example:"3"`
	AliasPreset   string  `json:"aliasPreset" example:"pavement"`
	Threshold     float64 `json:"threshold" example:"0.6"`
	NotifyEmail   string  `json:"notifyEmail" example:"site-lead@example.com"`
}

// --- Response Types ---

// ClassifyResponse pairs classified records with the match summary.
type ClassifyResponse struct {
	Records []domain.ClassifiedRecord `json:"records"`
	Summary classify.Summary          `json:"summary"`
}

// RunDetail is a run together with its signed artifact links.
type RunDetail struct {
	Run       *domain.Run                `json:"run"`
	Artifacts []service.ArtifactDownload `json:"artifacts"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
