// Package docs registers the static OpenAPI document for the admin API.
//
//	Schemes: http, https
//	Host: localhost:8080
//	BasePath: /api/v1
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs

import "github.com/swaggo/swag"

// @title Quotewire Admin API
// @version 1.0
// @description News-quote ingestion pipeline: cycle control, source and provider management, taxonomy review
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Quotewire Admin API",
        "description": "News-quote ingestion pipeline: cycle control, source and provider management, taxonomy review",
        "version": "1.0.0",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        }
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "operationId": "healthCheck",
                "responses": {"200": {"description": "Service healthy"}}
            }
        },
        "/cycle/run": {
            "post": {
                "summary": "Trigger an ingestion cycle",
                "operationId": "runCycle",
                "responses": {
                    "202": {"description": "Cycle started"},
                    "409": {"description": "A cycle is already running"}
                }
            }
        },
        "/cycle/status": {
            "get": {
                "summary": "Current cycle status",
                "operationId": "getCycleStatus",
                "responses": {"200": {"description": "Running flag, interval, last and next run"}}
            }
        },
        "/sources": {
            "get": {
                "summary": "List live sources",
                "operationId": "listSources",
                "responses": {"200": {"description": "All configured sources"}}
            },
            "post": {
                "summary": "Create a live source",
                "operationId": "createSource",
                "responses": {
                    "201": {"description": "Source created"},
                    "409": {"description": "Feed URL already configured"}
                }
            }
        },
        "/sources/{id}/enabled": {
            "patch": {
                "summary": "Enable or disable a source",
                "operationId": "setSourceEnabled",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "Updated"}}
            }
        },
        "/providers": {
            "get": {
                "summary": "List historical providers",
                "operationId": "listProviders",
                "responses": {"200": {"description": "All registered providers with health"}}
            }
        },
        "/providers/{key}/enabled": {
            "patch": {
                "summary": "Enable or disable a provider",
                "operationId": "setProviderEnabled",
                "parameters": [{"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated"}}
            }
        },
        "/providers/{key}/test": {
            "post": {
                "summary": "Test provider connectivity",
                "operationId": "testProvider",
                "parameters": [{"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Provider reachable"},
                    "502": {"description": "Provider unreachable"}
                }
            }
        },
        "/suggestions": {
            "get": {
                "summary": "List taxonomy suggestions",
                "operationId": "listSuggestions",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "Matching suggestions"}}
            }
        },
        "/suggestions/{id}/approve": {
            "post": {
                "summary": "Approve a suggestion, optionally with an edited payload",
                "operationId": "approveSuggestion",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "Approved and materialized"},
                    "422": {"description": "Not pending or materialization failed"}
                }
            }
        },
        "/suggestions/{id}/reject": {
            "post": {
                "summary": "Reject a suggestion",
                "operationId": "rejectSuggestion",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "Rejected"}}
            }
        },
        "/quotes/recent": {
            "get": {
                "summary": "Most recent visible quotes",
                "operationId": "recentQuotes",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "Recent quotes, newest first"}}
            }
        },
        "/backfill/attempts": {
            "get": {
                "summary": "Recent backfill attempts",
                "operationId": "listBackfillAttempts",
                "responses": {"200": {"description": "Attempt history, newest first"}}
            }
        },
        "/settings": {
            "get": {
                "summary": "Current orchestration settings",
                "operationId": "getSettings",
                "responses": {"200": {"description": "Persisted settings"}}
            }
        },
        "/settings/{key}": {
            "put": {
                "summary": "Update one setting",
                "operationId": "updateSetting",
                "parameters": [{"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated, applied next cycle"}}
            }
        }
    }
}`
