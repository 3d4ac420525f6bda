// Package docs registers the swagger spec for the harvest API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/harvests": {
            "get": {
                "produces": ["application/json"],
                "tags": ["harvests"],
                "summary": "List all harvest runs",
                "responses": {
                    "200": {"description": "List of runs"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["harvests"],
                "summary": "Create a new harvest run",
                "responses": {
                    "200": {"description": "Harvest run created"},
                    "400": {"description": "Invalid request payload"}
                }
            }
        },
        "/harvests/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["harvests"],
                "summary": "Get harvest run",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Run details"},
                    "404": {"description": "Run not found"}
                }
            }
        },
        "/harvests/{id}/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["harvests"],
                "summary": "Get run summary",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Run summary"},
                    "404": {"description": "Run not found or not finished"}
                }
            }
        },
        "/harvests/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["harvests"],
                "summary": "Get run file errors",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "File errors"}
                }
            }
        },
        "/harvests/{id}/progress": {
            "get": {
                "produces": ["application/json"],
                "tags": ["harvests"],
                "summary": "Get run progress",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Stage progress"}
                }
            }
        },
        "/harvests/{id}/download": {
            "get": {
                "produces": ["text/tab-separated-values"],
                "tags": ["harvests"],
                "summary": "Download run output",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Consolidated output"},
                    "404": {"description": "Run or output not found"}
                }
            }
        },
        "/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List the remote catalog",
                "responses": {
                    "200": {"description": "Remote files"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Tethys Harvester API",
	Description:      "Fetch, deduplicate and consolidate Tethys data files",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
