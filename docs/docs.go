// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/metrics/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/metrics/compute": {
            "post": {
                "description": "Run the engine over the given records and declarations. Metrics that fail are null in results and listed in errors.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["metrics"],
                "summary": "Compute metrics",
                "parameters": [
                    {
                        "description": "Records and metric declarations",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.ComputeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ComputeResponse"}},
                    "400": {"description": "Invalid request payload", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "422": {"description": "Broken dependency graph", "schema": {"$ref": "#/definitions/handler.ComputeResponse"}}
                }
            }
        },
        "/records": {
            "get": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List records",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of records", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object", "additionalProperties": true}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Accepts a JSON array (or one object), or CSV with Content-Type text/csv. Records without an id get one.",
                "consumes": ["application/json", "text/csv"],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Ingest records",
                "parameters": [
                    {
                        "description": "Records",
                        "name": "records",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "array", "items": {"type": "object", "additionalProperties": true}}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.IngestResponse"}},
                    "400": {"description": "Undecodable body", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/records/{id}": {
            "delete": {
                "tags": ["records"],
                "summary": "Delete record",
                "parameters": [
                    {"type": "string", "description": "Record id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/dashboards": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "List dashboards",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.DashboardInfo"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Body is a declaration set in JSON (comments allowed) or YAML (Content-Type application/yaml). Graph and decode errors reject the set.",
                "consumes": ["application/json", "application/yaml"],
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Save dashboard",
                "parameters": [
                    {
                        "description": "Declaration set",
                        "name": "dashboard",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.DeclarationSet"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "422": {"description": "Declaration errors", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/dashboards/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Get dashboard",
                "parameters": [
                    {"type": "string", "description": "Dashboard name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.DeclarationSet"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/dashboards/{name}/metrics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboards"],
                "summary": "Compute dashboard",
                "parameters": [
                    {"type": "string", "description": "Dashboard name", "name": "name", "in": "path", "required": true},
                    {"type": "string", "description": "Reference time (RFC3339)", "name": "now", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ComputeResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "422": {"description": "Broken dependency graph", "schema": {"$ref": "#/definitions/handler.ComputeResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.ComputeRequest": {
            "type": "object",
            "properties": {
                "metrics": {"type": "array", "items": {"$ref": "#/definitions/model.MetricDeclaration"}},
                "now": {"type": "string"},
                "records": {"type": "array", "items": {"type": "object", "additionalProperties": true}}
            }
        },
        "handler.ComputeResponse": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"$ref": "#/definitions/errors.EngineError"}},
                "report": {"$ref": "#/definitions/model.RunReport"},
                "results": {"type": "object"}
            }
        },
        "handler.IngestResponse": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"$ref": "#/definitions/errors.EngineError"}},
                "rejected": {"type": "integer"},
                "saved": {"type": "integer"}
            }
        },
        "errors.EngineError": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "context": {"type": "object", "additionalProperties": true},
                "message": {"type": "string"},
                "metric_id": {"type": "string"},
                "severity": {"type": "string"}
            }
        },
        "model.RunReport": {
            "type": "object",
            "properties": {
                "duration": {"type": "integer"},
                "metrics": {"type": "array", "items": {"$ref": "#/definitions/model.MetricStatus"}},
                "now": {"type": "string"},
                "order": {"type": "array", "items": {"type": "string"}},
                "records": {"type": "integer"},
                "run_id": {"type": "string"},
                "started_at": {"type": "string"}
            }
        },
        "model.MetricStatus": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "array", "items": {"type": "string"}},
                "duration": {"type": "integer"},
                "error": {"type": "string"},
                "extractor": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"},
                "transforms": {"type": "integer"}
            }
        },
        "model.DeclarationSet": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "metrics": {"type": "array", "items": {"$ref": "#/definitions/model.MetricDeclaration"}},
                "name": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "model.MetricDeclaration": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "component": {"type": "string"},
                "dependencies": {"type": "array", "items": {"type": "string"}},
                "description": {"type": "string"},
                "extractor": {"$ref": "#/definitions/model.Spec"},
                "id": {"type": "string"},
                "layout": {"type": "object", "additionalProperties": true},
                "props": {"type": "object", "additionalProperties": true},
                "render": {"$ref": "#/definitions/model.Spec"},
                "title": {"type": "string"},
                "transforms": {"type": "array", "items": {"$ref": "#/definitions/model.Spec"}}
            }
        },
        "model.Spec": {
            "type": "object",
            "properties": {
                "params": {"type": "object", "additionalProperties": true},
                "type": {"type": "string"}
            }
        },
        "store.DashboardInfo": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "metrics": {"type": "integer"},
                "name": {"type": "string"},
                "updatedAt": {"type": "string"},
                "version": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Metric Engine API",
	Description:      "Computes dashboard metrics from stored or posted records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
