package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Document Intake API",
        "description": "Deduplicating document ingestion gateway with a claimable processing queue and batch campaigns",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Intake", "description": "Document submission and assessment"},
        {"name": "Journal", "description": "Append-only intake ledger"},
        {"name": "Queue", "description": "Worker-facing processing queue"},
        {"name": "Batch", "description": "Bulk ingestion campaigns"},
        {"name": "Observability", "description": "Stats and health"}
    ],
    "paths": {
        "/documents": {
            "post": {
                "tags": ["Intake"],
                "summary": "Submit a document for assessment",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "source_type", "in": "formData", "type": "string"},
                    {"name": "extracted_text", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Assessed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/journal": {
            "get": {
                "tags": ["Journal"],
                "summary": "List journal entries",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "document_type", "in": "query", "type": "string"},
                    {"name": "source_type", "in": "query", "type": "string"},
                    {"name": "duplicates", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/journal/{id}": {
            "get": {
                "tags": ["Journal"],
                "summary": "Get one journal entry",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queue/claim": {
            "post": {
                "tags": ["Queue"],
                "summary": "Claim the next work item",
                "security": [{"WorkerToken": []}],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Queue empty", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queue/items/{id}/complete": {
            "post": {
                "tags": ["Queue"],
                "summary": "Report a terminal result for a claimed item",
                "security": [{"WorkerToken": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "Finalised", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not assigned to this worker", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queue/depth": {
            "get": {
                "tags": ["Queue"],
                "summary": "Report live queue composition",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batch/sessions": {
            "post": {
                "tags": ["Batch"],
                "summary": "Start a batch campaign",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartSessionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Started", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A session is already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batch/estimate": {
            "post": {
                "tags": ["Batch"],
                "summary": "Project campaign duration and cost",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EstimateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batch/sessions/{id}": {
            "get": {
                "tags": ["Batch"],
                "summary": "Get a session with its batch plan",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batch/sessions/{id}/resume": {
            "post": {
                "tags": ["Batch"],
                "summary": "Resume a stopped or interrupted session",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "202": {"description": "Resumed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session already finished", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batch/sessions/{id}/stop": {
            "post": {
                "tags": ["Batch"],
                "summary": "Stop a running session between batches",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Stopped", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Session not running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batch/sessions/{id}/report": {
            "get": {
                "tags": ["Batch"],
                "summary": "Download the campaign report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report payload"}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Observability"],
                "summary": "Aggregated pipeline counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "WorkerToken": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "CompleteItemRequest": {
            "type": "object",
            "required": ["success"],
            "properties": {
                "success": {"type": "boolean"},
                "result_data": {"type": "object"},
                "error_message": {"type": "string"}
            }
        },
        "StartSessionRequest": {
            "type": "object",
            "required": ["source_folder"],
            "properties": {
                "source_folder": {"type": "string"},
                "batch_size": {"type": "integer"}
            }
        },
        "EstimateRequest": {
            "type": "object",
            "required": ["total_documents"],
            "properties": {
                "total_documents": {"type": "integer"},
                "batch_size": {"type": "integer"},
                "cost_per_hour": {"type": "number"},
                "seconds_per_document": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
