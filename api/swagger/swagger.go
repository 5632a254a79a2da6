package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "DriveCourse MEBBIS Transfer API",
        "description": "Transfers driving course enrollments to the MEBBIS registry and keeps an audit trail of every run.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "MEBBIS Transfer", "description": "Registry transfer runs and their per-enrollment outcomes"}
    ],
    "paths": {
        "/mebbis-transfer": {
            "get": {
                "tags": ["MEBBIS Transfer"],
                "summary": "List MEBBIS transfer jobs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JobListEnvelope"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mebbis-transfer/{courseId}": {
            "post": {
                "tags": ["MEBBIS Transfer"],
                "summary": "Transfer a course's active enrollments to MEBBIS",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "mode", "in": "query", "type": "string", "enum": ["dry_run", "live"], "default": "dry_run"}
                ],
                "responses": {
                    "201": {"description": "Job finished", "schema": {"$ref": "#/definitions/JobViewEnvelope"}},
                    "400": {"description": "Course has no active enrollments", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Transfers disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mebbis-transfer/{id}": {
            "get": {
                "tags": ["MEBBIS Transfer"],
                "summary": "Get a MEBBIS transfer job with its items",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/JobViewEnvelope"}},
                    "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "JobSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "courseId": {"type": "string"},
                "mode": {"type": "string", "enum": ["dry_run", "live"]},
                "status": {"type": "string", "enum": ["running", "completed", "failed"]},
                "successCount": {"type": "integer"},
                "failureCount": {"type": "integer"},
                "errorMessage": {"type": "string"},
                "createdBy": {"type": "string"},
                "startedAt": {"type": "string", "format": "date-time"},
                "completedAt": {"type": "string", "format": "date-time"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "ItemView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "enrollmentId": {"type": "string"},
                "position": {"type": "integer"},
                "status": {"type": "string", "enum": ["pending", "transferred", "failed"]},
                "errorCode": {"type": "string"},
                "errorMessage": {"type": "string"},
                "transferredAt": {"type": "string", "format": "date-time"},
                "studentId": {"type": "string"},
                "studentNationalId": {"type": "string"},
                "studentName": {"type": "string"},
                "enrolledAt": {"type": "string", "format": "date-time"}
            }
        },
        "JobView": {
            "allOf": [
                {"$ref": "#/definitions/JobSummary"},
                {
                    "type": "object",
                    "properties": {
                        "totalItems": {"type": "integer"},
                        "pendingCount": {"type": "integer"},
                        "items": {"type": "array", "items": {"$ref": "#/definitions/ItemView"}}
                    }
                }
            ]
        },
        "JobViewEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/JobView"}
            }
        },
        "JobListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/JobSummary"}},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
