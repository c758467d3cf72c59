// Package docs registers the swagger document of the HTTP API. Regenerate
// with swag init after changing handler annotations.
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
        "/analyses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["journal"],
                "summary": "Journaled analyses, newest first",
                "parameters": [
                    {"type": "string", "description": "Only this session", "name": "session_id", "in": "query"},
                    {"type": "integer", "description": "Maximum number of entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/models.AnalysisResponse"}}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Error_Response"}}
                }
            }
        },
        "/chat": {
            "post": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Start a conversation with the parenting assistant",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/controllers.ChatSnapshot"}}
                }
            }
        },
        "/chat/{conversationID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Current state of a conversation",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "conversationID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.ChatSnapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Error_Response"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Send a message and wait for the reply",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "conversationID", "in": "path", "required": true},
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Chat_Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.ChatSnapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.Error_Response"}}
                }
            },
            "delete": {
                "tags": ["chat"],
                "summary": "End a conversation",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "conversationID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.Error_Response"}}
                }
            }
        },
        "/chat/{conversationID}/transcript": {
            "get": {
                "produces": ["application/json"],
                "tags": ["journal"],
                "summary": "Journaled messages of a conversation",
                "parameters": [
                    {"type": "string", "description": "Conversation ID", "name": "conversationID", "in": "path", "required": true},
                    {"type": "integer", "description": "Keep only the last N messages", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/models.ChatMessageResponse"}}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.Error_Response"}}
                }
            }
        },
        "/cry/analyze": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["cry"],
                "summary": "Interpret a recorded cry",
                "parameters": [
                    {"type": "file", "description": "Recorded audio", "name": "audio", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.CrySnapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.Error_Response"}}
                }
            }
        },
        "/food/analyze": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["food"],
                "summary": "Check whether a photographed food suits the baby's age",
                "parameters": [
                    {"type": "file", "description": "Food photo", "name": "image", "in": "formData", "required": true},
                    {"type": "integer", "description": "Baby age in months (default 6)", "name": "age_months", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.FoodSnapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.Error_Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.Error_Response"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["live"],
                "summary": "Live session: client events in, view snapshots out",
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        }
    },
    "definitions": {
        "controllers.ChatSnapshot": {
            "type": "object",
            "properties": {
                "conversation_id": {"type": "string"},
                "state": {"type": "string", "enum": ["idle", "sending"]},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/models.ConversationMessage"}},
                "input": {"type": "string"},
                "composing": {"type": "boolean"},
                "init_error": {"type": "string"},
                "online": {"type": "boolean"},
                "input_disabled": {"type": "boolean"},
                "send_disabled": {"type": "boolean"},
                "placeholder": {"type": "string"}
            }
        },
        "controllers.CrySnapshot": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["idle", "recording", "analyzing", "result_ready"]},
                "timer_seconds": {"type": "integer"},
                "timer": {"type": "string"},
                "result": {"$ref": "#/definitions/models.AudioAnalysisResult"},
                "error": {"type": "string"},
                "submit_disabled": {"type": "boolean"}
            }
        },
        "controllers.FoodSnapshot": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["empty", "previewing", "analyzing", "result_ready"]},
                "age_months": {"type": "integer"},
                "allowed_ages": {"type": "array", "items": {"type": "integer"}},
                "preview": {"type": "string"},
                "result": {"$ref": "#/definitions/models.FoodAnalysisResult"},
                "verdict": {"type": "string"},
                "treatment": {"$ref": "#/definitions/models.RiskTreatment"},
                "disclaimer": {"type": "string"},
                "error": {"type": "string"},
                "submit_disabled": {"type": "boolean"}
            }
        },
        "models.AnalysisResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "session_id": {"type": "string"},
                "kind": {"type": "string", "enum": ["audio", "image"]},
                "mime_type": {"type": "string"},
                "payload_bytes": {"type": "integer"},
                "age_months": {"type": "integer"},
                "result": {"type": "object"},
                "valid": {"type": "boolean"},
                "error": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.AudioAnalysisResult": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"},
                "explanation": {"type": "string"},
                "advice": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.ChatMessageResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "conversation_id": {"type": "string"},
                "sequence": {"type": "integer"},
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "text": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.Chat_Request": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string"}
            }
        },
        "models.ConversationMessage": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "text": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.Error_Response": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "models.FoodAnalysisResult": {
            "type": "object",
            "properties": {
                "itemName": {"type": "string"},
                "isSafe": {"type": "boolean"},
                "riskLevel": {"type": "string"},
                "summary": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "models.RiskTreatment": {
            "type": "object",
            "properties": {
                "level": {"type": "string", "enum": ["Low", "Medium", "High", "Unknown"]},
                "tone": {"type": "string"},
                "color": {"type": "string"},
                "icon": {"type": "string"}
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
	Title:            "babyzen API",
	Description:      "Cry interpretation, food safety lookup and a parenting assistant chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
