package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Schedule Widget API",
        "description": "Projects synced timetables and exams into home screen widget views.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Device pairing"},
        {"name": "Preferences", "description": "Timetable, exam and debug clock documents"},
        {"name": "Schedule", "description": "Lesson and exam projections"},
        {"name": "Widgets", "description": "Widget views, update alarms and instances"}
    ],
    "paths": {
        "/auth/pair": {
            "post": {
                "tags": ["Auth"],
                "summary": "Pair a device",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/PairDeviceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid pairing secret", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences/timetable": {
            "put": {
                "tags": ["Preferences"],
                "summary": "Store the weekly timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid document", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences/exams": {
            "put": {
                "tags": ["Preferences"],
                "summary": "Store the exam timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid document", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/preferences/debug-clock": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Show the debug clock override",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Override the effective time",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SetDebugClockRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Preferences"],
                "summary": "Remove the debug clock override",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Cleared"}}
            }
        },
        "/schedule/today": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Today's merged schedule",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/schedule/tomorrow": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Tomorrow's lessons",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exams/upcoming": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Upcoming exams with countdowns",
                "parameters": [
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download upcoming exams",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/widgets/{kind}": {
            "get": {
                "tags": ["Widgets"],
                "summary": "Render a widget view",
                "parameters": [
                    {"in": "path", "name": "kind", "required": true, "type": "string"},
                    {"in": "query", "name": "width", "type": "integer"},
                    {"in": "query", "name": "height", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown widget kind", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/widgets/updates": {
            "get": {
                "tags": ["Widgets"],
                "summary": "Alarm plan for widget refreshes",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/widgets/broadcast": {
            "post": {
                "tags": ["Widgets"],
                "summary": "Queue a widget refresh",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/BroadcastRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/widgets/instances": {
            "get": {
                "tags": ["Widgets"],
                "summary": "List placed widgets",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Widgets"],
                "summary": "Register a placed widget",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/WidgetInstanceRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/widgets/instances/{id}": {
            "delete": {
                "tags": ["Widgets"],
                "summary": "Remove a placed widget",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PairDeviceRequest": {
            "type": "object",
            "required": ["secret"],
            "properties": {
                "device_id": {"type": "string"},
                "secret": {"type": "string"}
            }
        },
        "SetDebugClockRequest": {
            "type": "object",
            "required": ["base_time"],
            "properties": {
                "base_time": {"type": "string", "example": "2025-03-03T08:00:00Z"}
            }
        },
        "BroadcastRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string"}
            }
        },
        "WidgetInstanceRequest": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"}
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
