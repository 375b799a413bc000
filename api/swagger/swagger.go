package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Festival Live API",
        "description": "Live results, standings and streaming for the house festival.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Results", "description": "Podium submissions"},
        {"name": "Leaderboard", "description": "Derived house standings"},
        {"name": "Festival", "description": "Festival concluded flag"},
        {"name": "Catalog", "description": "Events and houses"},
        {"name": "Stream", "description": "Live push transports"},
        {"name": "System", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Health check with runtime metrics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness check of the database and cache",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Exposition format"}}
            }
        },
        "/api/results": {
            "get": {
                "tags": ["Results"],
                "summary": "Most recent results, newest first",
                "parameters": [
                    {"name": "level", "in": "query", "type": "string", "enum": ["high_school", "higher_secondary"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResultList"}}
                }
            },
            "post": {
                "tags": ["Results"],
                "summary": "Submit the podium for an event",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitResultRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Ack"}},
                    "400": {"description": "Validation failed or result already submitted", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Event not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["Results"],
                "summary": "Delete a result and reverse its points",
                "parameters": [
                    {"name": "id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/Ack"}},
                    "400": {"description": "Missing id", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Result not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/leaderboard": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "Standings computed from stored results",
                "parameters": [
                    {"name": "level", "in": "query", "type": "string", "enum": ["high_school", "higher_secondary"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Leaderboard"}}
                }
            }
        },
        "/api/leaderboard/export": {
            "get": {
                "tags": ["Leaderboard"],
                "summary": "Download the standings",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "level", "in": "query", "type": "string", "enum": ["high_school", "higher_secondary"]}
                ],
                "responses": {
                    "200": {"description": "Attachment"},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/finalize": {
            "get": {
                "tags": ["Festival"],
                "summary": "Whether the festival is concluded",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FinalizeState"}}
                }
            },
            "post": {
                "tags": ["Festival"],
                "summary": "Conclude or reopen the festival",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FinalizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FinalizeState"}},
                    "400": {"description": "Invalid action", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/events": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Active events",
                "parameters": [
                    {"name": "level", "in": "query", "type": "string", "enum": ["high_school", "higher_secondary"]}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create an event",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Ack"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/institutions": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Active houses",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Houses are fixed and cannot be created",
                "responses": {
                    "405": {"description": "Method not allowed", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/keepalive": {
            "get": {
                "tags": ["System"],
                "summary": "Touch the database to keep it warm",
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "Database connection failed"}
                }
            }
        },
        "/api/stream": {
            "get": {
                "tags": ["Stream"],
                "summary": "Server-sent event stream of result, result_deleted, finalize and keepalive frames",
                "produces": ["text/event-stream"],
                "responses": {"200": {"description": "event:<type> data:<json>"}}
            }
        },
        "/api/ws": {
            "get": {
                "tags": ["Stream"],
                "summary": "Websocket stream carrying {type, payload} frames",
                "responses": {"101": {"description": "Switching protocols"}}
            }
        }
    },
    "definitions": {
        "Placement": {
            "type": "object",
            "properties": {
                "rank": {"type": "integer", "enum": [1, 2, 3]},
                "studentName": {"type": "string"},
                "institutionId": {"type": "string"},
                "points": {"type": "number"}
            }
        },
        "SubmitResultRequest": {
            "type": "object",
            "required": ["eventId", "placements"],
            "properties": {
                "eventId": {"type": "string"},
                "placements": {"type": "array", "items": {"$ref": "#/definitions/Placement"}},
                "submittedBy": {"type": "string"}
            }
        },
        "EnrichedPlacement": {
            "type": "object",
            "properties": {
                "rank": {"type": "integer"},
                "studentName": {"type": "string"},
                "institutionId": {"type": "string"},
                "institutionName": {"type": "string"},
                "institutionCode": {"type": "string"},
                "points": {"type": "number"}
            }
        },
        "EnrichedResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "eventId": {"type": "string"},
                "eventName": {"type": "string"},
                "eventLevel": {"type": "string"},
                "submittedAt": {"type": "string", "format": "date-time"},
                "placements": {"type": "array", "items": {"$ref": "#/definitions/EnrichedPlacement"}}
            }
        },
        "ResultList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/EnrichedResult"}}
            }
        },
        "StandingsEntry": {
            "type": "object",
            "properties": {
                "institutionId": {"type": "string"},
                "totalPoints": {"type": "number"},
                "displayName": {"type": "string"},
                "logoUrl": {"type": "string"},
                "code": {"type": "string"}
            }
        },
        "Leaderboard": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/StandingsEntry"}},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "FinalizeRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["finalize", "undo"]}
            }
        },
        "FinalizeState": {
            "type": "object",
            "properties": {
                "finalized": {"type": "boolean"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "roomCode": {"type": "string"},
                "level": {"type": "string", "enum": ["high_school", "higher_secondary"]},
                "schedule": {
                    "type": "object",
                    "properties": {
                        "start": {"type": "string", "format": "date-time"},
                        "end": {"type": "string", "format": "date-time"}
                    }
                }
            }
        },
        "Ack": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "id": {"type": "string"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "array", "items": {"type": "object"}}
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
