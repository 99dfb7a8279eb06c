package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Room Scheduling API",
        "description": "Room assignment, conflict detection and occupancy for weekly activities",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Room Assignments", "description": "Activity to room bindings"},
        {"name": "Room Availability", "description": "Conflict previews and room suggestions"},
        {"name": "Room Occupancy", "description": "Occupancy summaries and exports"}
    ],
    "paths": {
        "/room-assignments": {
            "post": {
                "tags": ["Room Assignments"],
                "summary": "Assign a room to an activity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Activity or room not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict, invalid state or room busy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Capacity exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/room-assignments/bulk": {
            "post": {
                "tags": ["Room Assignments"],
                "summary": "Assign several rooms to an activity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "Partial success", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "All rooms assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/room-assignments/{id}": {
            "get": {
                "tags": ["Room Assignments"],
                "summary": "Get a room assignment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Room Assignments"],
                "summary": "Patch a room assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRoomAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate active assignment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Room Assignments"],
                "summary": "Delete a room assignment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/room-assignments/{id}/deassign": {
            "post": {
                "tags": ["Room Assignments"],
                "summary": "Deactivate a room assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/DeassignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already inactive", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/room-assignments/{id}/reactivate": {
            "post": {
                "tags": ["Room Assignments"],
                "summary": "Reactivate an inactive room assignment",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict or already active", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Capacity exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/{activityId}/rooms/{roomId}/change": {
            "post": {
                "tags": ["Room Assignments"],
                "summary": "Move an activity to another room",
                "parameters": [
                    {"name": "activityId", "in": "path", "required": true, "type": "string"},
                    {"name": "roomId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Target room conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/{activityId}/room-assignments": {
            "get": {
                "tags": ["Room Assignments"],
                "summary": "List room assignments of an activity",
                "parameters": [{"name": "activityId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/rooms/{roomId}/room-assignments": {
            "get": {
                "tags": ["Room Assignments"],
                "summary": "List room assignments of a room",
                "parameters": [
                    {"name": "roomId", "in": "path", "required": true, "type": "string"},
                    {"name": "activeOnly", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activities/{activityId}/rooms/{roomId}/availability": {
            "get": {
                "tags": ["Room Availability"],
                "summary": "Preview whether an activity fits a room",
                "parameters": [
                    {"name": "activityId", "in": "path", "required": true, "type": "string"},
                    {"name": "roomId", "in": "path", "required": true, "type": "string"},
                    {"name": "excludeAssignmentId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activities/{activityId}/room-suggestions": {
            "get": {
                "tags": ["Room Availability"],
                "summary": "Rank candidate rooms for an activity",
                "parameters": [
                    {"name": "activityId", "in": "path", "required": true, "type": "string"},
                    {"name": "minCapacity", "in": "query", "type": "integer"},
                    {"name": "roomType", "in": "query", "type": "string"},
                    {"name": "equipment", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/rooms/{roomId}/occupancy": {
            "get": {
                "tags": ["Room Occupancy"],
                "summary": "Occupancy summary of a room",
                "parameters": [{"name": "roomId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Room not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/occupancy/export": {
            "get": {
                "tags": ["Room Occupancy"],
                "summary": "Export occupancy of active rooms",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "roomId", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "Report file", "schema": {"type": "file"}}}
            }
        }
    },
    "definitions": {
        "AssignRoomRequest": {
            "type": "object",
            "properties": {
                "activityId": {"type": "string"},
                "roomId": {"type": "string"},
                "priority": {"type": "integer", "minimum": 0},
                "note": {"type": "string"}
            },
            "required": ["activityId", "roomId"]
        },
        "RoomRequest": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "priority": {"type": "integer", "minimum": 0},
                "note": {"type": "string"}
            },
            "required": ["roomId"]
        },
        "BulkAssignRequest": {
            "type": "object",
            "properties": {
                "activityId": {"type": "string"},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/RoomRequest"}}
            },
            "required": ["activityId", "rooms"]
        },
        "DeassignRequest": {
            "type": "object",
            "properties": {
                "unassignedAt": {"type": "string", "format": "date-time"},
                "note": {"type": "string"}
            }
        },
        "UpdateRoomAssignmentRequest": {
            "type": "object",
            "properties": {
                "priority": {"type": "integer", "minimum": 0},
                "note": {"type": "string"},
                "active": {"type": "boolean"},
                "unassignedAt": {"type": "string", "format": "date-time"}
            }
        },
        "ChangeRoomRequest": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "priority": {"type": "integer", "minimum": 0},
                "note": {"type": "string"},
                "restorePreviousOnFailure": {"type": "boolean"}
            },
            "required": ["roomId"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
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
