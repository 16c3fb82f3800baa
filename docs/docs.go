// Package docs registers the OpenAPI description served at /swagger.
// Regenerate the template with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/threads": {
            "get": {"tags": ["threads"], "summary": "List top-level threads", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["threads"], "summary": "Create a thread", "responses": {"201": {"description": "Created"}}}
        },
        "/threads/{id}": {
            "get": {"tags": ["threads"], "summary": "Get a thread with two generations of replies", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["threads"], "summary": "Delete a thread and all of its replies", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/threads/{id}/comments": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["threads"], "summary": "Reply to a thread", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Search the user directory", "responses": {"200": {"description": "OK"}}}
        },
        "/users/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Current user's profile", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create or update the current user's profile", "responses": {"200": {"description": "OK"}}}
        },
        "/users/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get a user's profile", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/{id}/threads": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "A user's threads with their direct replies", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/activity": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Replies other users left on the caller's threads", "responses": {"200": {"description": "OK"}}}
        },
        "/communities": {
            "get": {"tags": ["communities"], "summary": "Search communities", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["communities"], "summary": "Create a community owned by the caller", "responses": {"201": {"description": "Created"}}}
        },
        "/communities/{id}": {
            "get": {"tags": ["communities"], "summary": "Community details with creator and members", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["communities"], "summary": "Update community info", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["communities"], "summary": "Delete a community and its threads", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/communities/{id}/threads": {
            "get": {"tags": ["communities"], "summary": "A community's threads", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/communities/{id}/members": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["communities"], "summary": "Add a member. Without user_id the caller joins.", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/communities/{id}/members/{userId}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["communities"], "summary": "Leave a community, or remove a member as its creator", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "userId", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/flags": {
            "get": {"tags": ["flags"], "summary": "Feature flags", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Threads API",
	Description:      "Threaded discussions with users and communities",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
