// Package docs holds the OpenAPI document served under /swagger.
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
        "/api/todos": {
            "get": {
                "description": "Returns every todo ordered by ascending order",
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "List todos",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Todo"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ServerErrorResponse"}}
                }
            },
            "post": {
                "description": "Appends a todo after the current maximum order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Create a todo",
                "parameters": [
                    {"description": "New todo", "name": "todo", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateTodoRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/middleware.ServerErrorResponse"}}
                }
            }
        },
        "/api/todos/reorder": {
            "put": {
                "description": "Sets the order of each listed todo. Updates are applied one by one and are not rolled back on failure",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Reorder todos",
                "parameters": [
                    {"description": "New orders", "name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ReorderTodosRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ReorderErrorResponse"}}
                }
            }
        },
        "/api/todos/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Get a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Changes only the supplied fields. A null dueDate clears it",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Update a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "todo", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateTodoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Todo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Todos"],
                "summary": "Delete a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.CreateTodoRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "completed": {"type": "boolean"},
                "dueDate": {"type": "string", "format": "date-time"}
            }
        },
        "handler.UpdateTodoRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "completed": {"type": "boolean"},
                "dueDate": {"type": "string", "format": "date-time"},
                "order": {"type": "integer"}
            }
        },
        "handler.ReorderTodosRequest": {
            "type": "object",
            "required": ["todos"],
            "properties": {
                "todos": {"type": "array", "items": {"$ref": "#/definitions/model.OrderUpdate"}}
            }
        },
        "handler.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.ReorderErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "applied": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "middleware.ServerErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "error": {}
            }
        },
        "model.OrderUpdate": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string"},
                "order": {"type": "integer"}
            }
        },
        "model.Todo": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "completed": {"type": "boolean"},
                "dueDate": {"type": "string", "format": "date-time"},
                "createdAt": {"type": "string", "format": "date-time"},
                "order": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Todo API",
	Description:      "REST API for a single shared todo list.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
