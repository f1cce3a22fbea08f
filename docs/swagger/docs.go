// Package swagger registers the OpenAPI document served under /swagger.
package swagger

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
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    },
    "paths": {
        "/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "List books",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/library.BookDTO"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Save a book graph",
                "parameters": [
                    {"name": "book", "in": "body", "required": true, "schema": {"$ref": "#/definitions/library.BookDTO"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/library.BookDTO"}},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/books/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Save several book graphs in one session",
                "parameters": [
                    {"name": "books", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/library.BookDTO"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/library.BookDTO"}}}
                }
            }
        },
        "/books/plan": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Show the changes saving the books would make",
                "parameters": [
                    {"name": "books", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/library.BookDTO"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/library.Plan"}}
                }
            }
        },
        "/books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["library"],
                "summary": "Get a book",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/library.BookDTO"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/catalog/import": {
            "post": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Import catalogs from the bucket",
                "parameters": [
                    {"type": "string", "name": "object", "in": "query"},
                    {"type": "boolean", "name": "dry_run", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/catalog/export": {
            "post": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Export every book to the bucket",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/integrity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Run all integrity checks",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/integrity/structure": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Check the bucket folders",
                "parameters": [
                    {"type": "boolean", "name": "fix", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/integrity/schema": {
            "get": {
                "produces": ["application/json"],
                "tags": ["integrity"],
                "summary": "Compare the library tables with the models",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "library.AuthorDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "library.TagDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "library.ReviewDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "reviewer": {"type": "string"},
                "stars": {"type": "integer"},
                "text": {"type": "string"}
            }
        },
        "library.BookDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "isbn": {"type": "string"},
                "published": {"type": "string"},
                "concurrency_token": {"type": "string"},
                "author": {"$ref": "#/definitions/library.AuthorDTO"},
                "tags": {"type": "array", "items": {"$ref": "#/definitions/library.TagDTO"}},
                "reviews": {"type": "array", "items": {"$ref": "#/definitions/library.ReviewDTO"}}
            }
        },
        "library.Plan": {
            "type": "object",
            "properties": {
                "books": {"type": "integer"},
                "inserts": {"type": "integer"},
                "removals": {"type": "integer"},
                "unlinks": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Library API",
	Description:      "Book catalog whose writes go through the entity mapper.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
