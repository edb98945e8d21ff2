// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/auth/login": {
            "post": {
                "description": "Verify credentials and return the user with an access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/handlers.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.AuthResult"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return the user the bearer token was issued for",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/handlers.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.PublicUser"}}}
                            ]
                        }
                    },
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "description": "Create an account and return it with an access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [
                    {
                        "description": "Registration data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/handlers.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.AuthResult"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Return a page of users, newest first",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "type": "integer", "default": 10, "description": "Page size", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/handlers.Response"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/models.PublicUser"}}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/handlers.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.PublicUser"}}}
                            ]
                        }
                    },
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Change the profile fields present in the body",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.UpdateUserRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/handlers.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.PublicUser"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            }
        },
        "/users/{id}/preferences": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Replace notification preferences",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Preferences",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.PreferencesRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/handlers.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.PublicUser"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.Response"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.PreferencesRequest": {
            "type": "object",
            "required": ["email", "push"],
            "properties": {
                "email": {"type": "boolean"},
                "push": {"type": "boolean"}
            }
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password", "preferences"],
            "properties": {
                "email": {"type": "string", "maxLength": 255},
                "name": {"type": "string", "maxLength": 100, "minLength": 1},
                "password": {"type": "string", "minLength": 6},
                "preferences": {"$ref": "#/definitions/handlers.PreferencesRequest"},
                "push_token": {"type": "string", "maxLength": 500}
            }
        },
        "handlers.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "meta": {"$ref": "#/definitions/models.PaginationMeta"},
                "success": {"type": "boolean"}
            }
        },
        "handlers.UpdateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "maxLength": 255},
                "name": {"type": "string", "maxLength": 100, "minLength": 1},
                "preferences": {"$ref": "#/definitions/handlers.PreferencesRequest"},
                "push_token": {"type": "string", "maxLength": 500}
            }
        },
        "models.PaginationMeta": {
            "type": "object",
            "properties": {
                "has_next": {"type": "boolean"},
                "has_previous": {"type": "boolean"},
                "limit": {"type": "integer"},
                "page": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "models.Preferences": {
            "type": "object",
            "properties": {
                "email": {"type": "boolean"},
                "push": {"type": "boolean"}
            }
        },
        "models.PublicUser": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "preferences": {"$ref": "#/definitions/models.Preferences"},
                "push_token": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "service.AuthResult": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "token_type": {"type": "string"},
                "user": {"$ref": "#/definitions/models.PublicUser"}
            }
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
	Host:             "localhost:8084",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "User Service API",
	Description:      "User accounts, credentials and notification preferences",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
