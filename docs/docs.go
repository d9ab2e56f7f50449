// Package docs holds the Swagger spec served at /swagger.
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
        "/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Start session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.SessionResponse"}}
                }
            }
        },
        "/sessions/{sessionId}/login": {
            "post": {
                "description": "Three consecutive wrong PINs retain the card",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Enter PIN",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "sessionId", "in": "path", "required": true},
                    {"description": "Card and PIN", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "423": {"description": "Locked", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/atm/balance": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["ATM"],
                "summary": "Balance inquiry",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.BalanceResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/atm/withdraw": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ATM"],
                "summary": "Withdraw cash",
                "parameters": [
                    {"description": "Amount", "name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"amount": {"type": "number"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.BalanceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/atm/deposit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ATM"],
                "summary": "Deposit cash",
                "parameters": [
                    {"description": "Amount", "name": "request", "in": "body", "required": true, "schema": {"type": "object", "properties": {"amount": {"type": "number"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.BalanceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/atm/pin": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ATM"],
                "summary": "Change PIN",
                "parameters": [
                    {"description": "Old, new and confirmed PIN", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PINChangeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"message": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/atm/receipt": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["ATM"],
                "summary": "Print receipt",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Receipt"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/atm/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["ATM"],
                "summary": "Session journal",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.JournalEntry"}}}
                }
            }
        },
        "/atm/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"message": {"type": "string"}}}}
                }
            }
        }
    },
    "definitions": {
        "models.SessionResponse": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "state": {"type": "string"},
                "expiresIn": {"type": "integer"}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["cardId", "pin"],
            "properties": {
                "cardId": {"type": "string", "maxLength": 19, "minLength": 4},
                "pin": {"type": "string"}
            }
        },
        "models.LoginResponse": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "status": {"type": "string"},
                "token": {"type": "string"},
                "remainingAttempts": {"type": "integer"}
            }
        },
        "models.PINChangeRequest": {
            "type": "object",
            "required": ["oldPin", "newPin", "confirmPin"],
            "properties": {
                "oldPin": {"type": "string"},
                "newPin": {"type": "string"},
                "confirmPin": {"type": "string"}
            }
        },
        "models.BalanceResponse": {
            "type": "object",
            "properties": {
                "transactionId": {"type": "string"},
                "type": {"type": "string"},
                "amount": {"type": "number"},
                "balance": {"type": "number"},
                "currency": {"type": "string"}
            }
        },
        "models.Receipt": {
            "type": "object",
            "properties": {
                "reference": {"type": "string"},
                "bankName": {"type": "string"},
                "terminalId": {"type": "string"},
                "cardNumber": {"type": "string"},
                "type": {"type": "string"},
                "amount": {"type": "number"},
                "balance": {"type": "number"},
                "currency": {"type": "string"},
                "timestamp": {"type": "string"},
                "qrCode": {"type": "string"}
            }
        },
        "models.JournalEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "transaction_id": {"type": "string"},
                "session_id": {"type": "string"},
                "terminal_id": {"type": "string"},
                "card_id": {"type": "string"},
                "entry_type": {"type": "string"},
                "amount": {"type": "number"},
                "balance": {"type": "number"},
                "status": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "services.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "remainingAttempts": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "ATM Terminal API",
	Description:      "Card sessions, PIN verification and cash transactions for a teller machine",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
