// Package docs registers the OpenAPI document served at /swagger.
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
        "/api/v1/me": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "description": "Profile and contracts of the ERP customer linked to the Telegram user.",
                "produces": ["application/json"],
                "tags": ["customer"],
                "summary": "Current customer",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProfileResponse"}},
                    "401": {"description": "Missing or invalid init data", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Telegram account is not linked", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "502": {"description": "ERP unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/api/v1/me/reminders": {
            "get": {
                "security": [{"TelegramInitData": []}],
                "description": "Upcoming and overdue instalments of the linked customer.",
                "produces": ["application/json"],
                "tags": ["customer"],
                "summary": "Upcoming payments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RemindersResponse"}},
                    "401": {"description": "Missing or invalid init data", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Telegram account is not linked", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "502": {"description": "ERP unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/webhook/payment-entry": {
            "post": {
                "description": "Called by the ERP when a Payment Entry is submitted. Relays a confirmation to the customer's Telegram chat when one is linked.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Payment entry webhook",
                "parameters": [
                    {"type": "string", "description": "Shared secret, required when configured", "name": "X-Webhook-Secret", "in": "header"},
                    {"description": "Payment event", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PaymentEvent"}}
                ],
                "responses": {
                    "200": {"description": "Acknowledged", "schema": {"$ref": "#/definitions/models.DeliveryResponse"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "401": {"description": "Bad secret", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "502": {"description": "Telegram delivery failed", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "erp.Contract": {
            "type": "object",
            "properties": {
                "contract_id": {"type": "string"},
                "contract_date": {"type": "string"},
                "total_amount": {"type": "number"},
                "paid": {"type": "number"},
                "remaining": {"type": "number"},
                "status": {"type": "string"}
            }
        },
        "erp.Customer": {
            "type": "object",
            "properties": {
                "customer_id": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "passport_series": {"type": "string"}
            }
        },
        "erp.Reminder": {
            "type": "object",
            "properties": {
                "contract_id": {"type": "string"},
                "due_date": {"type": "string"},
                "amount": {"type": "number"},
                "outstanding": {"type": "number"},
                "days_left": {"type": "integer"},
                "status": {"type": "string"},
                "reminder_type": {"type": "string"}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"$ref": "#/definitions/errors.AppError"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        },
        "models.ProfileResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "customer": {"$ref": "#/definitions/erp.Customer"},
                "contracts": {"type": "array", "items": {"$ref": "#/definitions/erp.Contract"}},
                "remaining": {"type": "number"}
            }
        },
        "models.RemindersResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "customer_name": {"type": "string"},
                "reminders": {"type": "array", "items": {"$ref": "#/definitions/erp.Reminder"}}
            }
        },
        "models.PaymentEvent": {
            "type": "object",
            "required": ["payment_id", "contract_id", "amount"],
            "properties": {
                "payment_id": {"type": "string"},
                "customer_id": {"type": "string"},
                "contract_id": {"type": "string"},
                "amount": {"type": "number"},
                "platform_id": {"type": "integer"},
                "date": {"type": "string"},
                "method": {"type": "string"}
            }
        },
        "models.DeliveryResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "delivered": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "TelegramInitData": {
            "description": "Telegram Mini App init data",
            "type": "apiKey",
            "name": "X-Telegram-Init-Data",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ERP Telegram Bot API",
	Description:      "Payment webhook and Telegram Mini App endpoints of the ERP customer bot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
