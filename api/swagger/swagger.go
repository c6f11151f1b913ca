package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Carevia API",
        "description": "Hospital appointment platform: appointment lifecycle, resilient catalog reads and circuit observability.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Appointments", "description": "Appointment lifecycle"},
        {"name": "Catalog", "description": "Core reference data"},
        {"name": "ResilientCatalog", "description": "Catalog reads through the degrading client"},
        {"name": "Upstream", "description": "Upstream health observability"}
    ],
    "paths": {
        "/appointments": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List appointments",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "doctorId", "in": "query", "type": "string"},
                    {"name": "hospitalId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            },
            "post": {
                "tags": ["Appointments"],
                "summary": "Book an appointment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAppointmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/appointments/expire-past": {
            "post": {
                "tags": ["Appointments"],
                "summary": "Cancel every scheduled appointment whose window already closed",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/appointments/{id}": {
            "get": {
                "tags": ["Appointments"],
                "summary": "Get an appointment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Appointments"],
                "summary": "Partially update an appointment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAppointmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition or slot conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Appointments"],
                "summary": "Delete an appointment record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/doctors/{id}/appointments/today": {
            "get": {
                "tags": ["Appointments"],
                "summary": "A doctor's agenda for the current day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/core/catalog/hospitals": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List hospitals",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/core/catalog/doctors": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List doctors",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "hospitalId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/core/catalog/specialties": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List specialties",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/core/catalog/staff": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List staff members",
                "parameters": [
                    {"name": "hospitalId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/core/catalog/kpis": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Appointment counts for a calendar day",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/catalog/hospitals": {
            "get": {
                "tags": ["ResilientCatalog"],
                "summary": "List hospitals through the resilient client",
                "responses": {
                    "200": {"description": "OK, possibly degraded or stale", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/catalog/doctors": {
            "get": {
                "tags": ["ResilientCatalog"],
                "summary": "List doctors through the resilient client",
                "responses": {
                    "200": {"description": "OK, possibly degraded or stale", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/catalog/specialties": {
            "get": {
                "tags": ["ResilientCatalog"],
                "summary": "List specialties through the resilient client",
                "responses": {
                    "200": {"description": "OK, possibly degraded or stale", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/catalog/staff": {
            "get": {
                "tags": ["ResilientCatalog"],
                "summary": "List staff through the resilient client",
                "responses": {
                    "200": {"description": "OK, possibly degraded or stale", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/catalog/kpis": {
            "get": {
                "tags": ["ResilientCatalog"],
                "summary": "Daily KPIs through the resilient client",
                "responses": {
                    "200": {"description": "OK, possibly degraded or stale", "schema": {"$ref": "#/definitions/ListEnvelope"}}
                }
            }
        },
        "/upstream/circuit": {
            "get": {
                "tags": ["Upstream"],
                "summary": "Current upstream circuit state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateAppointmentRequest": {
            "type": "object",
            "properties": {
                "hospitalId": {"type": "string"},
                "doctorId": {"type": "string"},
                "reason": {"type": "string"},
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"},
                "patientId": {"type": "string"},
                "patient": {"$ref": "#/definitions/PatientSnapshot"}
            }
        },
        "UpdateAppointmentRequest": {
            "type": "object",
            "properties": {
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"},
                "status": {"type": "string", "enum": ["SCHEDULED", "ATTENDED", "CANCELLED"]}
            }
        },
        "PatientSnapshot": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "document": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "birthDate": {"type": "string", "format": "date-time"},
                "sex": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "ListEnvelope": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"type": "object"}},
                "total": {"type": "integer"},
                "degraded": {"type": "boolean"},
                "stale": {"type": "boolean"}
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
