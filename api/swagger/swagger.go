package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Records Panel",
        "description": "Admin panel over the students, teachers and courses REST backend",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Session", "description": "Admin login gate"},
        {"name": "Panel", "description": "Filter bar, table, edit dialog and charts of one browser session"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "description": "Pings the records backend and, when enabled, Redis and PostgreSQL",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Session"],
                "summary": "Start an admin session",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/html"],
                "parameters": [
                    {"name": "username", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true}
                ],
                "responses": {
                    "303": {"description": "Session cookie set, redirect to /panel"},
                    "400": {"description": "Login form with missing field message"},
                    "401": {"description": "Login form with bad credentials message"}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["Session"],
                "summary": "End the admin session",
                "responses": {
                    "303": {"description": "Redirect to /login"}
                }
            }
        },
        "/panel/events": {
            "get": {
                "tags": ["Panel"],
                "summary": "Panel event stream",
                "description": "Server-sent events named notification, filters, table, modal and chart",
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "Stream"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/filters": {
            "post": {
                "tags": ["Panel"],
                "summary": "Change a filter control",
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "field", "in": "formData", "type": "string", "required": true, "enum": ["entity", "department", "major", "search"]},
                    {"name": "value", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Applied"},
                    "400": {"description": "Unknown field or entity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/search": {
            "post": {
                "tags": ["Panel"],
                "summary": "Update the search text",
                "parameters": [
                    {"name": "text", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Refresh scheduled"}
                }
            }
        },
        "/panel/table": {
            "get": {
                "tags": ["Panel"],
                "summary": "Re-render the table with the current filters",
                "responses": {
                    "200": {"description": "Table view", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/edit/{entity}/{id}": {
            "post": {
                "tags": ["Panel"],
                "summary": "Open the edit dialog of a record",
                "parameters": [
                    {"name": "entity", "in": "path", "type": "string", "required": true, "enum": ["students", "teachers", "courses"]},
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Dialog", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/new/{entity}": {
            "post": {
                "tags": ["Panel"],
                "summary": "Open an empty dialog for a new record",
                "parameters": [
                    {"name": "entity", "in": "path", "type": "string", "required": true, "enum": ["students", "teachers", "courses"]}
                ],
                "responses": {
                    "200": {"description": "Dialog", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/modal/department": {
            "post": {
                "tags": ["Panel"],
                "summary": "Repopulate the dependent selects of the open dialog",
                "responses": {
                    "200": {"description": "Dialog", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "No dialog open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/modal/save": {
            "post": {
                "tags": ["Panel"],
                "summary": "Submit the open dialog",
                "responses": {
                    "204": {"description": "Saved"},
                    "409": {"description": "No dialog open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/modal/cancel": {
            "post": {
                "tags": ["Panel"],
                "summary": "Close the open dialog without saving",
                "responses": {
                    "204": {"description": "Closed"},
                    "409": {"description": "No dialog open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/delete/{entity}/{id}": {
            "post": {
                "tags": ["Panel"],
                "summary": "Delete a record",
                "parameters": [
                    {"name": "entity", "in": "path", "type": "string", "required": true, "enum": ["students", "teachers", "courses"]},
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/chart/data": {
            "get": {
                "tags": ["Panel"],
                "summary": "Selected chart data",
                "responses": {
                    "200": {"description": "Chart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/chart": {
            "post": {
                "tags": ["Panel"],
                "summary": "Select the displayed chart",
                "parameters": [
                    {"name": "type", "in": "formData", "type": "string", "enum": ["", "studentsByDepartment", "coursesByTeacher"]}
                ],
                "responses": {
                    "200": {"description": "Chart", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown chart type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/chart/export": {
            "get": {
                "tags": ["Panel"],
                "summary": "Download the selected chart",
                "produces": ["image/png", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["png", "pdf"], "default": "png"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No chart selected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Panel"],
                "summary": "Download the chart as drawn by the browser",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["image/png", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "formData", "type": "string", "enum": ["png", "pdf"], "default": "png"},
                    {"name": "image", "in": "formData", "type": "string", "description": "Rendered chart canvas as a PNG data URL"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unknown format or invalid image", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No chart selected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/panel/export.csv": {
            "get": {
                "tags": ["Panel"],
                "summary": "Download the displayed table as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
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
