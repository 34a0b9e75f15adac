package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "Timetable views, conflict checking and automated generation",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Catalog",
            "description": "Institution catalog read views"
        },
        {
            "name": "Timetable",
            "description": "Timetable views and manual entries"
        },
        {
            "name": "Generator",
            "description": "Automated timetable generation"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "A dependency is unreachable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/catalog/time-slots": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "List active time slots",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/catalog/classrooms": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "List active classrooms",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/catalog/subjects": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "List subjects",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/catalog/classes": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "List classes",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/catalog/faculty": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "summary": "List active faculty",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/catalog/refresh": {
            "post": {
                "tags": [
                    "Catalog"
                ],
                "summary": "Drop cached catalog views",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/api/v1/timetable/classes/{id}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Get the timetable of a class",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Class not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "academicYear",
                        "in": "query",
                        "type": "string",
                        "description": "Academic year, e.g. 2024-25"
                    }
                ]
            }
        },
        "/api/v1/timetable/classes/{id}/export": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Export a class timetable",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "academicYear",
                        "in": "query",
                        "type": "string",
                        "description": "Academic year, e.g. 2024-25"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf"
                        ]
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/api/v1/timetable/faculty/{id}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Get the teaching schedule of a faculty member",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Faculty ID"
                    },
                    {
                        "name": "academicYear",
                        "in": "query",
                        "type": "string",
                        "description": "Academic year, e.g. 2024-25"
                    }
                ]
            }
        },
        "/api/v1/timetable/students/{id}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Get the timetable of a student",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "academicYear",
                        "in": "query",
                        "type": "string",
                        "description": "Academic year, e.g. 2024-25"
                    }
                ]
            }
        },
        "/api/v1/timetable/entries": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Create a timetable entry",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Entry conflicts with the timetable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateEntryRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/timetable/entries/{id}": {
            "put": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Update a timetable entry",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Entry conflicts with the timetable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Entry ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateEntryRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Delete a timetable entry",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Entry ID"
                    }
                ]
            }
        },
        "/api/v1/timetable/conflicts/check": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Check a candidate entry for conflicts",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConflictCheckRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/timetable/generate": {
            "post": {
                "tags": [
                    "Generator"
                ],
                "summary": "Generate a timetable preview for a class",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "A run for this class and year is in progress",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Catalog could not be loaded",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateTimetableRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/timetable/generate/async": {
            "post": {
                "tags": [
                    "Generator"
                ],
                "summary": "Queue a timetable generation run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateTimetableRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/timetable/runs/{id}": {
            "get": {
                "tags": [
                    "Generator"
                ],
                "summary": "Get the status and result of a generation run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Run not found or expired",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Run ID"
                    }
                ]
            }
        },
        "/api/v1/timetable/runs/{id}/save": {
            "post": {
                "tags": [
                    "Generator"
                ],
                "summary": "Persist a previewed generation run",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Generated entries conflict with persisted rows",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Run ID"
                    }
                ]
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "required": [
                "classId"
            ],
            "properties": {
                "classId": {
                    "type": "string"
                },
                "academicYear": {
                    "type": "string",
                    "example": "2024-25"
                },
                "effectiveFrom": {
                    "type": "string",
                    "format": "date"
                },
                "replaceExisting": {
                    "type": "boolean"
                }
            }
        },
        "ConflictCheckRequest": {
            "type": "object",
            "required": [
                "subjectId",
                "facultyId",
                "classId",
                "classroomId",
                "timeSlotId"
            ],
            "properties": {
                "subjectId": {
                    "type": "string"
                },
                "facultyId": {
                    "type": "string"
                },
                "classId": {
                    "type": "string"
                },
                "classroomId": {
                    "type": "string"
                },
                "timeSlotId": {
                    "type": "string"
                },
                "academicYear": {
                    "type": "string"
                },
                "excludeEntryId": {
                    "type": "string"
                }
            }
        },
        "CreateEntryRequest": {
            "type": "object",
            "required": [
                "subjectId",
                "facultyId",
                "classId",
                "classroomId",
                "timeSlotId"
            ],
            "properties": {
                "subjectId": {
                    "type": "string"
                },
                "facultyId": {
                    "type": "string"
                },
                "classId": {
                    "type": "string"
                },
                "classroomId": {
                    "type": "string"
                },
                "timeSlotId": {
                    "type": "string"
                },
                "academicYear": {
                    "type": "string"
                },
                "effectiveFrom": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "UpdateEntryRequest": {
            "type": "object",
            "properties": {
                "subjectId": {
                    "type": "string"
                },
                "facultyId": {
                    "type": "string"
                },
                "classroomId": {
                    "type": "string"
                },
                "timeSlotId": {
                    "type": "string"
                },
                "effectiveFrom": {
                    "type": "string",
                    "format": "date"
                },
                "isActive": {
                    "type": "boolean"
                }
            }
        },
        "ConflictRecord": {
            "type": "object",
            "properties": {
                "reason": {
                    "type": "string",
                    "enum": [
                        "FACULTY_DOUBLE_BOOKED",
                        "ROOM_DOUBLE_BOOKED",
                        "CLASS_DOUBLE_BOOKED",
                        "ROOM_TYPE_MISMATCH",
                        "ROOM_CAPACITY_EXCEEDED"
                    ]
                },
                "conflict_message": {
                    "type": "string"
                },
                "conflicting_entry_id": {
                    "type": "string"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
