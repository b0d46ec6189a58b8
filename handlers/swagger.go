package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the document API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>doctracker API docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "doctracker", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } },
    "schemas": {
      "Document": {
        "type": "object",
        "properties": {
          "id": {"type":"string"}, "docNumber": {"type":"string"},
          "submissionDate": {"type":"string","format":"date"},
          "proposer": {"type":"string"}, "departmentGroup": {"type":"string"}, "objective": {"type":"string"},
          "statusDept1": {"type":"string"}, "statusDept2": {"type":"string"},
          "statusDept3": {"type":"string"}, "statusDept4": {"type":"string"},
          "directorStatus": {"type":"string"}, "notes": {"type":"string"}
        }
      }
    }
  },
  "paths": {
    "/api/meta": { "get": { "summary": "Form options, labels and backend state", "responses": { "200": { "description": "meta" } } } },
    "/api/documents": {
      "get": {
        "summary": "Filtered, paginated documents (15 per page)",
        "parameters": [
          {"name":"q","in":"query","schema":{"type":"string"}},
          {"name":"group","in":"query","schema":{"type":"string"}},
          {"name":"month","in":"query","schema":{"type":"integer","minimum":1,"maximum":12}},
          {"name":"expr","in":"query","schema":{"type":"string"}},
          {"name":"page","in":"query","schema":{"type":"integer","minimum":1}}
        ],
        "responses": { "200": { "description": "view" }, "400": { "description": "invalid query" } }
      },
      "post": {
        "summary": "Save a document; an id the collection holds is updated, anything else is created",
        "security": [{"bearer": []}],
        "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Document"} } } },
        "responses": { "200": { "description": "updated" }, "201": { "description": "created" }, "400": { "description": "invalid document" }, "503": { "description": "backend unavailable" } }
      }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "put": { "summary": "Replace a document keeping id and docNumber", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a document", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/documents/reload": { "post": { "summary": "Reload from the backend", "responses": { "200": { "description": "reloaded" }, "503": { "description": "backend unavailable" } } } },
    "/api/stats": { "get": { "summary": "Dashboard counts", "responses": { "200": { "description": "stats" } } } },
    "/api/calendar": { "get": { "summary": "Days of a month with submissions", "responses": { "200": { "description": "days" } } } },
    "/api/export.csv": { "get": { "summary": "Download all documents as CSV", "responses": { "200": { "description": "csv" } } } },
    "/api/export": { "post": { "summary": "Publish a CSV snapshot to object storage", "security": [{"bearer": []}], "responses": { "201": { "description": "snapshot with presigned URL" }, "503": { "description": "storage not configured" } } } },
    "/api/exports": { "get": { "summary": "List published snapshots", "responses": { "200": { "description": "objects" } } } },
    "/api/rpc": { "post": { "summary": "Remote procedure endpoint (getDocuments, saveDocument, deleteDocument)", "security": [{"bearer": []}], "responses": { "200": { "description": "envelope" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
