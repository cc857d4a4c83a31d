package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Weighbridge Analytics Backend",
    "description": "Ticket import, intake KPIs, fruit quality grading, fleet leaderboard, location reports and intake forecast for a palm-oil mill weighbridge",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {"get": {"tags": ["health"], "summary": "Database health", "responses": {"200": {"description": "ok"}, "503": {"description": "database unavailable"}}}},
    "/api/tickets": {"get": {"tags": ["tickets"], "summary": "List tickets in a window", "responses": {"200": {"description": "ok"}}}},
    "/api/export": {"get": {"tags": ["tickets"], "summary": "Export tickets as CSV", "produces": ["text/csv"], "responses": {"200": {"description": "csv"}}}},
    "/api/import": {"post": {"tags": ["import"], "summary": "Import a ticket CSV", "consumes": ["multipart/form-data", "text/csv"], "responses": {"200": {"description": "import summary"}, "422": {"description": "no valid rows"}}}},
    "/api/runs/latest": {"get": {"tags": ["import"], "summary": "Latest import run", "responses": {"200": {"description": "ok"}, "404": {"description": "no runs"}}}},
    "/api/dashboard": {"get": {"tags": ["analytics"], "summary": "Full dashboard for a window", "responses": {"200": {"description": "ok"}}}},
    "/api/kpi": {"get": {"tags": ["analytics"], "summary": "Intake KPI", "responses": {"200": {"description": "ok"}}}},
    "/api/quality": {"get": {"tags": ["analytics"], "summary": "Quality grades", "responses": {"200": {"description": "ok"}}}},
    "/api/leaderboard": {"get": {"tags": ["analytics"], "summary": "Fleet leaderboard", "responses": {"200": {"description": "ok"}}}},
    "/api/locations": {"get": {"tags": ["analytics"], "summary": "Known locations", "responses": {"200": {"description": "ok"}}}},
    "/api/locations/{name}": {"get": {"tags": ["analytics"], "summary": "Location report", "responses": {"200": {"description": "ok"}, "404": {"description": "unknown location"}}}},
    "/api/forecast": {"get": {"tags": ["analytics"], "summary": "Intake forecast with weather", "responses": {"200": {"description": "ok"}}}},
    "/api/insights": {"post": {"tags": ["insights"], "summary": "Narrative briefing", "responses": {"200": {"description": "ok"}, "429": {"description": "rate limited"}, "502": {"description": "provider error"}}}},
    "/api/announcements": {
      "get": {"tags": ["announcements"], "summary": "List announcements", "responses": {"200": {"description": "ok"}}},
      "post": {"tags": ["announcements"], "summary": "Post an announcement", "responses": {"201": {"description": "created"}}}
    },
    "/api/announcements/{id}": {"delete": {"tags": ["announcements"], "summary": "Delete an announcement", "responses": {"204": {"description": "deleted"}, "404": {"description": "not found"}}}}
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
