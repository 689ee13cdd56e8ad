package api

// buildOpenAPIDoc returns an OpenAPI 3.1 document for the ops API. The
// command body's action property is an enum of the bridge's actions.
func buildOpenAPIDoc(actions []string) map[string]any {
	bearer := []any{map[string]any{"BearerAuth": []string{}}}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "livebridge ops API",
			"version": "1.0",
		},
		"paths": map[string]any{
			"/healthz": map[string]any{
				"get": map[string]any{
					"operationId": "healthz",
					"summary":     "Bridge and listener counters",
					"responses":   map[string]any{"200": map[string]any{"description": "Health report"}},
				},
			},
			"/actions": map[string]any{
				"get": map[string]any{
					"operationId": "listActions",
					"summary":     "Actions the bridge accepts",
					"responses":   map[string]any{"200": map[string]any{"description": "Sorted action names"}},
					"security":    bearer,
				},
			},
			"/events": map[string]any{
				"get": map[string]any{
					"operationId": "streamEvents",
					"summary":     "Server-sent bridge events, resumable with Last-Event-ID",
					"responses":   map[string]any{"200": map[string]any{"description": "text/event-stream"}},
					"security":    bearer,
				},
			},
			"/command": map[string]any{
				"post": map[string]any{
					"operationId": "submitCommand",
					"summary":     "Run one command through the dispatch queue",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type":                 "object",
									"required":             []string{"action"},
									"additionalProperties": true,
									"properties": map[string]any{
										"action": map[string]any{"type": "string", "enum": actions},
									},
								},
							},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{"description": "Command result, ok true or false"},
						"400": map[string]any{"description": "Body is not a JSON object"},
					},
					"security": bearer,
				},
			},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}
