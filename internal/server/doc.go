// Package server exposes riskscope over HTTP.
//
// Routes:
//
//	GET    /                    service banner
//	GET    /healthz             liveness and storage check
//	POST   /analyze/url         {"url": "..."}
//	POST   /analyze/password    {"password": "..."}
//	POST   /analyze/text        {"text": "..."}
//	POST   /agent/route         tagged input {"type": "...", ...}
//	GET    /events              recent stored decisions (?limit=N)
//	GET    /events/{id}         one stored decision
//	DELETE /events/{id}         remove a stored decision
//	GET    /memory/summary      long-term statistics
//	GET    /memory/recent       short-term entries (?limit=N)
//	GET    /metrics             Prometheus exposition
//
// Errors are JSON objects of the form {"error": code, "detail": message}.
package server
