package api

// indexPage is the static status page served at the root. The API itself is
// consumed by the mobile and kiosk clients; this page exists so a browser
// hitting the service sees something useful.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Transit Feedback API</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; color: #222; }
code { background: #f4f4f4; padding: 2px 5px; border-radius: 3px; }
li { margin: 0.4rem 0; }
</style>
</head>
<body>
<h1>Transit Feedback API</h1>
<p>Passenger feedback collection service for public transport.</p>
<ul>
<li><code>POST /api/feedback</code> — submit feedback</li>
<li><code>GET /api/feedback</code> — list feedback</li>
<li><code>PUT /api/feedback/{id}/status</code> — update handling status</li>
<li><code>GET /api/ticket/{id}</code> — fetch a ticket attachment</li>
<li><code>GET /api/stats</code> — dashboard statistics</li>
<li><code>GET /api/hotspots</code> — route hotspots</li>
<li><code>GET /api/analytics/routes</code> — problematic routes</li>
<li><code>GET /api/export/csv</code> — CSV export</li>
<li><code>GET /api/files/stats</code> — upload statistics</li>
</ul>
<p><a href="/health">health</a> · <a href="/version">version</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`
