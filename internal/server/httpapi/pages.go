package httpapi

import (
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/ecopoints/internal/logging"
)

var (
	loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
<form method="post" action="/login">
<label>Username <input name="username" required></label>
<label>Password <input name="password" type="password" required></label>
<button type="submit">Sign in</button>
</form>
<p><a href="/register">Create an account</a></p>
</body></html>`))

	registerPage = template.Must(template.New("register").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Register</title></head>
<body>
<h1>Register</h1>
<form method="post" action="/register">
<label>Phone <input name="phone" required></label>
<label>First name <input name="firstName" required></label>
<label>Last name <input name="lastName" required></label>
<label>Username <input name="username" required></label>
<label>Password <input name="password" type="password" required></label>
<label>Email <input name="email" type="email" required></label>
<button type="submit">Register</button>
</form>
</body></html>`))

	dashboardPage = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Dashboard</title></head>
<body>
<h1>Hello, {{.FirstName}}</h1>
<p>Total recycled: {{.TotalGarbage}}</p>
<p>Points: {{.TotalPoints}}</p>
<p>Deposits: {{.DepositCount}}</p>
<table>
<tr><th>Date</th><th>Amount</th><th>Points</th></tr>
{{range .Recent}}<tr><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td><td>{{.WeightAmount}}</td><td>{{.PointsEarned}}</td></tr>
{{end}}</table>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
</body></html>`))
)

func renderPage(w http.ResponseWriter, log logging.Logger, r *http.Request, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		log.Error(r.Context(), "render page", "page", t.Name(), "error", err)
	}
}
