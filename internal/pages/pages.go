// Package pages serves the browsing surface. Every page declares its
// required-role set up front; the handler runs only after the Role Gate
// admits the request.
package pages

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
)

// Page binds a route to its permitted roles.
type Page struct {
	Path     string
	Required auth.RoleSet
	Handler  gin.HandlerFunc
}

// Routes is the declared page table. An empty role set is public.
func Routes() []Page {
	return []Page{
		{Path: "/", Required: auth.Roles(), Handler: landing},
		{Path: "/login", Required: auth.Roles(), Handler: loginForm},
		{Path: "/dashboard", Required: auth.AnyAuthenticated(), Handler: dashboard},
		{Path: "/reports", Required: auth.Roles(auth.RoleTeacher, auth.RoleAdmin), Handler: reports},
		{Path: "/admin", Required: auth.Roles(auth.RoleAdmin), Handler: adminPanel},
	}
}

// Register mounts every page behind its role requirement.
func Register(r *gin.Engine) {
	for _, p := range Routes() {
		r.GET(p.Path, auth.Require(p.Required), p.Handler)
	}
}

func landing(c *gin.Context) {
	html(c, "<h1>Rollcall</h1><p><a href=\"/login\">Sign in</a></p>")
}

func loginForm(c *gin.Context) {
	html(c, `<h1>Sign in</h1>
<form method="post" action="/auth/login">
  <input name="username" placeholder="username">
  <input name="password" type="password" placeholder="password">
  <button type="submit">Sign in</button>
</form>`)
}

func dashboard(c *gin.Context) {
	actx := auth.FromContext(c)
	html(c, fmt.Sprintf("<h1>Dashboard</h1><p>Signed in as %s (%s)</p>",
		actx.Identity.UserID, actx.Identity.Role))
}

func reports(c *gin.Context) {
	html(c, "<h1>Attendance reports</h1>")
}

func adminPanel(c *gin.Context) {
	html(c, "<h1>Administration</h1>")
}

func html(c *gin.Context, body string) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<!doctype html>"+body))
}
