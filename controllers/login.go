package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/sirupsen/logrus"

	"github.com/embedportal/astratoui/environment"
	"github.com/embedportal/astratoui/gateway/astrato"
)

type loginForm struct {
	Email               string `form:"email"`
	AstratoUrl          string `form:"astrato_url"`
	AstratoClientId     string `form:"astrato_client_id"`
	AstratoClientSecret string `form:"astrato_client_secret"`
	AstratoEmbedLink    string `form:"astrato_embed_link"`
	GroupIds            string `form:"group_ids"`
	FilterParameters    string `form:"filter_parameters"`
	ApplyPendingInvites string `form:"apply_pending_invites"`
}

func ShowLogin(env *environment.State, route environment.Route) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		c.HTML(200, "login.html", gin.H{
			"title":          "Login",
			csrf.TemplateTag: csrf.TemplateField(c.Request),
			"links": []map[string]string{
				{"href": "/public/css/dashboard.css"},
			},
		})
	}
	return gin.HandlerFunc(fn)
}

func SubmitLogin(env *environment.State, route environment.Route) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		log := c.MustGet(environment.LogKey).(*logrus.Entry)
		log = log.WithFields(logrus.Fields{
			"func": "SubmitLogin",
		})

		var form loginForm
		c.Bind(&form)

		if form.Email == "" {
			renderLoginError(c, http.StatusBadRequest, "Invalid email", form)
			return
		}

		session := sessions.Default(c)

		// Form supplied provider settings stick to the session so relogin
		// reuses them. Empty fields leave earlier overrides alone. Saved
		// right away so they survive a failed login attempt.
		if form.AstratoUrl != "" || form.AstratoClientId != "" || form.AstratoClientSecret != "" || form.AstratoEmbedLink != "" {
			if form.AstratoUrl != "" {
				session.Set(environment.SessionConfigUrlKey, form.AstratoUrl)
			}
			if form.AstratoClientId != "" {
				session.Set(environment.SessionConfigClientIdKey, form.AstratoClientId)
			}
			if form.AstratoClientSecret != "" {
				session.Set(environment.SessionConfigClientSecretKey, form.AstratoClientSecret)
			}
			if form.AstratoEmbedLink != "" {
				session.Set(environment.SessionConfigEmbedLinkKey, form.AstratoEmbedLink)
			}
			if err := session.Save(); err != nil {
				log.Debug("Failed to save session: " + err.Error())
			}
		}

		// Validate before any provider call so a malformed filter never
		// costs a round trip.
		var filterParameters json.RawMessage
		if trimmed := strings.TrimSpace(form.FilterParameters); trimmed != "" {
			if err := json.Unmarshal([]byte(trimmed), &filterParameters); err != nil {
				log.Debug("Invalid filter_parameters: " + err.Error())
				renderLoginError(c, http.StatusBadRequest, "Invalid filter_parameters: "+err.Error(), form)
				return
			}
		}

		override := astrato.Config{
			Url:          form.AstratoUrl,
			ClientId:     form.AstratoClientId,
			ClientSecret: form.AstratoClientSecret,
			EmbedLink:    form.AstratoEmbedLink,
		}
		config := astrato.Merge(override, env.Defaults)

		accessToken, err := astrato.FetchAccessToken(env.Client, config)
		if err != nil {
			log.Debug("Error getting management token: " + err.Error())
			renderLoginErrorWithCall(c, form, config, err)
			return
		}

		setupRequest := astrato.CreateSetupTicketRequest{
			Email:               form.Email,
			GroupIds:            ParseGroupIds(form.GroupIds),
			ApplyPendingInvites: parseCheckbox(form.ApplyPendingInvites),
			FilterParameters:    filterParameters,
		}
		ticket, err := astrato.FetchSessionTicket(env.Client, accessToken, setupRequest, config)
		if err != nil {
			log.Debug("Error getting session ticket: " + err.Error())
			renderLoginErrorWithCall(c, form, config, err)
			return
		}

		session.Set(environment.SessionUserKey, form.Email)
		session.Set(environment.SessionTicketKey, ticket)
		if err := session.Save(); err != nil {
			log.Debug("Failed to save session: " + err.Error())
			renderLoginError(c, http.StatusInternalServerError, err.Error(), form)
			return
		}

		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
	return gin.HandlerFunc(fn)
}

// ParseGroupIds splits a comma separated input into trimmed non-empty ids,
// keeping their relative order. Absent input yields an empty list.
func ParseGroupIds(input string) []string {
	groupIds := []string{}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			groupIds = append(groupIds, part)
		}
	}
	return groupIds
}

func parseCheckbox(value string) bool {
	return value == "on" || value == "true" || value == "1"
}

func loginErrorFields(message string, form loginForm) gin.H {
	return gin.H{
		"title":                "Login failed",
		"timestamp":            time.Now().Format(time.RFC3339),
		"error":                message,
		"email":                form.Email,
		"astratoUrl":           form.AstratoUrl,
		"clientIdSupplied":     form.AstratoClientId != "",
		"clientSecretSupplied": form.AstratoClientSecret != "",
		"embedLink":            form.AstratoEmbedLink,
		"groupIds":             form.GroupIds,
		"filterParameters":     form.FilterParameters,
		"applyPendingInvites":  parseCheckbox(form.ApplyPendingInvites),
		"links": []map[string]string{
			{"href": "/public/css/dashboard.css"},
		},
	}
}

func renderLoginError(c *gin.Context, status int, message string, form loginForm) {
	c.HTML(status, "error.html", loginErrorFields(message, form))
	c.Abort()
}

// renderLoginErrorWithCall is the diagnostics page for a failed provider
// call. The resolved url and upstream response details are echoed so a failed
// embed setup can be debugged from the page alone.
func renderLoginErrorWithCall(c *gin.Context, form loginForm, config astrato.Config, err error) {
	fields := loginErrorFields(err.Error(), form)
	fields["astratoUrl"] = config.Url
	fields["embedLink"] = config.EmbedLink

	if callErr, ok := err.(*astrato.CallError); ok {
		fields["upstreamMethod"] = callErr.Method
		fields["upstreamUrl"] = callErr.Url
		if callErr.Status != 0 {
			fields["upstreamStatus"] = callErr.Status
		}
		if callErr.Body != "" {
			fields["upstreamBody"] = callErr.Body
		}
	}

	c.HTML(http.StatusInternalServerError, "error.html", fields)
	c.Abort()
}
