package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/embedportal/astratoui/environment"
	"github.com/embedportal/astratoui/gateway/astrato"
)

// sessionOverride collects the provider settings a login stored on the
// session. Missing keys come back as empty fields and lose to the defaults
// in astrato.Merge.
func sessionOverride(session sessions.Session) astrato.Config {
	var config astrato.Config
	if url, ok := session.Get(environment.SessionConfigUrlKey).(string); ok {
		config.Url = url
	}
	if clientId, ok := session.Get(environment.SessionConfigClientIdKey).(string); ok {
		config.ClientId = clientId
	}
	if clientSecret, ok := session.Get(environment.SessionConfigClientSecretKey).(string); ok {
		config.ClientSecret = clientSecret
	}
	if embedLink, ok := session.Get(environment.SessionConfigEmbedLinkKey).(string); ok {
		config.EmbedLink = embedLink
	}
	return config
}

func ShowDashboard(env *environment.State, route environment.Route) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		log := c.MustGet(environment.LogKey).(*logrus.Entry)
		log = log.WithFields(logrus.Fields{
			"func": "ShowDashboard",
		})

		session := sessions.Default(c)

		user, ok := session.Get(environment.SessionUserKey).(string)
		if !ok || user == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		config := astrato.Merge(sessionOverride(session), env.Defaults)

		// The ticket is single use. Clear it from the session before the
		// response body renders it so a reload never replays it.
		var ticketUrl string
		if ticket, ok := session.Get(environment.SessionTicketKey).(string); ok && ticket != "" {
			ticketUrl = astrato.TicketUrl(config, ticket)
			session.Delete(environment.SessionTicketKey)
			if err := session.Save(); err != nil {
				log.Debug("Failed to clear ticket from session: " + err.Error())
			}
		}

		c.HTML(200, "index.html", gin.H{
			"title":      "Dashboard",
			"user":       user,
			"astratoUrl": config.Url,
			"embedLink":  config.EmbedLink,
			"ticketUrl":  ticketUrl,
			"links": []map[string]string{
				{"href": "/public/css/dashboard.css"},
			},
		})
	}
	return gin.HandlerFunc(fn)
}
