package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/embedportal/astratoui/environment"
	"github.com/embedportal/astratoui/gateway/astrato"
)

// SubmitRelogin issues a fresh single-use ticket for an already authenticated
// session. The browser calls it asynchronously when the embedded session
// expires, so the ticket goes back raw as JSON instead of through the session.
func SubmitRelogin(env *environment.State, route environment.Route) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		log := c.MustGet(environment.LogKey).(*logrus.Entry)
		log = log.WithFields(logrus.Fields{
			"func": "SubmitRelogin",
		})

		session := sessions.Default(c)

		user, ok := session.Get(environment.SessionUserKey).(string)
		if !ok || user == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		config := astrato.Merge(sessionOverride(session), env.Defaults)

		accessToken, err := astrato.FetchAccessToken(env.Client, config)
		if err != nil {
			log.Debug("External relogin error: " + err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		setupRequest := astrato.CreateSetupTicketRequest{
			Email:    user,
			GroupIds: []string{},
		}
		ticketId, err := astrato.FetchSessionTicket(env.Client, accessToken, setupRequest, config)
		if err != nil {
			log.Debug("External relogin error: " + err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.JSON(200, gin.H{"ticketId": ticketId})
	}
	return gin.HandlerFunc(fn)
}
