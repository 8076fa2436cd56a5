package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/embedportal/astratoui/environment"
)

func Logout(env *environment.State, route environment.Route) gin.HandlerFunc {
	fn := func(c *gin.Context) {

		log := c.MustGet(environment.LogKey).(*logrus.Entry)
		log = log.WithFields(logrus.Fields{
			"func": "Logout",
		})

		session := sessions.Default(c)
		session.Clear()
		session.Options(sessions.Options{Path: "/", MaxAge: -1})

		// A destroy failure must never strand the user on a dead page.
		if err := session.Save(); err != nil {
			log.Debug("Logout error: " + err.Error())
		}

		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
	return gin.HandlerFunc(fn)
}
