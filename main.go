package main

import (
	"net/http"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	adapter "github.com/gwatts/gin-adapter"
	"github.com/pborman/getopt"
	"github.com/sirupsen/logrus"

	"github.com/embedportal/astratoui/app"
	"github.com/embedportal/astratoui/config"
	"github.com/embedportal/astratoui/controllers"
	"github.com/embedportal/astratoui/environment"
	"github.com/embedportal/astratoui/gateway/astrato"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Path to optional config file, environment variables win over file values")
	optHelp := getopt.BoolLong("help", 'h', "Print help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	config.InitConfigurations(*optConfig)

	logger := logrus.New()
	if config.GetString("log.format") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if config.GetBool("log.debug") {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Defaults come from the process environment. A login form can override
	// any of them for the lifetime of that session.
	env := &environment.State{
		Defaults: astrato.Config{
			Url:          config.GetString("astrato.url"),
			ClientId:     config.GetString("astrato.client.id"),
			ClientSecret: config.GetString("astrato.client.secret"),
			EmbedLink:    config.GetString("astrato.embed.link"),
		},
		Client: &http.Client{},
	}

	routes := map[string]environment.Route{
		"/": environment.Route{
			URL:   "/",
			LogId: "astratoui://",
		},
		"/login": environment.Route{
			URL:   "/login",
			LogId: "astratoui://login",
		},
		"/logout": environment.Route{
			URL:   "/logout",
			LogId: "astratoui://logout",
		},
		"/external-relogin": environment.Route{
			URL:   "/external-relogin",
			LogId: "astratoui://external-relogin",
		},
	}

	r := gin.Default()
	r.Use(app.RequestId())
	r.Use(app.RequestLogger(logger))

	store := cookie.NewStore([]byte(config.GetString("session.secret")))
	r.Use(sessions.Sessions(config.GetString("session.name"), store))

	// CSRF only on the form endpoints, no need to mint tokens for public
	// files.
	adapterCSRF := adapter.Wrap(csrf.Protect([]byte(config.GetString("csrf.auth.key")), csrf.Secure(false)))

	r.Static("/public", "public")
	r.LoadHTMLGlob("views/*")

	ep := r.Group("/")
	ep.Use(adapterCSRF)
	{
		ep.GET(routes["/"].URL, controllers.ShowDashboard(env, routes["/"]))

		ep.GET(routes["/login"].URL, controllers.ShowLogin(env, routes["/login"]))
		ep.POST(routes["/login"].URL, controllers.SubmitLogin(env, routes["/login"]))

		ep.GET(routes["/logout"].URL, controllers.Logout(env, routes["/logout"]))
	}

	// Called with fetch() from the embed page, the csrf form token is not
	// available there.
	r.POST(routes["/external-relogin"].URL, controllers.SubmitRelogin(env, routes["/external-relogin"]))

	r.Run(":" + config.GetString("serve.port"))
}
