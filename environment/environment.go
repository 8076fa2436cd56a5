package environment

import (
	"net/http"

	"github.com/embedportal/astratoui/gateway/astrato"
)

const (
	RequestIdKey string = "RequestId"
	LogKey       string = "log"

	SessionUserKey   string = "user"
	SessionTicketKey string = "ticket.id"

	SessionConfigUrlKey          string = "astrato.config.url"
	SessionConfigClientIdKey     string = "astrato.config.client.id"
	SessionConfigClientSecretKey string = "astrato.config.client.secret"
	SessionConfigEmbedLinkKey    string = "astrato.config.embed.link"
)

// State holds app wide state shared by the controllers. Handler functions
// close over it, see controllers.SubmitLogin.
type State struct {
	Defaults astrato.Config
	Client   *http.Client
}

type Route struct {
	URL   string
	LogId string
}
