package httpclient

import "strconv"

const (
	Host                      = "_HOST"
	Port                      = "_PORT"
	Timeout                   = "_TIMEOUT_IN_MS"
	DialTimeout               = "_DIAL_TIMEOUT_IN_MS"
	KeepAliveTimeout          = "_KEEP_ALIVE_TIMEOUT_IN_MS"
	MaxIdleConnections        = "_MAX_IDLE_CONNECTIONS"
	MaxIdleConnectionsPerHost = "_MAX_IDLE_CONNECTIONS_PER_HOST"
	IdleConnectionTimeout     = "_IDLE_CONNECTION_TIMEOUT_IN_MS"

	HeaderContentType          = "Content-Type"
	HeaderAuthorization        = "Authorization"
	HeaderValueApplicationJson = "application/json"
)

// BuildHttpUrl builds a plain http url from host, port and path.
func BuildHttpUrl(host string, port int, path string) string {
	return "http://" + host + ":" + strconv.Itoa(port) + path
}
