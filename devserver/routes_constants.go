package devserver

const (
	OpenLoginRoute    = "/open/login"
	OpenRegisterRoute = "/open/register"
	OpenRefreshRoute  = "/open/refresh"

	APIMeRoute = "/api/me"

	MetricsRoute = "/metrics"
)
