package middleware

import "strings"

// routeClass определяет, как middleware обращается с маршрутом.
type routeClass int

const (
	routeAPI routeClass = iota
	// routeProbe: healthz/readyz и скрейпинг Prometheus, опрашиваются часто.
	routeProbe
	// routeStream: WebSocket-поток тревог, соединение перехватывается через Hijack.
	routeStream
)

func classifyRoute(path string) routeClass {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return routeProbe
	case "/ws":
		return routeStream
	}
	if strings.HasPrefix(path, "/ws/") {
		return routeStream
	}
	return routeAPI
}

// compressible: gzip только для JSON API. /metrics сжимает promhttp, /ws требует Hijacker.
func compressible(path string) bool {
	return classifyRoute(path) == routeAPI
}
