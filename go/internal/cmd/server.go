package main

import (
	"net/http"

	"github.com/draftkit/draftroom/go/internal/gateway"
)

func setupServer(services *Services) *http.Server {
	return gateway.NewServer(getEnv("PORT", "8080"), services.Handler)
}
