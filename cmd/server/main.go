package main

import (
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/transport/http"
)

func main() {
	if err := http.Run(); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}
