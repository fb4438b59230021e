package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"fundingarb/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		logrus.WithError(err).Error("Application terminated")
		os.Exit(1)
	}
}
