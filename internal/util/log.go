package util

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging sends the standard logger to stderr, stdout is reserved
// for the credential_process payload.
func ConfigureLogging(verbose bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !verbose})
	if verbose {
		logrus.SetLevel(logrus.TraceLevel)
		return
	}
	logrus.SetLevel(logrus.InfoLevel)
}

func Exit(err error) {
	if err != nil {
		logrus.Error(err)
	}
	os.Exit(1)
}

func CleanExit() {
	os.Exit(0)
}
