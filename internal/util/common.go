package util

import "github.com/sirupsen/logrus"

// ContinueOrFatal stops the process when a startup dependency cannot be built.
func ContinueOrFatal(err error, fields ...logrus.Fields) {
	if err == nil {
		return
	}
	entry := logrus.WithError(err)
	for _, f := range fields {
		entry = entry.WithFields(f)
	}
	entry.Fatal("startup failed")
}
