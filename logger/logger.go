package logger

import (
	"github.com/gruntwork-io/go-commons/logging"
	"github.com/sirupsen/logrus"
)

// ProjectName is attached to every log entry emitted by the app.
const ProjectName = "taktell"

// GetProjectLogger returns the shared project logger.
func GetProjectLogger() *logrus.Entry {
	return logrus.NewEntry(logging.GetLogger(ProjectName))
}
