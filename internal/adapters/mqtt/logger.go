package mqtt

import (
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/wavecap/wavecap/pkg/log"
)

// libraryLogger routes paho's internal logging into a log.Logger.
type libraryLogger struct {
	emit func(msg string, fields ...log.Field)
}

func (l libraryLogger) Println(v ...interface{}) {
	l.emit(strings.TrimSpace(fmt.Sprintln(v...)), log.String("component", "paho"))
}

func (l libraryLogger) Printf(format string, v ...interface{}) {
	l.emit(strings.TrimSpace(fmt.Sprintf(format, v...)), log.String("component", "paho"))
}

// RouteLibraryLogs sends paho's critical, error and warning output to
// logger. paho's loggers are package globals, so this affects every client.
func RouteLibraryLogs(logger log.Logger) {
	paho.CRITICAL = libraryLogger{emit: logger.Error}
	paho.ERROR = libraryLogger{emit: logger.Error}
	paho.WARN = libraryLogger{emit: logger.Warn}
}
