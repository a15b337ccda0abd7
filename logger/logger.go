package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var (
	AppLogger   *log.Logger
	ProxyLogger *log.Logger
	ErrorLogger *log.Logger

	logLevel     string
	appLogFile   *os.File
	proxyLogFile *os.File
	initialized  bool
)

// InitGlobalLoggers opens the app and proxy log files and wires up the global
// loggers. Errors always go to stderr; Info/Debug go to the files only.
func InitGlobalLoggers(appLogPath, proxyLogPath, level string) error {
	if initialized && appLogFile != nil && proxyLogFile != nil && strings.ToUpper(level) == logLevel {
		return nil
	}
	if appLogFile != nil {
		appLogFile.Close()
		appLogFile = nil
	}
	if proxyLogFile != nil {
		proxyLogFile.Close()
		proxyLogFile = nil
	}

	logLevel = strings.ToUpper(level)
	if logLevel == "" {
		logLevel = "INFO"
	}

	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	appLogWriter := openLogWriter(appLogPath, &appLogFile)
	AppLogger = log.New(appLogWriter, "APP: ", log.Ldate|log.Ltime|log.Lshortfile)

	proxyLogWriter := openLogWriter(proxyLogPath, &proxyLogFile)
	ProxyLogger = log.New(proxyLogWriter, "PROXY: ", log.Ldate|log.Ltime|log.Lshortfile)

	if !initialized {
		AppLogger.Printf("App logger initialized. Log level: %s. Output file: %s", logLevel, appLogPath)
		ProxyLogger.Printf("Proxy logger initialized. Log level: %s. Output file: %s", logLevel, proxyLogPath)
	}
	initialized = true
	return nil
}

// openLogWriter opens path for appending, creating its directory first. On any
// failure the returned writer discards output so logging never blocks startup.
func openLogWriter(path string, file **os.File) io.Writer {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		ErrorLogger.Printf("Failed to create log directory %s: %v. Logs will be discarded.", dir, err)
		return io.Discard
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		ErrorLogger.Printf("Failed to open log file %s: %v. Logs will be discarded.", path, err)
		return io.Discard
	}
	*file = f
	return f
}

func Info(format string, v ...interface{}) {
	if AppLogger != nil && (logLevel == "INFO" || logLevel == "DEBUG") {
		AppLogger.Printf(format, v...)
	}
}

func Debug(format string, v ...interface{}) {
	if AppLogger != nil && logLevel == "DEBUG" {
		AppLogger.Printf(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Print(message)
	}
	if AppLogger != nil && appLogFile != nil {
		AppLogger.Print(message)
	}
}

func Fatal(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Fatal(message)
	} else {
		log.Fatal(message)
	}
}

func ProxyInfo(format string, v ...interface{}) {
	if ProxyLogger != nil && (logLevel == "INFO" || logLevel == "DEBUG") {
		ProxyLogger.Printf(format, v...)
	}
}

func ProxyDebug(format string, v ...interface{}) {
	if ProxyLogger != nil && logLevel == "DEBUG" {
		ProxyLogger.Printf(format, v...)
	}
}

func ProxyError(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Print(message)
	}
	if ProxyLogger != nil && proxyLogFile != nil {
		ProxyLogger.Print(message)
	}
}

func CloseLogFiles() {
	if appLogFile != nil {
		AppLogger.Println("Closing app log file.")
		appLogFile.Close()
		appLogFile = nil
	}
	if proxyLogFile != nil {
		ProxyLogger.Println("Closing proxy log file.")
		proxyLogFile.Close()
		proxyLogFile = nil
	}
	initialized = false
}
