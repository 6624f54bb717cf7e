package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/DilanUni/security-video-detection/runtime"
)

func init() {
	formatter := &log.TextFormatter{}
	formatter.TimestampFormat = "01-02-2006 15:04:05"
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)
	log.SetOutput(os.Stdout)
	if logDir := runtime.GetRuntimeDirectory(".logs"); logDir != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logDir + "capture",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   false,
		}))
	}
}

func main() {
	if len(os.Args) > 1 {
		log.Printf("How to run:\n\t%s NO ARGS\n", os.Args[0])
		return
	}
	doMain()
}
