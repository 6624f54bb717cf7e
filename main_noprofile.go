//go:build !profile
// +build !profile

package main

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/DilanUni/security-video-detection/http"
	"github.com/DilanUni/security-video-detection/manage"
)

func doMain() {
	ctlc := make(chan os.Signal, 1)
	signal.Notify(ctlc, os.Interrupt, syscall.SIGTERM)

	m := manage.NewManage()
	if err := m.Startup(); err != nil {
		log.Fatalln("Startup:", err)
	}
	h := http.NewHttp(m)
	go func() {
		<-ctlc
		log.Println("Captured ctrl-c")
		h.Stop()
	}()
	if err := h.Listen(); err != nil {
		log.Errorln("Listen:", err)
	}
	m.Shutdown()
}
