//go:build profile
// +build profile

package main

// View all Profiles
//   Browser goto `http://localhost:6060/debug/pprof/`
//
// Profile Examples
//   Terminal
//     Tab1 Run `go run -tags profile github.com/DilanUni/security-video-detection`
//     Tab2 Run `go tool pprof -http localhost:8081 http://localhost:6060/debug/pprof/profile?seconds=2`
//
//     Tab2 Run `go tool pprof -http localhost:8081 http://localhost:6060/debug/pprof/heap`
//     Tab2 Run `go tool pprof -http localhost:8081 http://localhost:6060/debug/pprof/goroutine`
//

import (
	baseHttp "net/http"
	_ "net/http/pprof"
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

	// HTTP for Profiling
	go func() {
		log.Println(baseHttp.ListenAndServe(":6060", nil))
	}()

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
