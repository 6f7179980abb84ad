package main

import (
	"log/slog"
	"net/http"
	"time"
)

// streamAborter cancels every chat reply still streaming.
type streamAborter interface {
	AbortAll() int
}

// newHTTPServer builds the gate's server. Streaming replies are aborted from
// the shutdown hook, which runs only after Shutdown has closed the listeners,
// so no new stream can start once they are aborted.
func newHTTPServer(addr string, handler http.Handler, streams streamAborter, log *slog.Logger) *http.Server {
	// No WriteTimeout: chat replies stream for as long as the upstream does,
	// bounded by the upstream timeout instead.
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	srv.RegisterOnShutdown(func() {
		if n := streams.AbortAll(); n > 0 {
			log.Info("aborted in-flight chat replies", "count", n)
		}
	})
	return srv
}
