// Package config loads guisync.json or guisync.yaml project files.
//
// A file has three sections. Every field is optional:
//
//	client:
//	  url: http://localhost:8080
//	  interval: 200ms
//	  autoRefresh: true
//	  transport: http        # or websocket
//	  refreshTimeout: 200ms  # default: the interval
//	  commandTimeout: 5s
//	  discardStale: false
//	  sanitize: false
//	server:
//	  address: ":8080"
//	  title: guisync
//	  refreshPath: /refresh/
//	  rpcPath: /rpc/
//	  webSocketPath: /ws
//	  metricsPath: /metrics
//	  shutdownTimeout: 30s
//	log:
//	  level: info            # debug, info, warn, error
//	  format: text           # or json
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
//	sessionConfig, _ := cfg.ClientConfig()
package config
