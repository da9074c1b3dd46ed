// Package config provides configuration parsing for the reactive CLI.
//
// The configuration is stored in reactive.json, or in reactive.yaml with
// the same keys. Every field is optional; missing fields take their
// defaults.
//
// # Configuration File Structure
//
//	{
//	  "logLevel": "info",
//	  "logFormat": "text",
//	  "inspect": {
//	    "enabled": true,
//	    "addr": "localhost:7070",
//	    "eventBuffer": 256,
//	    "trackEvents": false
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "reactive",
//	    "subsystem": ""
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "reactive",
//	    "triggerSpans": false
//	  },
//	  "demo": {
//	    "interval": "1s"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspect:", cfg.Inspect.Addr)
package config
