// Package config provides configuration parsing for the renderbridge server.
//
// The configuration is stored in renderbridge.json. Every field is optional;
// missing fields take the defaults below.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "path": "/bridge",
//	    "shutdownTimeout": "10s"
//	  },
//	  "transport": {
//	    "readTimeout": "60s",
//	    "writeTimeout": "10s",
//	    "maxMessageSize": 1048576,
//	    "allowedOrigins": ["https://app.example.com"]
//	  },
//	  "codec": {
//	    "maxDepth": 128
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "path": "/metrics",
//	    "namespace": "renderbridge"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
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
//	fmt.Println("Listening on", cfg.Address())
package config
