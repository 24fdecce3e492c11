// Package config loads camlink.json.
//
// Every field can be overridden with a CAMLINK_* environment variable
// (CAMLINK_CENTER_ADDRESS, CAMLINK_HEARTBEAT_INTERVAL, CAMLINK_NATS_URL, ...).
// Durations are Go duration strings.
//
// # Configuration File Structure
//
//	{
//	  "center": {
//	    "address": "ws://10.0.0.5:9000/msg",
//	    "token": "..."
//	  },
//	  "connection": {
//	    "connectTimeout": "10s",
//	    "heartbeatInterval": "5s",
//	    "heartbeatTimeout": "10s",
//	    "reconnectInterval": "5s"
//	  },
//	  "recording": {
//	    "maxBytes": 536870912,
//	    "dir": "./recordings",
//	    "s3": {"bucket": "clips", "prefix": "camlink/"}
//	  },
//	  "server": {"host": "127.0.0.1", "port": 9180},
//	  "log": {"level": "info"},
//	  "nats": {"url": "nats://localhost:4222"},
//	  "redis": {"addr": "localhost:6379", "ttl": "30s"}
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(path)
//	if err != nil {
//	    return err
//	}
//	connCfg, _ := cfg.ConnConfig()
package config
