// Package presence publishes the Open connections of a client into Redis
// so other processes can see which cameras are being watched.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	tr := presence.New(rdb, hostname)
//	ch := message.New(url, dialer, message.WithStateHook(tr.Hook(conn.KindMessage, "center")))
package presence
