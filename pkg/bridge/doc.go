// Package bridge relays control-channel messages to and from NATS.
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	b := bridge.New(nc, bridge.WithPrefix("site1"))
//	ch.SetListener(b.Listener(app.Handle))
//	b.Downlink(nc, ch)
//
// Subjects:
//
//	<prefix>.msg.<cmd>   every inbound message, JSON Envelope
//	<prefix>.msg.all     the same, all commands
//	<prefix>.cmd         outbound Command documents
package bridge
