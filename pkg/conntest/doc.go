// Package conntest provides in-memory sockets and scripted dialers for
// testing code built on package conn.
//
// # Quick Start
//
//	dialer := conntest.NewDialer()
//	clk := clock.NewFake(time.Unix(0, 0))
//	sup := conn.NewSupervisor(conn.MessageEndpoint("ws://cam"), dialer, conn.WithClock(clk))
//	sup.Open()
//	conntest.WaitState(t, sup, conn.StateOpen)
//
//	sock := dialer.Last()
//	sock.Deliver(frame)          // inbound
//	sock.Writes()                // outbound
//	sock.Fail(io.EOF)            // remote drop
//
// # Dial Scripts
//
// Dialer.Block makes dials hang until cancelled, which drives the connect
// timeout. Dialer.FailWith makes dials fail immediately.
package conntest
