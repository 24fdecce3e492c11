// Package client ties the transport core into one logged-in session.
//
//	c, err := client.Login(ctx, center,
//	    client.WithInit(protocol.InitRequest{Token: token}),
//	    client.WithListener(onMessage),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Logout(ctx)
//
//	c.CreateStream(ctx, videoURL, stream.Params{...})
//
// There is no process-wide state: every Client owns its channel, its
// registry and their timers.
package client
