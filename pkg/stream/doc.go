// Package stream manages the media connections of a client.
//
// A Registry holds one Session per rendering element. Each Session owns a
// supervised KindStream connection; after every Open it sends a start-video
// request carrying the media ID and routing tags, and it feeds inbound
// video frames through an Assembler to the element's RenderFunc.
//
//	reg := stream.NewRegistry(conn.NewWebSocketDialer())
//	s, err := reg.CreateStream(ctx, "ws://center:9001/video", stream.Params{
//	    ElementID: "cam-1",
//	    MediaID:   "m-1001",
//	    CamID:     "1",
//	    ChnID:     "0",
//	    Render:    player.Push,
//	})
//	...
//	reg.CloseAllStreams(ctx)
//
// Sessions can record their raw stream (StartRecord/StopRecord, see package
// recording) and capture the latest frame (Screenshot).
package stream
