// Package recording captures and stores the raw elementary stream of a
// video session.
//
// A Recorder accumulates frames between StartRecord and StopRecord and
// yields an Artifact. Artifacts are handed to a Sink:
//
//   - MemoryStore keeps them for download over HTTP (see Handler)
//   - DiskSink writes <id>.<ext> files with JSON sidecars
//   - S3Sink uploads them with aws-sdk-go-v2
//
// MultiSink combines several sinks. Nothing here survives a restart unless a
// DiskSink or S3Sink is configured.
package recording
