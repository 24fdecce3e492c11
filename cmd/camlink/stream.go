package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/camlink/pkg/protocol"
	"github.com/vango-dev/camlink/pkg/stream"
)

type streamFlags struct {
	url      string
	params   stream.Params
	record   time.Duration
	duration time.Duration
	interval time.Duration
}

func streamCmd(g *globalFlags) *cobra.Command {
	var f streamFlags

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Open one camera stream and report frame statistics",
		Long: `Open a media connection for one camera channel (or stitched
panorama) and print the assembler counters at a fixed interval.

With --record the stream is recorded from its first keyframe for
the given duration; the artifact goes to every configured sink.

Examples:
  camlink stream --url ws://10.0.0.5:9001/video --media m1 --cam 3 --chn 0
  camlink stream --url ws://... --media m1 --stitch s1 --stitch-index 0 --stitch-chn 2
  camlink stream --url ws://... --media m1 --cam 3 --chn 0 --record 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(g, f)
		},
	}

	cmd.Flags().StringVar(&f.url, "url", "", "Media connection URL")
	cmd.Flags().StringVar(&f.params.ElementID, "element", "cli", "Element ID of the stream")
	cmd.Flags().StringVar(&f.params.MediaID, "media", "", "Media ID")
	cmd.Flags().StringVar(&f.params.CamID, "cam", "", "Camera ID")
	cmd.Flags().StringVar(&f.params.ChnID, "chn", "", "Camera channel ID")
	cmd.Flags().StringVar(&f.params.StitchID, "stitch", "", "Stitch ID")
	cmd.Flags().StringVar(&f.params.StitchIndex, "stitch-index", "", "Stitch index")
	cmd.Flags().StringVar(&f.params.StitchChnID, "stitch-chn", "", "Stitch channel ID")
	cmd.Flags().DurationVar(&f.record, "record", 0, "Record for this long")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "Stop after this long (default: until Ctrl+C)")
	cmd.Flags().DurationVar(&f.interval, "interval", time.Second, "Stats interval")
	cmd.MarkFlagRequired("url")
	cmd.MarkFlagRequired("media")

	return cmd
}

func runStream(g *globalFlags, f streamFlags) error {
	a, err := setup(g, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if f.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.duration)
		defer cancel()
	}

	c, err := a.login(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	var bytes atomic.Int64
	f.params.Render = func(frame *protocol.VideoFrameData) {
		bytes.Add(int64(len(frame.Data)))
	}
	s, err := c.CreateStream(ctx, f.url, f.params)
	if err != nil {
		return err
	}
	success("Streaming %s (%s)", f.params.MediaID, f.url)

	var recordDone <-chan time.Time
	if f.record > 0 {
		if err := c.Streams().StartRecord(s.ElementID()); err != nil {
			return err
		}
		recordDone = time.After(f.record)
		info("Recording for %s", f.record)
	}

	tick := time.NewTicker(f.interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			if s.Recording() {
				finishRecording(c.Streams(), s.ElementID())
			}
			return nil
		case <-recordDone:
			recordDone = nil
			finishRecording(c.Streams(), s.ElementID())
		case <-tick.C:
			st := s.Stats()
			info("%-12s delivered=%d skipped=%d gaps=%d regressions=%d seq=%d bytes=%d",
				s.State(), st.Delivered, st.Skipped, st.Gaps, st.Regressions, st.LastSeq, bytes.Load())
		}
	}
}

func finishRecording(r *stream.Registry, elementID string) {
	art, err := r.StopRecord(context.Background(), elementID)
	if art == nil {
		warn("Recording failed: %v", err)
		return
	}
	if err != nil {
		warn("Recording %s saved with errors: %v", art.ID, err)
	}
	success("Recorded %s: %d frames, %d bytes, %s", art.Filename(), art.Frames, art.Size(), art.Duration().Round(time.Millisecond))
	if art.Truncated {
		warn("Recording hit the size limit and was truncated")
	}
}
