package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/camlink/pkg/protocol"
)

func watchCmd(g *globalFlags) *cobra.Command {
	var (
		raw  bool
		cmds []int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print control messages from the center",
		Long: `Open the control connection and print every decoded message.

The connection is kept alive with heartbeats and reconnected when
it drops; each reconnect prints a connection-open (900001) line.

Examples:
  camlink watch --center ws://10.0.0.5:9000/msg --token $TOKEN
  camlink watch --cmd 301 --cmd 302
  camlink watch --json | jq .`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(g, raw, cmds)
		},
	}

	cmd.Flags().BoolVar(&raw, "json", false, "Print one JSON object per line")
	cmd.Flags().IntSliceVar(&cmds, "cmd", nil, "Only print these CMD values")

	return cmd
}

func runWatch(g *globalFlags, raw bool, cmds []int) error {
	a, err := setup(g, !raw)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keep := func(int) bool { return true }
	if len(cmds) > 0 {
		set := make(map[int]bool, len(cmds))
		for _, c := range cmds {
			set[c] = true
		}
		keep = func(c int) bool { return set[c] }
	}

	out := json.NewEncoder(os.Stdout)
	c, err := a.login(ctx, func(msg *protocol.ControlMessage) {
		if !keep(msg.CMD) {
			return
		}
		if raw {
			out.Encode(struct {
				CMD  int             `json:"cmd"`
				Name string          `json:"name"`
				Type string          `json:"type"`
				Peer string          `json:"peer,omitempty"`
				Body json.RawMessage `json:"body"`
			}{msg.CMD, protocol.CmdName(msg.CMD), msg.Type.String(), msg.Peer, msg.Body})
			return
		}
		peer := ""
		if msg.Peer != "" {
			peer = " from " + msg.Peer
		}
		fmt.Printf("%-6d %-22s%s %s\n", msg.CMD, protocol.CmdName(msg.CMD), peer, msg.Body)
	})
	if err != nil {
		return err
	}

	if !raw {
		success("Watching %s", a.cfg.Center.Address)
		info("Press Ctrl+C to stop")
	}
	<-ctx.Done()

	return c.Close(context.Background())
}
